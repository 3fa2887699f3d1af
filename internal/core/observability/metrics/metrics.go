package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes scene bridge metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Rebuilds        prometheus.Counter
	RebuildDuration prometheus.Histogram
	TreeNodes       prometheus.Gauge
	Resolves        *prometheus.CounterVec
	ScanRecords     *prometheus.CounterVec
	Intents         *prometheus.CounterVec
}

// New registers the collectors against reg. A nil reg uses the default registerer.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_rebuilds_total",
			Help:      "Number of scene tree snapshots installed.",
		}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_rebuild_duration_seconds",
			Help:      "Time spent enumerating and building a scene tree snapshot.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		TreeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Number of nodes in the current scene tree snapshot.",
		}),
		Resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolves_total",
			Help:      "Selector resolutions by lookup path and outcome.",
		}, []string{"path", "outcome"}),
		ScanRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_records_total",
			Help:      "Records produced by bulk scans.",
		}, []string{"scan"}),
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Mutation intents dispatched to the apply layer.",
		}, []string{"intent"}),
	}

	var err error
	if c.Rebuilds, err = register(reg, c.Rebuilds); err != nil {
		return nil, err
	}
	if c.RebuildDuration, err = register(reg, c.RebuildDuration); err != nil {
		return nil, err
	}
	if c.TreeNodes, err = register(reg, c.TreeNodes); err != nil {
		return nil, err
	}
	if c.Resolves, err = register(reg, c.Resolves); err != nil {
		return nil, err
	}
	if c.ScanRecords, err = register(reg, c.ScanRecords); err != nil {
		return nil, err
	}
	if c.Intents, err = register(reg, c.Intents); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

func (c *Collector) ObserveRebuild(d time.Duration, nodes int) {
	if c == nil {
		return
	}
	c.Rebuilds.Inc()
	c.RebuildDuration.Observe(d.Seconds())
	c.TreeNodes.Set(float64(nodes))
}

func (c *Collector) ObserveResolve(path string, found bool) {
	if c == nil {
		return
	}
	outcome := "miss"
	if found {
		outcome = "hit"
	}
	c.Resolves.WithLabelValues(path, outcome).Inc()
}

func (c *Collector) AddScanRecords(scan string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.ScanRecords.WithLabelValues(scan).Add(float64(n))
}

func (c *Collector) IncIntent(intent string) {
	if c == nil {
		return
	}
	c.Intents.WithLabelValues(intent).Inc()
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return collector, nil
}
