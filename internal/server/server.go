package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/editor"
)

// Server exposes an Editor to remote editor clients over websocket.
type Server struct {
	editor     *editor.Editor
	httpServer *http.Server
	listener   net.Listener
	gatherer   prometheus.Gatherer

	// Client management
	clients     sync.Map // map[string]*ClientSession
	clientCount int64    // atomic

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log

	// Background workers
	workerGroup sync.WaitGroup
	stopChan    chan struct{}
}

// Config holds server configuration
type Config struct {
	ListenAddr     string
	MaxClients     int
	MaxMessageSize int64
	WriteTimeout   time.Duration
	// AuthToken, when set, has to be presented by every client.
	AuthToken string

	// RebuildInterval rebuilds the scene tree in the background. Zero disables it.
	RebuildInterval time.Duration

	// MetricsPath serves the gatherer when one is configured.
	MetricsPath string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:46735",
		MaxClients:     16,
		MaxMessageSize: 4 << 20, // 4MB
		WriteTimeout:   10 * time.Second,
		MetricsPath:    "/metrics",
	}
}

// NewServer creates a server for ed. A nil gatherer disables the metrics endpoint.
func NewServer(config Config, ed *editor.Editor, logger log.Log, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	server := &Server{
		editor:   ed,
		gatherer: gatherer,
		config:   config,
		logger:   logger.With(log.String("component", "server")),
	}

	server.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))

	return server
}

// Handler routes the websocket endpoint, health checks and metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil && s.config.MetricsPath != "" {
		mux.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start builds the first scene tree and starts accepting clients.
func (s *Server) Start(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	// A shut down http.Server cannot serve again, so every run gets its own.
	s.stopChan = make(chan struct{})
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if _, err := s.editor.RebuildTree(ctx); err != nil {
		s.logger.Warn("Initial scene tree rebuild failed", log.Error(err))
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}
	s.listener = listener

	s.logger.Info("Server listening",
		log.String("addr", listener.Addr().String()))

	s.startWorkers()

	httpServer := s.httpServer
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
		}
	}()

	s.logger.Info("Server started successfully")

	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	close(s.stopChan)

	// Shutdown does not close hijacked websocket connections
	err := s.httpServer.Shutdown(ctx)
	s.clients.Range(func(_, value any) bool {
		if session, ok := value.(*ClientSession); ok {
			_ = session.Close()
		}
		return true
	})

	s.stopWorkers()

	s.logger.Info("Server stopped")

	return err
}

// Close closes the server and releases all resources
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}

	s.logger.Info("Closing server")

	if atomic.LoadInt32(&s.running) == 1 {
		_ = s.Stop(context.Background())
	}

	s.logger.Info("Server closed")

	return nil
}

// GetStats returns server statistics
func (s *Server) GetStats() Stats {
	return Stats{
		ClientCount: atomic.LoadInt64(&s.clientCount),
		Running:     atomic.LoadInt32(&s.running) == 1,
	}
}

// Stats contains server statistics
type Stats struct {
	ClientCount int64
	Running     bool
}

// startWorkers starts background worker goroutines
func (s *Server) startWorkers() {
	if s.config.RebuildInterval <= 0 {
		return
	}
	s.workerGroup.Add(1)

	stop := s.stopChan
	go func() {
		defer s.workerGroup.Done()
		s.treeRebuilder(stop)
	}()
}

// stopWorkers stops background worker goroutines
func (s *Server) stopWorkers() {
	s.workerGroup.Wait()
}

// treeRebuilder refreshes the scene tree snapshot on a fixed interval.
func (s *Server) treeRebuilder(stop <-chan struct{}) {
	s.logger.Debug("Tree rebuilder started")

	ticker := time.NewTicker(s.config.RebuildInterval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	for {
		select {
		case <-ticker.C:
			if _, err := s.editor.RebuildTree(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Scene tree rebuild failed", log.Error(err))
			}
		case <-stop:
			s.logger.Debug("Tree rebuilder stopped")
			return
		}
	}
}
