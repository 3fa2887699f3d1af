package scanner

import (
	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/scene"
)

const (
	SeedPointInterface = "ZPFSeedPoint"
	BoxEntityInterface = "ZPFBoxEntity"

	// Resources the editor client renders for navigation helpers.
	SeedPointHash = "00280B8C4462FAC8"
	BoxEntityHash = "00724CDE424AFE76"
)

// SeedPoints collects every pathfinding seed point in the current snapshot.
func (s *Scanner) SeedPoints() []Record {
	return s.collect("seed_points", SeedPointInterface, SeedPointHash)
}

// BoxEntities collects every pathfinding box volume in the current snapshot.
func (s *Scanner) BoxEntities() []Record {
	return s.collect("box_entities", BoxEntityInterface, BoxEntityHash)
}

func (s *Scanner) collect(scan, category, hash string) []Record {
	var records []Record
	s.Scan(func(_, node *scene.Node) (Record, bool) {
		if name, ok := primaryInterface(node); !ok || name != category {
			return Record{}, false
		}
		rotation, ok := s.orientation(node)
		if !ok {
			return Record{}, false
		}
		return newRecord(node, []string{hash}, rotation), true
	}, func(batch []Record, _ bool) {
		records = append(records, batch...)
	})
	s.metrics.AddScanRecords(scan, len(records))
	s.logger.Info("navigation scan finished", log.String("scan", scan), log.Int("records", len(records)))
	return records
}
