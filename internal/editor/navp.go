package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/transform"
)

var ErrInvalidNavpArea = errors.New("invalid navigation area")

// NavpArea is one navigation mesh area outline sent by the client.
type NavpArea []transform.Vec3

// ParseNavpAreas reads areas encoded as arrays of [x, y, z] points.
func ParseNavpAreas(raw json.RawMessage) ([]NavpArea, error) {
	var areas [][][]float64
	if err := json.Unmarshal(raw, &areas); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNavpArea, err)
	}
	out := make([]NavpArea, len(areas))
	for i, area := range areas {
		out[i] = make(NavpArea, len(area))
		for j, p := range area {
			if len(p) < 3 {
				return nil, fmt.Errorf("%w: area %d point %d has %d coordinates", ErrInvalidNavpArea, i, j, len(p))
			}
			out[i][j] = transform.Vec3{X: float32(p[0]), Y: float32(p[1]), Z: float32(p[2])}
		}
	}
	return out, nil
}

// navpStore accumulates areas uploaded in chunks.
type navpStore struct {
	mu    sync.RWMutex
	areas []NavpArea
}

// LoadNavpAreas appends a chunk of areas. Chunk 0 starts a new upload and
// discards what was loaded before.
func (e *Editor) LoadNavpAreas(areas []NavpArea, chunkIndex int) {
	e.navp.mu.Lock()
	if chunkIndex == 0 {
		e.navp.areas = nil
	}
	e.navp.areas = append(e.navp.areas, areas...)
	total := len(e.navp.areas)
	e.navp.mu.Unlock()

	e.logger.Info("loaded navigation areas",
		log.Int("chunk", chunkIndex),
		log.Int("areas", len(areas)),
		log.Int("total", total),
	)
}

// NavpAreas returns a copy of the loaded areas.
func (e *Editor) NavpAreas() []NavpArea {
	e.navp.mu.RLock()
	defer e.navp.mu.RUnlock()
	return slices.Clone(e.navp.areas)
}
