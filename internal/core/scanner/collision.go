package scanner

import (
	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/resource"
	"github.com/zeusync/scenebridge/internal/core/scene"
)

const (
	GeomEntityInterface     = "ZGeomEntity"
	PrimitiveProxyInterface = "ZPrimitiveProxyEntity"
	// PureWaterInterface marks geometry that never carries collision.
	PureWaterInterface = "ZPureWaterAspect"

	CollisionResourceProperty = "m_CollisionResourceID"
)

const scanCollision = "collision"

// Geometry is the capability a geometry entity exposes: the container index of
// its primitive resource.
type Geometry interface {
	PrimitiveResource() resource.Index
}

// CollisionCorrelations streams every geometry and primitive proxy node with
// the collision resources it correlates to.
func (s *Scanner) CollisionCorrelations(emit EmitFunc) int {
	total := s.Scan(s.classifyCollision, emit)
	s.metrics.AddScanRecords(scanCollision, total)
	s.logger.Info("collision scan finished", log.Int("records", total))
	return total
}

func (s *Scanner) classifyCollision(_, node *scene.Node) (Record, bool) {
	category, ok := primaryInterface(node)
	if !ok {
		return Record{}, false
	}
	h := node.Handle()

	var hashes []string
	switch category {
	case GeomEntityInterface:
		v, ok := h.QueryInterface(GeomEntityInterface)
		if !ok {
			return Record{}, false
		}
		geom, ok := v.(Geometry)
		if !ok {
			return Record{}, false
		}
		hashes = s.collisionReferences(geom.PrimitiveResource())
	case PrimitiveProxyInterface:
	default:
		return Record{}, false
	}

	if h.Type().Implements(PureWaterInterface) {
		return Record{}, false
	}
	if tagged, ok := s.taggedCollision(h); ok {
		hashes = append(hashes, tagged)
	}
	if len(hashes) == 0 {
		return Record{}, false
	}

	rotation, ok := s.orientation(node)
	if !ok {
		return Record{}, false
	}
	s.logger.Debug("collision correlated",
		log.String("entity", node.ID().String()),
		log.String("blueprint", node.Blueprint().String()),
		log.Int("hashes", len(hashes)),
	)
	return newRecord(node, hashes, rotation), true
}

// collisionReferences lists the collision resources the primitive at idx references.
func (s *Scanner) collisionReferences(idx resource.Index) []string {
	if !idx.Valid() {
		return nil
	}
	var hashes []string
	for _, ref := range s.resources.References(idx) {
		info, ok := s.resources.Info(ref)
		if ok && info.Type == resource.TypeCollision {
			hashes = append(hashes, info.ID.String())
		}
	}
	return hashes
}

// taggedCollision reads the collision resource pointer property, if the entity has one.
func (s *Scanner) taggedCollision(h scene.Handle) (string, bool) {
	p, ok := s.bridge.Adapter().FindByName(h.Type(), CollisionResourceProperty)
	if !ok || p.Type == nil {
		return "", false
	}
	buf, err := s.bridge.Read(h, p)
	if err != nil {
		s.logger.Debug("collision resource unreadable", log.Error(err))
		return "", false
	}
	defer buf.Release()

	idx := resource.ReadPtr(buf.Bytes())
	if !idx.Valid() {
		return "", false
	}
	info, ok := s.resources.Info(idx)
	if !ok {
		return "", false
	}
	return info.ID.String(), true
}
