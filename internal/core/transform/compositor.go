package transform

import (
	"errors"
	"fmt"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

const TransformPropertyName = "m_mTransform"

// TransformPropertyID is the stable id of the transform property.
var TransformPropertyID = typeinfo.PropertyID(TransformPropertyName)

// maxOwnerDepth bounds owner chain walks so a corrupt chain cannot loop forever.
const maxOwnerDepth = 1024

var ErrOwnerChainTooDeep = errors.New("owner chain exceeds maximum depth")

// Reader reads a property value out of a live object.
type Reader interface {
	Read(h scene.Handle, p *typeinfo.Property) (*property.Buffer, error)
}

type Compositor struct {
	adapter *typeinfo.Adapter
	reader  Reader
	logger  log.Log
}

func NewCompositor(adapter *typeinfo.Adapter, reader Reader, logger log.Log) *Compositor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Compositor{adapter: adapter, reader: reader, logger: logger.Named("transform")}
}

// LocalTransform reads the entity's own transform. The boolean is false when
// the entity has no transform property.
func (c *Compositor) LocalTransform(h scene.Handle) (Matrix43, bool, error) {
	p, ok := c.transformProperty(h.Type())
	if !ok {
		return Matrix43{}, false, nil
	}
	if p.Type == nil || p.Type.Size < matrix43Size {
		return Matrix43{}, false, fmt.Errorf("transform property: %w", typeinfo.ErrTypeInfoUnavailable)
	}
	buf, err := c.reader.Read(h, p)
	if err != nil {
		return Matrix43{}, false, err
	}
	defer buf.Release()

	var m Matrix43
	if err := m.UnmarshalBinary(buf.Bytes()); err != nil {
		return Matrix43{}, false, err
	}
	return m, true, nil
}

// LocalRotation returns the rotation of the entity's own transform, or the
// identity when it has none.
func (c *Compositor) LocalRotation(h scene.Handle) (Quat, error) {
	m, ok, err := c.LocalTransform(h)
	if err != nil || !ok {
		return Identity(), err
	}
	return m.Decompose(), nil
}

// WorldRotation composes the local rotations of every owner above h, root
// first. The entity's own rotation is not included; the result is the identity
// when h has no owner.
func (c *Compositor) WorldRotation(h scene.Handle) (Quat, error) {
	var chain []Quat
	for owner := h.Owner(); owner != nil; owner = owner.Owner() {
		if len(chain) == maxOwnerDepth {
			return Identity(), ErrOwnerChainTooDeep
		}
		q, err := c.LocalRotation(owner)
		if err != nil {
			return Identity(), fmt.Errorf("owner rotation: %w", err)
		}
		chain = append(chain, q)
	}
	if len(chain) == 0 {
		return Identity(), nil
	}

	// collected bottom-up, composed root-down
	world := chain[len(chain)-1]
	for i := len(chain) - 2; i >= 0; i-- {
		world = world.Mul(chain[i])
	}
	return world, nil
}

// Orientation is the entity's full world orientation: WorldRotation(h) * LocalRotation(h).
func (c *Compositor) Orientation(h scene.Handle) (Quat, error) {
	local, err := c.LocalRotation(h)
	if err != nil {
		return Identity(), err
	}
	world, err := c.WorldRotation(h)
	if err != nil {
		return Identity(), err
	}
	return world.Mul(local), nil
}

// transformProperty finds the transform by reflection name and falls back to
// the stable id, accepting it only if the name table agrees.
func (c *Compositor) transformProperty(t *typeinfo.EntityType) (*typeinfo.Property, bool) {
	if t == nil {
		return nil, false
	}
	if p, ok := c.adapter.FindByReflectionName(t, TransformPropertyName); ok {
		return p, true
	}
	p, ok := t.FindProperty(TransformPropertyID)
	if !ok {
		return nil, false
	}
	if name, ok := c.adapter.PropertyName(p); !ok || name != TransformPropertyName {
		c.logger.Debug("transform id found but name does not verify", log.Hex("entity", t.EntityID))
		return nil, false
	}
	return p, true
}
