package scene

import (
	"encoding/json"
	"fmt"

	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

// EntityID identifies an entity within its blueprint. The same id can appear on
// several spawned instances created from different blueprints.
type EntityID uint64

func (id EntityID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// BlueprintHash identifies the blueprint resource an entity was spawned from.
type BlueprintHash uint64

func (h BlueprintHash) String() string {
	return fmt.Sprintf("%016X", uint64(h))
}

// Handle is a non-owning reference to a live simulation object. The simulation
// owns the object; a handle may go stale once the object is destroyed.
type Handle interface {
	// Type returns the reflection data of the entity, or nil when unavailable.
	Type() *typeinfo.EntityType
	// Memory exposes the object's live memory that property offsets are relative to.
	Memory() []byte
	// QueryInterface returns the capability with the given interface name.
	QueryInterface(name string) (any, bool)
	// Owner returns the owning entity, or nil at the root of the owner chain.
	Owner() Handle
	// BlueprintFactory returns the resource id of the factory that spawned the entity.
	BlueprintFactory() (BlueprintHash, bool)
}

// Selector addresses an entity by id. Without a blueprint it targets the
// runtime registry of spawned entities; with one it searches the scene tree.
type Selector struct {
	ID        EntityID
	Blueprint *BlueprintHash
}

func NewSelector(id EntityID) Selector {
	return Selector{ID: id}
}

func NewTreeSelector(id EntityID, blueprint BlueprintHash) Selector {
	return Selector{ID: id, Blueprint: &blueprint}
}

func (s Selector) String() string {
	if s.Blueprint == nil {
		return s.ID.String()
	}
	return s.ID.String() + "@" + s.Blueprint.String()
}

type selectorWire struct {
	ID   json.RawMessage `json:"id"`
	TBLU json.RawMessage `json:"tblu,omitempty"`
}

// UnmarshalJSON reads {"id": ..., "tblu": ...}. Both fields accept a JSON
// number or a hex string; a missing or null "tblu" leaves Blueprint unset.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var w selectorWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.ID) == 0 {
		return fmt.Errorf("selector is missing an id")
	}
	id, err := typeinfo.ParseHash(w.ID)
	if err != nil {
		return fmt.Errorf("selector id: %w", err)
	}
	s.ID = EntityID(id)
	s.Blueprint = nil
	if len(w.TBLU) == 0 || string(w.TBLU) == "null" {
		return nil
	}
	tblu, err := typeinfo.ParseHash(w.TBLU)
	if err != nil {
		return fmt.Errorf("selector tblu: %w", err)
	}
	hash := BlueprintHash(tblu)
	s.Blueprint = &hash
	return nil
}

func (s Selector) MarshalJSON() ([]byte, error) {
	w := struct {
		ID   string  `json:"id"`
		TBLU *string `json:"tblu"`
	}{ID: s.ID.String()}
	if s.Blueprint != nil {
		tblu := s.Blueprint.String()
		w.TBLU = &tblu
	}
	return json.Marshal(w)
}
