package scene

import "sync"

// Registry is the flat runtime registry of dynamically spawned entities.
type Registry struct {
	mu       sync.RWMutex
	entities map[EntityID]Handle
}

func NewRegistry() *Registry {
	return &Registry{entities: make(map[EntityID]Handle)}
}

func (r *Registry) Register(id EntityID, h Handle) {
	r.mu.Lock()
	r.entities[id] = h
	r.mu.Unlock()
}

func (r *Registry) Unregister(id EntityID) {
	r.mu.Lock()
	delete(r.entities, id)
	r.mu.Unlock()
}

func (r *Registry) Lookup(id EntityID) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entities[id]
	return h, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
