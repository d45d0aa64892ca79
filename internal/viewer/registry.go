package viewer

import (
	"fmt"
	"sync"

	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/las"
)

// Entry is one loaded point cloud held by the viewer.
type Entry struct {
	FileID string
	Path   string
	Header las.Header
	Cloud  *cloud.Cloud
}

// Registry is the in-memory set of loaded clouds, keyed by catalog file id.
// Clouds are immutable after load, so reads need only the lock for the map.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // insertion order, for stable dashboard listings
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Add inserts an entry, replacing any previous entry with the same id.
func (r *Registry) Add(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.FileID]; !exists {
		r.order = append(r.order, e.FileID)
	}
	r.entries[e.FileID] = e
}

// Get looks an entry up by id. An empty id resolves to the sole loaded
// cloud when exactly one is present, which keeps single-file sessions free
// of id plumbing.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == "" {
		if len(r.order) == 1 {
			return r.entries[r.order[0]], nil
		}
		return nil, fmt.Errorf("viewer: %d clouds loaded, 'cloud' parameter required", len(r.order))
	}
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("viewer: no loaded cloud with id %s", id)
	}
	return e, nil
}

// List returns the entries in insertion order.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// TotalPoints sums the point counts of all loaded clouds.
func (r *Registry) TotalPoints() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, e := range r.entries {
		total += e.Cloud.Count()
	}
	return total
}
