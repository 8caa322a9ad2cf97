// Package registry keeps the canonical horizontal position of every
// station in the network. A station served by several lines must
// occupy one (x, z) slot so interchanges stack vertically instead of
// drifting apart on floating-point differences in the source data.
package registry

import (
	"sync"

	"github.com/tube3d/engine/internal/geo"
	"github.com/tube3d/engine/pkg/core"
)

// Registry is owned by the network builder: constructed at the start
// of a build and discarded with it. It is not a package-level
// singleton.
type Registry struct {
	mu        sync.RWMutex
	projector *geo.Projector
	positions map[string]core.PlanPosition
}

// New creates an empty registry projecting through the given
// projector.
func New(projector *geo.Projector) *Registry {
	return &Registry{
		projector: projector,
		positions: make(map[string]core.PlanPosition),
	}
}

// Register returns the canonical position for a station id. The first
// call projects and stores the coordinate; later calls ignore their
// lat/lon and return the stored position unchanged.
func (r *Registry) Register(id string, lat, lon float64) core.PlanPosition {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pos, ok := r.positions[id]; ok {
		return pos
	}
	pos := r.projector.Project(lat, lon)
	r.positions[id] = pos
	return pos
}

// Lookup returns the canonical position for a station id, if any line
// has registered it.
func (r *Registry) Lookup(id string) (core.PlanPosition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.positions[id]
	return pos, ok
}

// Len returns the number of registered stations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.positions)
}
