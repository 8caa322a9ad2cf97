package depth

import (
	"github.com/tube3d/engine/pkg/core"
)

// DefaultDepth is the generic fallback, in metres, when neither an
// anchor nor a per-line heuristic is known.
const DefaultDepth = 18.0

// Resolver determines station depths. Preference order:
//
//  1. interpolation between the two arc-length-nearest anchors
//     bracketing the station on its branch
//  2. the station's own curated anchor
//  3. the line's heuristic constant
//  4. DefaultDepth
//
// A station outside the anchored span of a branch that carries two or
// more anchors takes the nearest anchor's value directly; no
// extrapolation. A branch with fewer than two anchors offers nothing
// to interpolate, so its unanchored stations fall through to the
// heuristics.
type Resolver struct {
	anchors      map[string]core.DepthAnchor
	lineDefaults map[string]float64
}

// NewResolver creates a resolver over the curated anchor table and the
// per-line heuristic depths.
func NewResolver(anchors map[string]core.DepthAnchor, lines []core.Line) *Resolver {
	defaults := make(map[string]float64, len(lines))
	for _, l := range lines {
		defaults[l.ID] = l.DefaultDepth
	}
	if anchors == nil {
		anchors = make(map[string]core.DepthAnchor)
	}
	return &Resolver{anchors: anchors, lineDefaults: defaults}
}

// Resolve returns the depth for a single station with no branch
// context: its own anchor if curated, else the line heuristic, else
// DefaultDepth. Never fails.
func (r *Resolver) Resolve(stationID, lineID string) float64 {
	if a, ok := r.anchors[stationID]; ok {
		return a.Depth
	}
	if d, ok := r.lineDefaults[lineID]; ok {
		return d
	}
	return DefaultDepth
}

// BranchDepths resolves a depth for every station on one branch.
// cumulative holds the running path length at each station (metres
// along the branch, cumulative[0] == 0); interpolation between
// anchors is weighted by this arc length, not by station count, so
// uneven spacing is respected.
func (r *Resolver) BranchDepths(stationIDs []string, cumulative []float64, lineID string) []float64 {
	depths := make([]float64, len(stationIDs))

	// indices of anchored stations, in branch order
	var anchored []int
	for i, id := range stationIDs {
		if _, ok := r.anchors[id]; ok {
			anchored = append(anchored, i)
		}
	}

	for i, id := range stationIDs {
		if a, ok := r.anchors[id]; ok {
			depths[i] = a.Depth
			continue
		}
		if len(anchored) < 2 {
			depths[i] = r.Resolve(id, lineID)
			continue
		}

		prev, next := bracket(anchored, i)
		switch {
		case prev < 0:
			// before the first anchor: nearest anchor wins
			depths[i] = r.anchors[stationIDs[next]].Depth
		case next < 0:
			// past the last anchor
			depths[i] = r.anchors[stationIDs[prev]].Depth
		default:
			d1 := r.anchors[stationIDs[prev]].Depth
			d2 := r.anchors[stationIDs[next]].Depth
			span := cumulative[next] - cumulative[prev]
			if span <= 0 {
				depths[i] = d1
				continue
			}
			frac := (cumulative[i] - cumulative[prev]) / span
			depths[i] = d1 + (d2-d1)*frac
		}
	}
	return depths
}

// bracket returns the nearest anchored indices before and after i, or
// -1 where no anchor exists on that side. anchored is sorted, so the
// first candidates found are the arc-length-nearest ones.
func bracket(anchored []int, i int) (prev, next int) {
	prev, next = -1, -1
	for _, a := range anchored {
		if a < i {
			prev = a
		} else if a > i {
			next = a
			break
		}
	}
	return prev, next
}
