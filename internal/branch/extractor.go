// Package branch turns a line's raw directional route sequences into a
// canonical set of branch polylines and a combined station list.
package branch

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tube3d/engine/internal/geo"
	"github.com/tube3d/engine/pkg/core"
)

// ErrUnbuildable is returned when no sequence yields at least two
// valid stops.
var ErrUnbuildable = errors.New("no route sequence with at least 2 valid stops")

// Extract produces the canonical branches and the combined,
// cross-branch-deduplicated station list for one line.
//
// Sequences tagged with the canonical direction ("inbound") are
// preferred so the same physical run is not counted in both
// directions. If none match, all sequences are considered; if that
// still yields nothing, the single longest sequence is rebuilt with
// the coordinate-bounds filter relaxed, so a line whose upstream
// coordinates drift outside the expected area still renders. Partial
// upstream data degrades fidelity, it does not fail the build.
func Extract(sequences []core.RouteSequence, log zerolog.Logger) ([]core.Branch, []core.StopPoint, error) {
	candidates := filterDirection(sequences, core.DirectionInbound)
	if len(candidates) == 0 {
		log.Debug().Msg("No inbound sequences, falling back to all directions")
		candidates = sequences
	}

	branches := buildBranches(candidates, log)
	if len(branches) == 0 && len(candidates) < len(sequences) {
		branches = buildBranches(sequences, log)
	}
	if len(branches) == 0 {
		if longest := longestSequence(sequences); longest != nil {
			log.Warn().Msg("Falling back to single longest route sequence")
			branches = lastResortBranch(*longest)
		}
	}
	if len(branches) == 0 {
		return nil, nil, ErrUnbuildable
	}

	return branches, combineStations(branches), nil
}

// buildBranches converts sequences into deduplicated branches,
// dropping invalid stops, branches shorter than two stops, and exact
// duplicates of already-kept branches.
func buildBranches(sequences []core.RouteSequence, log zerolog.Logger) []core.Branch {
	var branches []core.Branch
	seen := make(map[string]bool)

	for _, seq := range sequences {
		stops := dedupeStops(seq.Stops)
		if len(stops) < 2 {
			log.Debug().Int("stops", len(stops)).Msg("Skipping sequence with fewer than 2 valid stops")
			continue
		}
		key := branchKey(stops)
		if seen[key] {
			continue
		}
		seen[key] = true
		branches = append(branches, core.Branch{Stops: stops})
	}
	return branches
}

// dedupeStops removes stops with repeated ids (first occurrence wins)
// and stops with missing or out-of-range coordinates.
func dedupeStops(stops []core.StopPoint) []core.StopPoint {
	out := make([]core.StopPoint, 0, len(stops))
	seen := make(map[string]bool, len(stops))

	for _, s := range stops {
		if !s.Valid() || seen[s.ID] {
			continue
		}
		if !geo.IsLondonCoordinate(s.Lat, s.Lon) {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// lastResortBranch dedupes the longest sequence with only the finite-
// coordinate check; the area-bounds filter that normal branch building
// applies is skipped. Everything the strict path accepts has already
// failed by the time this runs, so the bounds check is the only
// validation left worth relaxing.
func lastResortBranch(seq core.RouteSequence) []core.Branch {
	out := make([]core.StopPoint, 0, len(seq.Stops))
	seen := make(map[string]bool, len(seq.Stops))

	for _, s := range seq.Stops {
		if !s.Valid() || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	if len(out) < 2 {
		return nil
	}
	return []core.Branch{{Stops: out}}
}

// combineStations merges branch stop lists into one deduplicated
// list, preserving first-seen order across branches.
func combineStations(branches []core.Branch) []core.StopPoint {
	var combined []core.StopPoint
	seen := make(map[string]bool)

	for _, b := range branches {
		for _, s := range b.Stops {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			combined = append(combined, s)
		}
	}
	return combined
}

func filterDirection(sequences []core.RouteSequence, direction string) []core.RouteSequence {
	var out []core.RouteSequence
	for _, seq := range sequences {
		if strings.EqualFold(seq.Direction, direction) {
			out = append(out, seq)
		}
	}
	return out
}

func longestSequence(sequences []core.RouteSequence) *core.RouteSequence {
	var longest *core.RouteSequence
	for i := range sequences {
		if longest == nil || len(sequences[i].Stops) > len(longest.Stops) {
			longest = &sequences[i]
		}
	}
	return longest
}

func branchKey(stops []core.StopPoint) string {
	ids := make([]string, len(stops))
	for i, s := range stops {
		ids[i] = s.ID
	}
	return strings.Join(ids, "|")
}
