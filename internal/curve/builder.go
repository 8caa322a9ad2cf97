package curve

import "github.com/tube3d/engine/pkg/core"

// BuildTwinBores turns one branch centerline into the pair of parallel
// running tunnels trains actually occupy. Each bore is offset from the
// centerline along the horizontal perpendicular of the local direction
// of travel, so the tunnels stay side by side even where the track
// dives or climbs. Station parameters are computed on the centerline
// and shared by both bores.
func BuildTwinBores(centre []core.Position3D, halfSpacing float64) (left, right *Curve, stationU []float64) {
	leftPts := make([]core.Position3D, len(centre))
	rightPts := make([]core.Position3D, len(centre))

	for i, p := range centre {
		n := horizontalNormal(centre, i)
		leftPts[i] = p.Add(n.Scale(halfSpacing))
		rightPts[i] = p.Sub(n.Scale(halfSpacing))
	}

	return New(leftPts), New(rightPts), StationParameters(centre)
}

// StationParameters maps each centerline station to its normalized
// arc-length parameter: cumulative straight-line distance between
// consecutive stations over the total. The first station is exactly 0
// and the last exactly 1. A zero-length centerline maps every station
// to 0.
func StationParameters(centre []core.Position3D) []float64 {
	u := make([]float64, len(centre))
	if len(centre) < 2 {
		return u
	}

	total := 0.0
	for i := 1; i < len(centre); i++ {
		total += centre[i].DistanceTo(centre[i-1])
		u[i] = total
	}
	if total == 0 {
		return u
	}

	for i := range u {
		u[i] /= total
	}
	u[len(u)-1] = 1
	return u
}

// horizontalNormal returns the unit horizontal perpendicular of the
// travel direction at control point i. The direction is the chord from
// the previous to the next station with its vertical component
// discarded; gradients must tilt the track, not lean the tunnels into
// each other. Degenerate directions (vertical shafts, coincident
// neighbours) fall back to the x axis.
func horizontalNormal(centre []core.Position3D, i int) core.Position3D {
	prev := i - 1
	if prev < 0 {
		prev = 0
	}
	next := i + 1
	if next >= len(centre) {
		next = len(centre) - 1
	}

	t := centre[next].Sub(centre[prev])
	t.Y = 0
	n := t.Length()
	if n == 0 {
		return core.Position3D{X: 1}
	}
	t = t.Scale(1 / n)
	return core.Position3D{X: -t.Z, Z: t.X}
}
