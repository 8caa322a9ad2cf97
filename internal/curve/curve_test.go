package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tube3d/engine/pkg/core"
)

func p(x, y, z float64) core.Position3D {
	return core.Position3D{X: x, Y: y, Z: z}
}

func TestCurveStraightLine(t *testing.T) {
	// collinear controls keep the spline on the line
	c := New([]core.Position3D{p(0, 0, 0), p(100, 0, 0), p(200, 0, 0)})

	assert.InDelta(t, 200.0, c.Length(), 0.01)
	assert.InDelta(t, 0.0, c.PositionAt(0).X, 1e-9)
	assert.InDelta(t, 100.0, c.PositionAt(0.5).X, 0.5)
	assert.InDelta(t, 200.0, c.PositionAt(1).X, 1e-9)
	assert.InDelta(t, 0.0, c.PositionAt(0.5).Z, 1e-9)
}

func TestCurveConstantSpeedParameterization(t *testing.T) {
	// control points bunched towards one end must not slow u down there
	c := New([]core.Position3D{p(0, 0, 0), p(50, 0, 0), p(100, 0, 0), p(200, 0, 0)})

	prev := c.PositionAt(0)
	var steps []float64
	for u := 0.1; u <= 1.0001; u += 0.1 {
		cur := c.PositionAt(u)
		steps = append(steps, cur.DistanceTo(prev))
		prev = cur
	}

	for i := 1; i < len(steps); i++ {
		assert.InDelta(t, steps[0], steps[i], steps[0]*0.05,
			"equal u steps should cover near-equal distances")
	}
}

func TestCurveClampsParameter(t *testing.T) {
	c := New([]core.Position3D{p(0, 0, 0), p(50, 0, 0)})

	assert.Equal(t, c.PositionAt(0), c.PositionAt(-0.5))
	assert.Equal(t, c.PositionAt(1), c.PositionAt(1.5))
}

func TestCurveDegenerate(t *testing.T) {
	single := New([]core.Position3D{p(3, -10, 7)})
	assert.Equal(t, 0.0, single.Length())
	assert.Equal(t, p(3, -10, 7), single.PositionAt(0.5))
	assert.Equal(t, core.Position3D{}, single.TangentAt(0.5))

	coincident := New([]core.Position3D{p(1, 1, 1), p(1, 1, 1)})
	assert.Equal(t, 0.0, coincident.Length())
	assert.Equal(t, p(1, 1, 1), coincident.PositionAt(0.9))
}

func TestTangentFollowsTravel(t *testing.T) {
	c := New([]core.Position3D{p(0, 0, 0), p(0, 0, -100), p(0, 0, -200)})

	tan := c.TangentAt(0.5)
	assert.InDelta(t, 1.0, math.Abs(tan.Z), 1e-6)
	assert.InDelta(t, 1.0, tan.Length(), 1e-9)
	assert.Less(t, tan.Z, 0.0, "travel is towards decreasing z")
}

func TestStationParameters(t *testing.T) {
	u := StationParameters([]core.Position3D{
		p(0, 0, 0), p(100, 0, 0), p(400, 0, 0),
	})

	require.Len(t, u, 3)
	assert.Equal(t, 0.0, u[0])
	assert.InDelta(t, 0.25, u[1], 1e-9)
	assert.Equal(t, 1.0, u[2], "last station must be exactly 1")
}

func TestStationParametersDegenerate(t *testing.T) {
	u := StationParameters([]core.Position3D{p(5, 0, 5), p(5, 0, 5)})
	assert.Equal(t, []float64{0, 0}, u)

	assert.Equal(t, []float64{0}, StationParameters([]core.Position3D{p(0, 0, 0)}))
}

func TestTwinBoreSeparationAtStations(t *testing.T) {
	centre := []core.Position3D{p(0, -20, 0), p(500, -25, 0), p(1000, -20, 0)}

	left, right, stationU := BuildTwinBores(centre, 6.0)
	require.Len(t, stationU, 3)

	for _, u := range stationU {
		lp := left.PositionAt(u)
		rp := right.PositionAt(u)
		assert.InDelta(t, 12.0, lp.DistanceTo(rp), 0.01,
			"bores must sit a full track spacing apart at stations")
		assert.InDelta(t, lp.Y, rp.Y, 0.01, "offset must stay horizontal")
	}
}

func TestTwinBoreOffsetIsHorizontal(t *testing.T) {
	// steep dive between stations: the perpendicular must ignore the
	// vertical component entirely
	centre := []core.Position3D{p(0, 0, 0), p(100, -40, -100), p(200, -80, -200)}

	left, right, stationU := BuildTwinBores(centre, 6.0)

	lp := left.PositionAt(stationU[1])
	rp := right.PositionAt(stationU[1])
	assert.InDelta(t, centre[1].Y, lp.Y, 0.5)
	assert.InDelta(t, centre[1].Y, rp.Y, 0.5)
	assert.InDelta(t, 12.0, lp.DistanceTo(rp), 0.05)
}

func TestTwinBoreDegenerate(t *testing.T) {
	left, right, stationU := BuildTwinBores([]core.Position3D{p(1, -5, 1)}, 6.0)

	assert.Equal(t, 0.0, left.Length())
	assert.Equal(t, 0.0, right.Length())
	assert.Equal(t, []float64{0}, stationU)
	assert.InDelta(t, 12.0, left.PositionAt(0).DistanceTo(right.PositionAt(0)), 1e-9)
}
