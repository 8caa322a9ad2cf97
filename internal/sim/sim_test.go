package sim

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tube3d/engine/internal/curve"
	"github.com/tube3d/engine/pkg/core"
)

// straight 1000m track with stations at u = 0, 0.5, 1
func testTrack() (*curve.Curve, []float64) {
	pts := []core.Position3D{
		{X: 0, Y: -20, Z: 0},
		{X: 500, Y: -20, Z: 0},
		{X: 1000, Y: -20, Z: 0},
	}
	return curve.New(pts), curve.StationParameters(pts)
}

func testTrain(u float64, dir core.TrainDirection, speed, dwell float64) *Train {
	track, stationU := testTrack()
	t := NewTrain(track, stationU, dir, speed, dwell, rand.New(rand.NewSource(1)))
	t.u = u
	t.next = t.firstTarget()
	return t
}

func TestTrainArrivalSnapsToStation(t *testing.T) {
	tr := testTrain(0.49, core.DirForward, 20, 10)
	require.Equal(t, 1, tr.next)

	// 20 m/s over 1s is delta 0.02, carrying the train past u=0.5
	tr.Tick(1.0)

	assert.Equal(t, 0.5, tr.u, "arrival must snap exactly onto the station")
	assert.True(t, tr.Dwelling())
	assert.Equal(t, 2, tr.next)
}

func TestTrainWrapsPastEnd(t *testing.T) {
	tr := testTrain(1.0, core.DirForward, 50, 10)
	require.Equal(t, 0, tr.next, "only remaining station ahead is the wrap target")

	// delta 0.05: raw parameter 1.05 wraps and crosses the station at 0
	tr.Tick(1.0)

	assert.Equal(t, 0.0, tr.u)
	assert.True(t, tr.Dwelling())
	assert.Equal(t, 1, tr.next)
}

func TestTrainReverseWrap(t *testing.T) {
	tr := testTrain(0.02, core.DirReverse, 50, 10)
	require.Equal(t, 0, tr.next)

	tr.Tick(1.0)

	assert.Equal(t, 0.0, tr.u)
	assert.Equal(t, 2, tr.next, "reverse train targets the previous station after arrival")
}

func TestTrainCruisesWithoutStation(t *testing.T) {
	tr := testTrain(0.1, core.DirForward, 100, 10)

	// delta 0.1 per tick, station at 0.5 still ahead
	tr.Tick(1.0)

	assert.InDelta(t, 0.2, tr.u, 1e-9)
	assert.False(t, tr.Dwelling())
}

func TestTrainDwellBlocksMotion(t *testing.T) {
	tr := testTrain(0.49, core.DirForward, 20, 3)
	tr.Tick(1.0) // arrive at 0.5, start dwelling

	tr.Tick(2.0)
	assert.Equal(t, 0.5, tr.u, "dwelling train must not move")
	assert.True(t, tr.Dwelling())

	tr.Tick(2.0)
	assert.False(t, tr.Dwelling(), "dwell expires once the countdown hits zero")
	assert.Equal(t, 0.5, tr.u, "the expiring tick is consumed by the countdown")

	tr.Tick(1.0)
	assert.Greater(t, tr.u, 0.5, "motion resumes after the dwell")
}

func TestTrainStateCycle(t *testing.T) {
	tr := testTrain(0.49, core.DirForward, 20, 2)
	require.Equal(t, stateCruising, tr.state, "new trains start out cruising")

	tr.Tick(1.0) // crosses the station at 0.5
	assert.Equal(t, stateDwelling, tr.state)
	assert.Equal(t, 2.0, tr.dwellLeft)

	tr.Tick(2.0) // countdown expires
	assert.Equal(t, stateCruising, tr.state)
	assert.Equal(t, 0.0, tr.dwellLeft)
}

func TestTrainZeroDwellPassesThrough(t *testing.T) {
	tr := testTrain(0.49, core.DirForward, 20, 0)

	tr.Tick(1.0)
	assert.Equal(t, 0.5, tr.u, "arrival still snaps onto the station")
	assert.False(t, tr.Dwelling(), "zero dwell never enters the dwelling state")

	tr.Tick(1.0)
	assert.Greater(t, tr.u, 0.5, "motion continues on the very next tick")
}

func TestNewTrainTargetsStationAhead(t *testing.T) {
	track, stationU := testTrack()

	for seed := int64(0); seed < 20; seed++ {
		tr := NewTrain(track, stationU, core.DirForward, 20, 10, rand.New(rand.NewSource(seed)))
		target := stationU[tr.next]
		assert.True(t, target > tr.u || tr.next == 0,
			"forward train must head for a station ahead, or wrap")
	}
}

func TestSimulatorPauseAndTimeScale(t *testing.T) {
	sim := NewSimulator(2.0, zerolog.Nop())
	tr := testTrain(0.1, core.DirForward, 100, 10)
	sim.AddTrains([]*Train{tr})

	sim.Pause()
	sim.Advance(5.0)
	assert.InDelta(t, 0.1, tr.u, 1e-9, "paused simulation must not move trains")

	sim.Resume()
	// 1s wall at 2x is 2 simulated seconds: delta 0.2
	sim.Advance(1.0)
	assert.InDelta(t, 0.3, tr.u, 1e-9)
}

func TestSimulatorSnapshots(t *testing.T) {
	sim := NewSimulator(1.0, zerolog.Nop())
	tr := testTrain(0.25, core.DirForward, 20, 10)
	tr.LineID = "victoria"
	tr.Colour = "#0098D4"
	sim.AddTrains([]*Train{tr})

	snaps := sim.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, "victoria", snaps[0].LineID)
	assert.InDelta(t, 0.25, snaps[0].U, 1e-9)
	assert.InDelta(t, 250.0, snaps[0].Position.X, 0.5)
	assert.InDelta(t, -20.0, snaps[0].Position.Y, 1e-6)
}
