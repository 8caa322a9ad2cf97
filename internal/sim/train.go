// Package sim animates trains along built track geometry. It owns no
// geometry of its own: every train runs on a curve produced by the
// network builder and reports back only normalized positions.
package sim

import (
	"math/rand"

	"github.com/tube3d/engine/internal/curve"
	"github.com/tube3d/engine/pkg/core"
)

// trainState is the discriminant of the train's two states: cruising
// along the curve, or dwelling at a station.
type trainState int

const (
	stateCruising trainState = iota
	stateDwelling
)

// Train is a single service running one bore of one branch. It is a
// two-state machine: cruising along the curve at constant speed, or
// dwelling at a station with the countdown running. All times are
// simulated seconds; the simulator owns the wall-clock scaling.
type Train struct {
	LineID string
	Colour string
	Branch int
	Bore   int

	track    *curve.Curve
	stationU []float64
	dir      core.TrainDirection
	speed    float64 // metres per simulated second
	dwell    float64 // seconds held at each station

	u         float64
	next      int // index into stationU of the station being approached
	state     trainState
	dwellLeft float64 // remaining dwell, meaningful only while dwelling
}

// NewTrain places a train at a random point on the curve, heading for
// the first station ahead of it in its direction of travel.
func NewTrain(track *curve.Curve, stationU []float64, dir core.TrainDirection, speed, dwell float64, rng *rand.Rand) *Train {
	t := &Train{
		track:    track,
		stationU: stationU,
		dir:      dir,
		speed:    speed,
		dwell:    dwell,
		u:        rng.Float64(),
	}
	t.next = t.firstTarget()
	return t
}

// firstTarget finds the nearest station index strictly ahead of u in
// the direction of travel, wrapping when none remains.
func (t *Train) firstTarget() int {
	n := len(t.stationU)
	if n == 0 {
		return 0
	}
	if t.dir == core.DirForward {
		for i := 0; i < n; i++ {
			if t.stationU[i] > t.u {
				return i
			}
		}
		return 0
	}
	for i := n - 1; i >= 0; i-- {
		if t.stationU[i] < t.u {
			return i
		}
	}
	return n - 1
}

// Tick advances the train by dt simulated seconds. A dwelling train
// only counts down; a cruising train moves along the curve, wrapping
// at the ends, and stops the moment it reaches or passes its target
// station. On arrival u snaps to the station parameter exactly, so
// accumulated floating-point drift never leaves a train hovering just
// short of a platform.
func (t *Train) Tick(dt float64) {
	if dt <= 0 {
		return
	}

	switch t.state {
	case stateDwelling:
		t.dwellLeft -= dt
		if t.dwellLeft <= 0 {
			t.dwellLeft = 0
			t.state = stateCruising
		}

	case stateCruising:
		if t.track.Length() == 0 || len(t.stationU) == 0 {
			return
		}
		delta := t.speed * dt / t.track.Length()
		if t.dir == core.DirForward {
			t.advanceForward(delta)
		} else {
			t.advanceReverse(delta)
		}
	}
}

func (t *Train) advanceForward(delta float64) {
	raw := t.u + delta
	target := t.stationU[t.next]

	crossed := false
	if raw < 1 {
		crossed = target > t.u && target <= raw
	} else {
		// wrapped past the end of the curve this tick
		crossed = target > t.u || target <= raw-1
	}

	if crossed {
		t.arrive(target, 1)
		return
	}
	t.u = wrap01(raw)
}

func (t *Train) advanceReverse(delta float64) {
	raw := t.u - delta
	target := t.stationU[t.next]

	crossed := false
	if raw >= 0 {
		crossed = target < t.u && target >= raw
	} else {
		crossed = target < t.u || target >= raw+1
	}

	if crossed {
		t.arrive(target, -1)
		return
	}
	t.u = wrap01(raw)
}

// arrive snaps onto the station and switches to dwelling. A zero dwell
// time keeps the train cruising straight through.
func (t *Train) arrive(target float64, step int) {
	n := len(t.stationU)
	t.u = target
	t.next = ((t.next+step)%n + n) % n
	if t.dwell > 0 {
		t.state = stateDwelling
		t.dwellLeft = t.dwell
	}
}

// Dwelling reports whether the train is currently held at a station.
func (t *Train) Dwelling() bool {
	return t.state == stateDwelling
}

// Snapshot captures the train's current renderable state.
func (t *Train) Snapshot() core.TrainSnapshot {
	bore := "left"
	if t.Bore == 1 {
		bore = "right"
	}
	return core.TrainSnapshot{
		LineID:   t.LineID,
		Colour:   t.Colour,
		Branch:   t.Branch,
		Bore:     bore,
		U:        t.u,
		Dwelling: t.Dwelling(),
		Position: t.track.PositionAt(t.u),
	}
}

func wrap01(v float64) float64 {
	for v >= 1 {
		v -= 1
	}
	for v < 0 {
		v += 1
	}
	return v
}
