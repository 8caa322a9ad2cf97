package sim

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tube3d/engine/pkg/core"
)

// Simulator drives every train in the network from one wall-clock
// feed. Simulated time runs at TimeScale times wall time; pausing
// freezes simulated time without disturbing any train's state, so a
// resumed network picks up exactly where it stopped.
type Simulator struct {
	mu        sync.RWMutex
	trains    []*Train
	timeScale float64
	simTime   float64
	paused    bool
	log       zerolog.Logger
}

// NewSimulator creates an empty simulator. Trains arrive later, as
// the network builder finishes each line.
func NewSimulator(timeScale float64, log zerolog.Logger) *Simulator {
	if timeScale <= 0 {
		timeScale = 1
	}
	return &Simulator{timeScale: timeScale, log: log}
}

// AddTrains registers newly built trains with the running simulation.
func (s *Simulator) AddTrains(trains []*Train) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trains = append(s.trains, trains...)
	s.log.Debug().Int("added", len(trains)).Int("total", len(s.trains)).Msg("Trains joined simulation")
}

// Advance moves the whole simulation forward by wallDt seconds of
// wall time. While paused this is a no-op.
func (s *Simulator) Advance(wallDt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || wallDt <= 0 {
		return
	}
	dt := wallDt * s.timeScale
	s.simTime += dt
	for _, t := range s.trains {
		t.Tick(dt)
	}
}

// SimTime returns the accumulated simulated seconds.
func (s *Simulator) SimTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.simTime
}

// Pause freezes simulated time.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume lets simulated time flow again.
func (s *Simulator) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// Paused reports whether simulated time is frozen.
func (s *Simulator) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetTimeScale changes the simulated-to-wall time ratio. Values at or
// below zero are ignored.
func (s *Simulator) SetTimeScale(scale float64) {
	if scale <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeScale = scale
}

// TrainCount returns the number of trains in the simulation.
func (s *Simulator) TrainCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trains)
}

// Snapshots returns the renderable state of every train.
func (s *Simulator) Snapshots() []core.TrainSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.TrainSnapshot, len(s.trains))
	for i, t := range s.trains {
		out[i] = t.Snapshot()
	}
	return out
}
