// Package monitor runs the periodic status process: it samples the
// simulation, appends train positions to the renderer stream, rewrites
// the status file, and emits frame metrics.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tube3d/engine/internal/influx"
	"github.com/tube3d/engine/internal/sim"
	"github.com/tube3d/engine/pkg/streaming"
)

// Dependencies holds all dependencies for the monitor service. Stream
// is the shared envelope writer for the renderer stream; the process
// driver owns the underlying file.
type Dependencies struct {
	Sim        *sim.Simulator
	Influx     *influx.Manager
	StatusPath string
	Stream     *streaming.Writer
	Interval   time.Duration
	Logger     zerolog.Logger
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	statusFile, err := os.Create(s.deps.StatusPath)
	if err != nil {
		s.deps.Logger.Error().Err(err).Str("path", s.deps.StatusPath).
			Msg("Error creating status file")
	}

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		s.deps.Logger.Debug().Msg("Starting status monitor goroutine")
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.tick(statusFile)
			}
		}
	}()

	return nil
}

func (s *Service) tick(statusFile *os.File) {
	start := time.Now()
	snapshots := s.deps.Sim.Snapshots()

	if s.deps.Stream != nil {
		err := s.deps.Stream.Write(streaming.TypeTrainPositions, streaming.TrainPositionsPayload{
			SimTime: s.deps.Sim.SimTime(),
			Trains:  snapshots,
		})
		if err != nil {
			s.deps.Logger.Debug().Err(err).Msg("Failed to write train positions")
		}
	}

	if statusFile != nil {
		status := streaming.StatusPayload{
			Summary: fmt.Sprintf("trains=%d simTime=%.0fs paused=%t",
				len(snapshots), s.deps.Sim.SimTime(), s.deps.Sim.Paused()),
		}
		if data, err := json.MarshalIndent(status, "", "  "); err == nil {
			statusFile.Truncate(0)
			statusFile.Seek(0, 0)
			statusFile.Write(append(data, '\n'))
		}
	}

	if s.deps.Influx != nil {
		point := influx.FramePoint(len(snapshots), time.Since(start), s.deps.Sim.Paused())
		if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketSimPerformance, point); err != nil {
			s.deps.Logger.Debug().Err(err).Msg("Failed to write frame metric")
		}
	}
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
