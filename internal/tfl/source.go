package tfl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/tube3d/engine/internal/storage"
	"github.com/tube3d/engine/pkg/core"
)

// Directions fetched for every line, in fetch order.
var Directions = []string{core.DirectionInbound, core.DirectionOutbound}

// ErrAllSourcesFailed is returned when a line's route data could not
// be obtained from any source.
var ErrAllSourcesFailed = errors.New("all route data sources failed")

// SourceAttempt records one source consulted for a line and how it
// went. Attempts are kept so build failures can report exactly what
// was tried.
type SourceAttempt struct {
	Source string
	Err    error
}

// Source supplies route sequences for a line.
type Source interface {
	Fetch(ctx context.Context, lineID string) ([]core.RouteSequence, []SourceAttempt, error)
}

// FallbackSource tries the live API first, then the database cache,
// then static snapshot files. A fresh live response is written back to
// the cache as a side effect.
type FallbackSource struct {
	Client    *Client
	Store     *storage.Store
	StaticDir string
	MaxAge    time.Duration
	Logger    zerolog.Logger
}

// Fetch gathers route sequences for both directions of one line. A
// direction is allowed to fail as long as the other yields data; the
// returned attempts cover every source consulted.
func (f *FallbackSource) Fetch(ctx context.Context, lineID string) ([]core.RouteSequence, []SourceAttempt, error) {
	var sequences []core.RouteSequence
	var attempts []SourceAttempt

	for _, direction := range Directions {
		payload, dirAttempts := f.fetchDirection(ctx, lineID, direction)
		attempts = append(attempts, dirAttempts...)
		if payload == nil {
			continue
		}

		seqs, err := DecodeRouteSequences(payload)
		if err != nil {
			f.Logger.Warn().Err(err).Str("lineId", lineID).Str("direction", direction).
				Msg("Route payload failed to decode")
			attempts = append(attempts, SourceAttempt{Source: "decode:" + direction, Err: err})
			continue
		}
		sequences = append(sequences, seqs...)
	}

	if len(sequences) == 0 {
		return nil, attempts, fmt.Errorf("%w for line %s", ErrAllSourcesFailed, lineID)
	}
	return sequences, attempts, nil
}

// fetchDirection walks the source chain for one direction, returning
// the first payload obtained and the attempts made along the way.
func (f *FallbackSource) fetchDirection(ctx context.Context, lineID, direction string) ([]byte, []SourceAttempt) {
	var attempts []SourceAttempt

	if f.Client != nil {
		payload, err := f.Client.RouteSequence(ctx, lineID, direction)
		attempts = append(attempts, SourceAttempt{Source: "live:" + direction, Err: err})
		if err == nil {
			f.cachePayload(lineID, direction, payload)
			return payload, attempts
		}
		f.Logger.Warn().Err(err).Str("lineId", lineID).Str("direction", direction).
			Msg("Live API fetch failed, trying cache")
	}

	if f.Store != nil && f.Store.IsValid {
		payload, err := f.Store.LoadRouteCache(lineID, direction, f.MaxAge)
		attempts = append(attempts, SourceAttempt{Source: "cache:" + direction, Err: err})
		if err == nil {
			return payload, attempts
		}
	}

	if f.StaticDir != "" {
		path := filepath.Join(f.StaticDir, fmt.Sprintf("%s.%s.json", lineID, direction))
		payload, err := os.ReadFile(path)
		attempts = append(attempts, SourceAttempt{Source: "static:" + direction, Err: err})
		if err == nil {
			return payload, attempts
		}
	}

	return nil, attempts
}

func (f *FallbackSource) cachePayload(lineID, direction string, payload []byte) {
	if f.Store == nil || !f.Store.IsValid {
		return
	}
	if err := f.Store.SaveRouteCache(lineID, direction, payload); err != nil {
		f.Logger.Warn().Err(err).Str("lineId", lineID).Msg("Failed to cache route payload")
	}
}
