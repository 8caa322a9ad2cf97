// Package network orchestrates the full build pipeline: fetch route
// data, extract branches, project stations, resolve depths, lay twin
// bores and seed trains, one line at a time. One failed line never
// aborts the build; the renderer gets whatever could be assembled.
package network

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tube3d/engine/internal/branch"
	"github.com/tube3d/engine/internal/curve"
	"github.com/tube3d/engine/internal/depth"
	"github.com/tube3d/engine/internal/geo"
	"github.com/tube3d/engine/internal/influx"
	"github.com/tube3d/engine/internal/queue"
	"github.com/tube3d/engine/internal/registry"
	"github.com/tube3d/engine/internal/sim"
	"github.com/tube3d/engine/internal/storage"
	"github.com/tube3d/engine/internal/terrain"
	"github.com/tube3d/engine/internal/tfl"
	"github.com/tube3d/engine/pkg/core"
)

// ErrNoLinesBuilt is returned when every line in the build failed.
var ErrNoLinesBuilt = errors.New("no lines could be built")

// Params are the tunable build and seeding parameters.
type Params struct {
	TunnelSpacing float64 // full distance between twin bore centerlines, metres
	CruiseSpeed   float64 // metres per simulated second
	DwellSeconds  float64
	TrainsPerBore int
}

// Dependencies holds everything the builder needs. Store and Influx
// are optional; a nil value simply skips persistence or metrics.
type Dependencies struct {
	Source    tfl.Source
	Resolver  *depth.Resolver
	Projector *geo.Projector
	Store     *storage.Store
	Influx    *influx.Manager
	Terrain   *terrain.Heightmap
	Params    Params
	Logger    zerolog.Logger
}

// BranchBuild is the finished geometry of one branch.
type BranchBuild struct {
	Stops    []core.StopPoint
	Centre   []core.Position3D
	Left     *curve.Curve
	Right    *curve.Curve
	StationU []float64
	Depths   []float64
}

// LineBuild is the complete output for one line: geometry plus the
// trains seeded onto it.
type LineBuild struct {
	Line     core.Line
	Branches []*BranchBuild
	Stations []core.StopPoint
	Trains   []*sim.Train
	Elapsed  time.Duration
}

// LineResult pairs a line id with either its build or its failure.
type LineResult struct {
	LineID   string
	Build    *LineBuild
	Err      error
	Attempts []tfl.SourceAttempt
}

// BuildResult is the outcome of building the whole network.
type BuildResult struct {
	Started  time.Time
	Finished time.Time
	Lines    []LineResult
}

// Builder assembles the network. It owns the station registry, so
// every line built through the same Builder shares interchange
// positions.
type Builder struct {
	deps     Dependencies
	registry *registry.Registry
	rng      *rand.Rand

	linesBuilt metric.Int64Counter
	linesFail  metric.Int64Counter
}

// NewBuilder creates a builder with a fresh station registry.
func NewBuilder(deps Dependencies) *Builder {
	b := &Builder{
		deps:     deps,
		registry: registry.New(deps.Projector),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	m := meter()
	b.linesBuilt, _ = m.Int64Counter("network.lines.built",
		metric.WithDescription("Lines built successfully"))
	b.linesFail, _ = m.Int64Counter("network.lines.failed",
		metric.WithDescription("Lines that failed to build"))
	return b
}

// Registry exposes the shared station registry.
func (b *Builder) Registry() *registry.Registry {
	return b.registry
}

// BuildLine runs the full pipeline for one line.
func (b *Builder) BuildLine(ctx context.Context, lineID string) (*LineBuild, []tfl.SourceAttempt, error) {
	start := time.Now()

	line, ok := core.LineByID(lineID)
	if !ok {
		return nil, nil, fmt.Errorf("unknown line %q", lineID)
	}
	log := b.deps.Logger.With().Str("lineId", lineID).Logger()

	sequences, attempts, err := b.deps.Source.Fetch(ctx, lineID)
	if err != nil {
		return nil, attempts, fmt.Errorf("fetching route data: %w", err)
	}

	branches, stations, err := branch.Extract(sequences, log)
	if err != nil {
		return nil, attempts, fmt.Errorf("extracting branches: %w", err)
	}

	build := &LineBuild{Line: line, Stations: stations}
	for idx, br := range branches {
		bb := b.buildBranch(br, lineID)
		build.Branches = append(build.Branches, bb)
		build.Trains = append(build.Trains, b.seedTrains(line, idx, bb)...)
	}

	build.Elapsed = time.Since(start)
	log.Info().
		Int("branches", len(build.Branches)).
		Int("stations", len(build.Stations)).
		Int("trains", len(build.Trains)).
		Dur("elapsed", build.Elapsed).
		Msg("Line built")

	b.persistGeometry(ctx, build)
	return build, attempts, nil
}

// buildBranch turns one branch's stop list into placed twin-bore
// geometry. Horizontal positions come from the shared registry, so a
// station projected by an earlier line keeps its slot; depths are
// interpolated along the branch's horizontal run.
func (b *Builder) buildBranch(br core.Branch, lineID string) *BranchBuild {
	n := len(br.Stops)
	ids := make([]string, n)
	plans := make([]core.PlanPosition, n)
	cumulative := make([]float64, n)

	for i, stop := range br.Stops {
		ids[i] = stop.ID
		plans[i] = b.registry.Register(stop.ID, stop.Lat, stop.Lon)
		if i > 0 {
			dx := plans[i].X - plans[i-1].X
			dz := plans[i].Z - plans[i-1].Z
			cumulative[i] = cumulative[i-1] + math.Hypot(dx, dz)
		}
	}

	depths := b.deps.Resolver.BranchDepths(ids, cumulative, lineID)

	centre := make([]core.Position3D, n)
	for i, stop := range br.Stops {
		centre[i] = b.deps.Projector.Place(plans[i], depths[i])
		// depths are below local ground, not sea level; shift by the
		// terrain height where a heightmap is loaded
		if b.deps.Terrain != nil {
			centre[i].Y += b.deps.Projector.ElevationToY(b.deps.Terrain.ElevationAt(stop.Lat, stop.Lon))
		}
	}

	left, right, stationU := curve.BuildTwinBores(centre, b.deps.Params.TunnelSpacing/2)
	return &BranchBuild{
		Stops:    br.Stops,
		Centre:   centre,
		Left:     left,
		Right:    right,
		StationU: stationU,
		Depths:   depths,
	}
}

// seedTrains populates both bores of a branch: the left bore carries
// forward services, the right bore the reverse ones.
func (b *Builder) seedTrains(line core.Line, branchIdx int, bb *BranchBuild) []*sim.Train {
	p := b.deps.Params
	var trains []*sim.Train

	for i := 0; i < p.TrainsPerBore; i++ {
		fwd := sim.NewTrain(bb.Left, bb.StationU, core.DirForward, p.CruiseSpeed, p.DwellSeconds, b.rng)
		fwd.LineID, fwd.Colour, fwd.Branch, fwd.Bore = line.ID, line.Colour, branchIdx, 0
		trains = append(trains, fwd)

		rev := sim.NewTrain(bb.Right, bb.StationU, core.DirReverse, p.CruiseSpeed, p.DwellSeconds, b.rng)
		rev.LineID, rev.Colour, rev.Branch, rev.Bore = line.ID, line.Colour, branchIdx, 1
		trains = append(trains, rev)
	}
	return trains
}

// persistGeometry stores branch centerlines as WKB and emits a build
// metric point. Both sinks are best-effort.
func (b *Builder) persistGeometry(ctx context.Context, build *LineBuild) {
	if b.deps.Store != nil && b.deps.Store.IsValid {
		rows := make([]storage.BranchGeometry, 0, len(build.Branches))
		for idx, bb := range build.Branches {
			ls, err := geo.LineStringFromPositions(bb.Centre)
			if err != nil {
				continue
			}
			rows = append(rows, storage.BranchGeometry{
				LineID:       build.Line.ID,
				BranchIdx:    idx,
				Stations:     len(bb.Stops),
				LengthMetres: bb.Left.Length(),
				WKB:          ls.AsBinary(),
			})
		}
		if err := b.deps.Store.ReplaceBranchGeometries(build.Line.ID, rows); err != nil {
			b.deps.Logger.Warn().Err(err).Str("lineId", build.Line.ID).
				Msg("Failed to persist branch geometry")
		}
	}

	if b.deps.Influx != nil {
		point := influx.LineBuildPoint(build.Line.ID, true,
			len(build.Branches), len(build.Stations), build.Elapsed)
		if err := b.deps.Influx.WritePoint(ctx, influx.BucketNetworkBuild, point); err != nil {
			b.deps.Logger.Debug().Err(err).Msg("Failed to write build metric")
		}
	}
}

// BuildAll builds every curated line in stable order.
func (b *Builder) BuildAll(ctx context.Context) *BuildResult {
	return b.buildAll(ctx, nil)
}

// BuildAllAsync builds the network on a background goroutine, pushing
// each finished line onto completed as it lands. The returned channel
// delivers the final result exactly once.
func (b *Builder) BuildAllAsync(ctx context.Context, completed *queue.Queue[*LineBuild]) <-chan *BuildResult {
	done := make(chan *BuildResult, 1)
	go func() {
		done <- b.buildAll(ctx, completed)
	}()
	return done
}

func (b *Builder) buildAll(ctx context.Context, completed *queue.Queue[*LineBuild]) *BuildResult {
	result := &BuildResult{Started: time.Now()}

	for _, lineID := range core.LineIDs() {
		if ctx.Err() != nil {
			break
		}

		build, attempts, err := b.BuildLine(ctx, lineID)
		result.Lines = append(result.Lines, LineResult{
			LineID:   lineID,
			Build:    build,
			Err:      err,
			Attempts: attempts,
		})

		if err != nil {
			b.linesFail.Add(ctx, 1, metric.WithAttributes(attribute.String("line", lineID)))
			b.deps.Logger.Error().Err(err).Str("lineId", lineID).Msg("Line build failed")
			continue
		}
		b.linesBuilt.Add(ctx, 1, metric.WithAttributes(attribute.String("line", lineID)))
		if completed != nil {
			completed.Push(build)
		}
	}

	result.Finished = time.Now()
	b.deps.Logger.Info().Str("summary", result.Summary()).Msg("Network build finished")
	return result
}

// Summary renders the one-line outcome, e.g.
// "loaded 9/11 lines; failed: circle, district".
func (r *BuildResult) Summary() string {
	var failed []string
	built := 0
	for _, lr := range r.Lines {
		if lr.Err != nil {
			failed = append(failed, lr.LineID)
		} else {
			built++
		}
	}

	s := fmt.Sprintf("loaded %d/%d lines", built, len(r.Lines))
	if len(failed) > 0 {
		s += "; failed: " + strings.Join(failed, ", ")
	}
	return s
}

// Err returns ErrNoLinesBuilt when nothing in the build succeeded.
func (r *BuildResult) Err() error {
	for _, lr := range r.Lines {
		if lr.Err == nil {
			return nil
		}
	}
	return ErrNoLinesBuilt
}

// Totals sums stations and trains over the successful lines.
func (r *BuildResult) Totals() (stations, trains int) {
	for _, lr := range r.Lines {
		if lr.Build == nil {
			continue
		}
		stations += len(lr.Build.Stations)
		trains += len(lr.Build.Trains)
	}
	return stations, trains
}
