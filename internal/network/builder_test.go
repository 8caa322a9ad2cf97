package network

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tube3d/engine/internal/depth"
	"github.com/tube3d/engine/internal/geo"
	"github.com/tube3d/engine/internal/queue"
	"github.com/tube3d/engine/internal/tfl"
	"github.com/tube3d/engine/pkg/core"
)

// fakeSource serves canned route sequences per line and fails the
// rest.
type fakeSource struct {
	sequences map[string][]core.RouteSequence
}

func (f *fakeSource) Fetch(_ context.Context, lineID string) ([]core.RouteSequence, []tfl.SourceAttempt, error) {
	seqs, ok := f.sequences[lineID]
	attempts := []tfl.SourceAttempt{{Source: "fake"}}
	if !ok {
		return nil, attempts, tfl.ErrAllSourcesFailed
	}
	return seqs, attempts, nil
}

func seq(ids ...string) core.RouteSequence {
	stops := make([]core.StopPoint, len(ids))
	for i, id := range ids {
		// spread stations west to east through central London
		stops[i] = core.StopPoint{
			ID:   id,
			Name: id,
			Lat:  51.50 + 0.002*float64(i),
			Lon:  -0.20 + 0.01*float64(i),
		}
	}
	return core.RouteSequence{Direction: core.DirectionInbound, Stops: stops}
}

func testBuilder(src tfl.Source) *Builder {
	return NewBuilder(Dependencies{
		Source:    src,
		Resolver:  depth.NewResolver(nil, core.Lines),
		Projector: geo.NewProjector(51.5074, -0.1278, 1.0, 1.0),
		Params: Params{
			TunnelSpacing: 6.0,
			CruiseSpeed:   15.0,
			DwellSeconds:  25.0,
			TrainsPerBore: 1,
		},
		Logger: zerolog.Nop(),
	})
}

func TestBuildLine(t *testing.T) {
	src := &fakeSource{sequences: map[string][]core.RouteSequence{
		"victoria": {seq("a", "b", "c", "d")},
	}}
	b := testBuilder(src)

	build, attempts, err := b.BuildLine(context.Background(), "victoria")
	require.NoError(t, err)
	assert.NotEmpty(t, attempts)

	require.Len(t, build.Branches, 1)
	bb := build.Branches[0]
	assert.Len(t, build.Stations, 4)
	require.Len(t, bb.StationU, 4)
	assert.Equal(t, 0.0, bb.StationU[0])
	assert.Equal(t, 1.0, bb.StationU[3])

	// victoria line heuristic depth everywhere, below ground
	for _, pos := range bb.Centre {
		assert.InDelta(t, -20.0, pos.Y, 1e-9)
	}

	// one train per bore, both bores
	require.Len(t, build.Trains, 2)
	assert.Equal(t, "victoria", build.Trains[0].LineID)
}

func TestBuildLineUnknown(t *testing.T) {
	b := testBuilder(&fakeSource{})

	_, _, err := b.BuildLine(context.Background(), "elizabeth")
	assert.Error(t, err)
}

func TestInterchangeSharesPosition(t *testing.T) {
	// the same station id served by two lines must land on identical
	// horizontal coordinates regardless of coordinate jitter upstream
	jittered := seq("x1", "shared", "x2")
	jittered.Stops[1].Lat += 0.0004
	jittered.Stops[1].Lon -= 0.0003

	src := &fakeSource{sequences: map[string][]core.RouteSequence{
		"victoria": {seq("v1", "shared", "v2")},
		"northern": {jittered},
	}}
	b := testBuilder(src)

	vb, _, err := b.BuildLine(context.Background(), "victoria")
	require.NoError(t, err)
	nb, _, err := b.BuildLine(context.Background(), "northern")
	require.NoError(t, err)

	vPos := vb.Branches[0].Centre[1]
	nPos := nb.Branches[0].Centre[1]
	assert.Equal(t, vPos.X, nPos.X)
	assert.Equal(t, vPos.Z, nPos.Z)
	// depths differ by line heuristic, positions stack vertically
	assert.NotEqual(t, vPos.Y, nPos.Y)
}

func TestBuildAllSummary(t *testing.T) {
	// only two lines have data; the other nine fail
	src := &fakeSource{sequences: map[string][]core.RouteSequence{
		"victoria": {seq("a", "b", "c")},
		"northern": {seq("d", "e", "f")},
	}}
	b := testBuilder(src)

	result := b.BuildAll(context.Background())
	require.NoError(t, result.Err())

	assert.Contains(t, result.Summary(), "loaded 2/11 lines")
	assert.Contains(t, result.Summary(), "failed:")
	assert.Contains(t, result.Summary(), "circle")

	stations, trains := result.Totals()
	assert.Equal(t, 6, stations)
	assert.Equal(t, 4, trains)
}

func TestBuildAllNoLines(t *testing.T) {
	b := testBuilder(&fakeSource{})

	result := b.BuildAll(context.Background())
	assert.ErrorIs(t, result.Err(), ErrNoLinesBuilt)
	assert.Equal(t, "loaded 0/11 lines; failed: "+
		"bakerloo, central, circle, district, hammersmith-city, jubilee, "+
		"metropolitan, northern, piccadilly, victoria, waterloo-city",
		result.Summary())
}

func TestBuildAllAsyncDeliversCompletedLines(t *testing.T) {
	src := &fakeSource{sequences: map[string][]core.RouteSequence{
		"victoria": {seq("a", "b", "c")},
	}}
	b := testBuilder(src)

	completed := queue.New[*LineBuild]()
	result := <-b.BuildAllAsync(context.Background(), completed)

	require.NoError(t, result.Err())
	builds := completed.Drain()
	require.Len(t, builds, 1)
	assert.Equal(t, "victoria", builds[0].Line.ID)
}

func TestSceneExport(t *testing.T) {
	src := &fakeSource{sequences: map[string][]core.RouteSequence{
		"victoria": {seq("a", "b", "c")},
	}}
	b := testBuilder(src)

	build, _, err := b.BuildLine(context.Background(), "victoria")
	require.NoError(t, err)

	scene := BuildScene([]*LineBuild{build})
	require.Len(t, scene.Lines, 1)
	assert.Equal(t, "#0098D4", scene.Lines[0].Colour)
	require.Len(t, scene.Lines[0].Branches, 1)
	assert.Len(t, scene.Lines[0].Branches[0].Stations, 3)
	assert.NotEmpty(t, scene.Lines[0].Branches[0].Left)

	path := filepath.Join(t.TempDir(), "export", "scene.json")
	require.NoError(t, WriteScene(scene, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Scene
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "victoria", decoded.Lines[0].ID)
}
