package network

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tube3d/engine/internal/curve"
	"github.com/tube3d/engine/pkg/core"
)

// boreSamples is the number of points each bore polyline is sampled
// at for the renderer export.
const boreSamples = 200

// Scene is the renderer-facing description of the built network.
type Scene struct {
	Lines []SceneLine `json:"lines"`
}

// SceneLine is one built line: identity plus per-branch geometry.
type SceneLine struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Colour   string        `json:"colour"`
	Branches []SceneBranch `json:"branches"`
}

// SceneBranch carries the two bore polylines and the stations along
// the branch.
type SceneBranch struct {
	Left     []core.Position3D `json:"left"`
	Right    []core.Position3D `json:"right"`
	Stations []SceneStation    `json:"stations"`
}

// SceneStation is a station placed on a branch.
type SceneStation struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	U        float64         `json:"u"`
	Depth    float64         `json:"depth"`
	Position core.Position3D `json:"position"`
}

// BuildScene flattens finished line builds into a renderable scene.
func BuildScene(builds []*LineBuild) *Scene {
	scene := &Scene{}
	for _, build := range builds {
		line := SceneLine{
			ID:     build.Line.ID,
			Name:   build.Line.Name,
			Colour: build.Line.Colour,
		}
		for _, bb := range build.Branches {
			sb := SceneBranch{
				Left:  samplePolyline(bb.Left),
				Right: samplePolyline(bb.Right),
			}
			for i, stop := range bb.Stops {
				sb.Stations = append(sb.Stations, SceneStation{
					ID:       stop.ID,
					Name:     stop.Name,
					U:        bb.StationU[i],
					Depth:    bb.Depths[i],
					Position: bb.Centre[i],
				})
			}
			line.Branches = append(line.Branches, sb)
		}
		scene.Lines = append(scene.Lines, line)
	}
	return scene
}

// WriteScene writes the scene JSON atomically: to a temp file first,
// then renamed over the target, so a tailing renderer never reads a
// half-written document.
func WriteScene(scene *Scene, path string) error {
	data, err := json.Marshal(scene)
	if err != nil {
		return fmt.Errorf("marshalling scene: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing scene: %w", err)
	}
	return os.Rename(tmp, path)
}

// samplePolyline walks a bore curve at even arc-length steps.
func samplePolyline(c *curve.Curve) []core.Position3D {
	if c.Length() == 0 {
		return []core.Position3D{c.PositionAt(0)}
	}
	out := make([]core.Position3D, boreSamples+1)
	for i := 0; i <= boreSamples; i++ {
		out[i] = c.PositionAt(float64(i) / float64(boreSamples))
	}
	return out
}
