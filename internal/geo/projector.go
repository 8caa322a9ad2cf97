// Package geo converts geographic coordinates into the local scene
// coordinate system used by the renderer.
package geo

import (
	"math"

	"github.com/tube3d/engine/pkg/core"
)

// metresPerDegreeLat is the metre length of one degree of latitude.
// Longitude degrees shrink with the cosine of latitude and are scaled
// at the projection origin.
const metresPerDegreeLat = 111320.0

// Projector maps (lat, lon) onto a planar (x, z) grid centred on a
// fixed origin. This is a local tangent-plane approximation, not a
// geodesic projection; over the Greater London extent the distortion
// is negligible.
type Projector struct {
	originLat       float64
	originLon       float64
	horizontalScale float64
	verticalScale   float64

	metresPerDegreeLon float64
}

// NewProjector creates a projector centred on the given origin.
// horizontalScale and verticalScale exaggerate lateral spread and
// depth independently; 1.0 means true metres.
func NewProjector(originLat, originLon, horizontalScale, verticalScale float64) *Projector {
	return &Projector{
		originLat:          originLat,
		originLon:          originLon,
		horizontalScale:    horizontalScale,
		verticalScale:      verticalScale,
		metresPerDegreeLon: metresPerDegreeLat * math.Cos(originLat*math.Pi/180),
	}
}

// Project converts a geographic coordinate to scene (x, z) metres.
// The z axis is inverted so that increasing latitude moves north,
// toward decreasing z.
func (p *Projector) Project(lat, lon float64) core.PlanPosition {
	return core.PlanPosition{
		X: (lon - p.originLon) * p.metresPerDegreeLon * p.horizontalScale,
		Z: -(lat - p.originLat) * metresPerDegreeLat * p.horizontalScale,
	}
}

// DepthToY converts a depth in metres below ground to a scene y value,
// applying the vertical exaggeration.
func (p *Projector) DepthToY(depthMetres float64) float64 {
	return -depthMetres * p.verticalScale
}

// ElevationToY converts a ground elevation in metres above sea level
// to a scene y offset, applying the vertical exaggeration.
func (p *Projector) ElevationToY(elevationMetres float64) float64 {
	return elevationMetres * p.verticalScale
}

// Place combines a horizontal slot and a depth into a full scene
// position.
func (p *Projector) Place(plan core.PlanPosition, depthMetres float64) core.Position3D {
	return core.Position3D{X: plan.X, Y: p.DepthToY(depthMetres), Z: plan.Z}
}

// IsLondonCoordinate reports whether a coordinate falls inside the
// Greater London bounding box (with margin). This catches (0,0) and
// other corrupt values in upstream route data.
func IsLondonCoordinate(lat, lon float64) bool {
	return lat > 51.2 && lat < 51.8 && lon > -0.7 && lon < 0.4
}
