package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/tube3d/engine/pkg/core"
)

// LineStringFromPositions builds an XYZ LineString from an ordered
// list of scene positions. Used at the storage and renderer boundary,
// where geometry travels as WKB. The scene's horizontal plane maps to
// WKB x/y and the vertical axis to WKB z.
func LineStringFromPositions(points []core.Position3D) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("linestring needs at least 2 points, got %d", len(points))
	}

	flat := make([]float64, 0, len(points)*3)
	for _, pt := range points {
		flat = append(flat, pt.X, pt.Z, pt.Y)
	}

	seq := geom.NewSequence(flat, geom.DimXYZ)
	return geom.NewLineString(seq), nil
}

// PointFromPosition builds an XYZ Point from a scene position.
func PointFromPosition(pt core.Position3D) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: pt.X, Y: pt.Z},
		Z:    pt.Y,
		Type: geom.DimXYZ,
	})
}
