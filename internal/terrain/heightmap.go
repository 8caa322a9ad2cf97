// Package terrain samples ground elevation above the network from a
// pre-rendered heightmap. The heightmap is a 16-bit greyscale PNG on
// the British National Grid with a JSON sidecar describing its bounds
// and elevation range.
package terrain

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/wroge/wgs84"
)

// Metadata is the heightmap sidecar: grid bounds in BNG metres
// (EPSG:27700) and the elevation range the grey values span.
type Metadata struct {
	MinEasting   float64 `json:"minEasting"`
	MaxEasting   float64 `json:"maxEasting"`
	MinNorthing  float64 `json:"minNorthing"`
	MaxNorthing  float64 `json:"maxNorthing"`
	PixelMetres  float64 `json:"pixelMetres"`
	MinElevation float64 `json:"minElevation"`
	MaxElevation float64 `json:"maxElevation"`
}

// Heightmap samples elevations. Queries outside the grid clamp to the
// border pixel.
type Heightmap struct {
	img       *image.Gray16
	meta      Metadata
	transform func(lon, lat, h float64) (east, north, height float64)
}

// Load reads the PNG and metadata from the given readers.
func Load(pngReader, metaReader io.Reader) (*Heightmap, error) {
	var meta Metadata
	if err := json.NewDecoder(metaReader).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding heightmap metadata: %w", err)
	}
	if meta.MaxEasting <= meta.MinEasting || meta.MaxNorthing <= meta.MinNorthing {
		return nil, fmt.Errorf("heightmap metadata has degenerate bounds")
	}

	decoded, err := png.Decode(pngReader)
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap png: %w", err)
	}
	gray, ok := decoded.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("heightmap must be 16-bit greyscale, got %T", decoded)
	}

	epsg := wgs84.EPSG()
	return &Heightmap{
		img:       gray,
		meta:      meta,
		transform: epsg.Transform(4326, 27700),
	}, nil
}

// LoadFiles reads the heightmap pair from disk.
func LoadFiles(pngPath, metaPath string) (*Heightmap, error) {
	pngFile, err := os.Open(pngPath)
	if err != nil {
		return nil, fmt.Errorf("opening heightmap png: %w", err)
	}
	defer pngFile.Close()

	metaFile, err := os.Open(metaPath)
	if err != nil {
		return nil, fmt.Errorf("opening heightmap metadata: %w", err)
	}
	defer metaFile.Close()

	return Load(pngFile, metaFile)
}

// ElevationAt returns the ground elevation in metres at a geographic
// coordinate.
func (h *Heightmap) ElevationAt(lat, lon float64) float64 {
	east, north, _ := h.transform(lon, lat, 0)
	return h.ElevationAtGrid(east, north)
}

// ElevationAtGrid returns the bilinear-interpolated elevation at a
// BNG easting/northing.
func (h *Heightmap) ElevationAtGrid(east, north float64) float64 {
	bounds := h.img.Bounds()
	w := float64(bounds.Dx())
	ht := float64(bounds.Dy())

	// fractional pixel coordinates; row 0 is the northern edge
	fx := (east - h.meta.MinEasting) / (h.meta.MaxEasting - h.meta.MinEasting) * (w - 1)
	fy := (h.meta.MaxNorthing - north) / (h.meta.MaxNorthing - h.meta.MinNorthing) * (ht - 1)
	fx = clampf(fx, 0, w-1)
	fy = clampf(fy, 0, ht-1)

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := min(x0+1, bounds.Dx()-1)
	y1 := min(y0+1, bounds.Dy()-1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	v00 := h.pixel(x0, y0)
	v10 := h.pixel(x1, y0)
	v01 := h.pixel(x0, y1)
	v11 := h.pixel(x1, y1)

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

// pixel converts a grey value to metres over the metadata's elevation
// range.
func (h *Heightmap) pixel(x, y int) float64 {
	v := h.img.Gray16At(h.img.Bounds().Min.X+x, h.img.Bounds().Min.Y+y).Y
	frac := float64(v) / 65535.0
	return h.meta.MinElevation + frac*(h.meta.MaxElevation-h.meta.MinElevation)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
