package terrain

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMeta = `{
	"minEasting": 490000,
	"maxEasting": 560000,
	"minNorthing": 155000,
	"maxNorthing": 205000,
	"pixelMetres": 50,
	"minElevation": 0,
	"maxElevation": 100
}`

// gradientPNG renders a 4x4 grid rising from 0 in the west to full
// scale in the east, constant north-south.
func gradientPNG(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(x * 65535 / 3)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func loadTestMap(t *testing.T) *Heightmap {
	t.Helper()
	h, err := Load(gradientPNG(t), strings.NewReader(testMeta))
	require.NoError(t, err)
	return h
}

func TestElevationAtGridCorners(t *testing.T) {
	h := loadTestMap(t)

	assert.InDelta(t, 0.0, h.ElevationAtGrid(490000, 205000), 0.01, "west edge")
	assert.InDelta(t, 100.0, h.ElevationAtGrid(560000, 205000), 0.01, "east edge")
	assert.InDelta(t, 100.0, h.ElevationAtGrid(560000, 155000), 0.01, "elevation constant north-south")
}

func TestElevationAtGridInterpolates(t *testing.T) {
	h := loadTestMap(t)

	// halfway across the grid sits halfway up the gradient
	mid := h.ElevationAtGrid(525000, 180000)
	assert.InDelta(t, 50.0, mid, 1.0)
}

func TestElevationAtGridClampsOutside(t *testing.T) {
	h := loadTestMap(t)

	assert.InDelta(t, 0.0, h.ElevationAtGrid(100000, 180000), 0.01)
	assert.InDelta(t, 100.0, h.ElevationAtGrid(900000, 180000), 0.01)
}

func TestElevationAtGeographic(t *testing.T) {
	h := loadTestMap(t)

	// central London lands inside the grid; the exact value depends on
	// the datum transform, so only the range is asserted
	elev := h.ElevationAt(51.5074, -0.1278)
	assert.GreaterOrEqual(t, elev, 0.0)
	assert.LessOrEqual(t, elev, 100.0)
}

func TestLoadRejectsBadInputs(t *testing.T) {
	_, err := Load(strings.NewReader("not a png"), strings.NewReader(testMeta))
	assert.Error(t, err)

	_, err = Load(gradientPNG(t), strings.NewReader(`{"minEasting": 5, "maxEasting": 5}`))
	assert.Error(t, err)

	// 8-bit greyscale is refused
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	_, err = Load(&buf, strings.NewReader(testMeta))
	assert.Error(t, err)
}
