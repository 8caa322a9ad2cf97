// Package curve builds smooth, arc-length-parameterized track
// geometry from station control points. A route is a Catmull-Rom
// spline through its stations, so the track passes exactly through
// every platform rather than merely near it.
package curve

import (
	"sort"

	"github.com/tube3d/engine/pkg/core"
)

// samplesPerSegment controls the density of the arc-length table. The
// spline is evaluated at fixed parameter steps and reparameterized by
// cumulative chord length, so u advances at constant speed along the
// track regardless of how unevenly the control points are spaced.
const samplesPerSegment = 32

// Curve is an immutable arc-length-parameterized path through a fixed
// set of control points.
type Curve struct {
	controls []core.Position3D
	samples  []core.Position3D
	cum      []float64
	length   float64
}

// New builds a curve through the given control points in order. A
// single point (or coincident points) yields a degenerate zero-length
// curve that always evaluates to its first point.
func New(controls []core.Position3D) *Curve {
	c := &Curve{controls: append([]core.Position3D(nil), controls...)}
	c.sample()
	return c
}

func (c *Curve) sample() {
	if len(c.controls) == 0 {
		return
	}
	if len(c.controls) == 1 {
		c.samples = []core.Position3D{c.controls[0]}
		c.cum = []float64{0}
		return
	}

	for seg := 0; seg < len(c.controls)-1; seg++ {
		p0 := c.control(seg - 1)
		p1 := c.control(seg)
		p2 := c.control(seg + 1)
		p3 := c.control(seg + 2)

		for s := 0; s < samplesPerSegment; s++ {
			t := float64(s) / float64(samplesPerSegment)
			c.samples = append(c.samples, catmullRom(p0, p1, p2, p3, t))
		}
	}
	c.samples = append(c.samples, c.controls[len(c.controls)-1])

	c.cum = make([]float64, len(c.samples))
	for i := 1; i < len(c.samples); i++ {
		c.cum[i] = c.cum[i-1] + c.samples[i].DistanceTo(c.samples[i-1])
	}
	c.length = c.cum[len(c.cum)-1]
}

// control clamps out-of-range indices to the endpoints, which pins the
// spline's ends to the first and last station.
func (c *Curve) control(i int) core.Position3D {
	if i < 0 {
		return c.controls[0]
	}
	if i >= len(c.controls) {
		return c.controls[len(c.controls)-1]
	}
	return c.controls[i]
}

// Length returns the total arc length of the curve in world units.
func (c *Curve) Length() float64 {
	return c.length
}

// PositionAt evaluates the curve at normalized arc length u in [0, 1].
// Values outside the range are clamped.
func (c *Curve) PositionAt(u float64) core.Position3D {
	if len(c.samples) == 0 {
		return core.Position3D{}
	}
	if c.length == 0 || u <= 0 {
		return c.samples[0]
	}
	if u >= 1 {
		return c.samples[len(c.samples)-1]
	}

	target := u * c.length
	i := sort.SearchFloat64s(c.cum, target)
	if i == 0 {
		return c.samples[0]
	}

	span := c.cum[i] - c.cum[i-1]
	if span == 0 {
		return c.samples[i]
	}
	frac := (target - c.cum[i-1]) / span
	return lerp(c.samples[i-1], c.samples[i], frac)
}

// TangentAt returns the unit direction of travel at u, by central
// difference over the sample table. Degenerate curves return a zero
// vector.
func (c *Curve) TangentAt(u float64) core.Position3D {
	if c.length == 0 || len(c.samples) < 2 {
		return core.Position3D{}
	}

	const h = 1e-3
	a := c.PositionAt(clamp01(u - h))
	b := c.PositionAt(clamp01(u + h))
	d := b.Sub(a)
	n := d.Length()
	if n == 0 {
		return core.Position3D{}
	}
	return d.Scale(1 / n)
}

func catmullRom(p0, p1, p2, p3 core.Position3D, t float64) core.Position3D {
	t2 := t * t
	t3 := t2 * t
	return core.Position3D{
		X: 0.5 * (2*p1.X + (p2.X-p0.X)*t + (2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 + (3*p1.X-p0.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * (2*p1.Y + (p2.Y-p0.Y)*t + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 + (3*p1.Y-p0.Y-3*p2.Y+p3.Y)*t3),
		Z: 0.5 * (2*p1.Z + (p2.Z-p0.Z)*t + (2*p0.Z-5*p1.Z+4*p2.Z-p3.Z)*t2 + (3*p1.Z-p0.Z-3*p2.Z+p3.Z)*t3),
	}
}

func lerp(a, b core.Position3D, t float64) core.Position3D {
	return a.Add(b.Sub(a).Scale(t))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
