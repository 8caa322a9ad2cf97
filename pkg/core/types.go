// Package core holds the shared domain types for the network engine.
// It has no infrastructure dependencies so that geometry, simulation
// and storage packages can all depend on it freely.
package core

import "math"

// Position3D represents a point in scene space, in metres.
// Y is vertical: 0 is ground level, negative values are underground.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlanPosition is a horizontal slot in the projected plane. Stations
// share one PlanPosition across every line that serves them.
type PlanPosition struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Sub returns p - q.
func (p Position3D) Sub(q Position3D) Position3D {
	return Position3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Add returns p + q.
func (p Position3D) Add(q Position3D) Position3D {
	return Position3D{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Scale returns p scaled by s.
func (p Position3D) Scale(s float64) Position3D {
	return Position3D{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}

// Length returns the Euclidean norm of p.
func (p Position3D) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Position3D) DistanceTo(q Position3D) float64 {
	return p.Sub(q).Length()
}
