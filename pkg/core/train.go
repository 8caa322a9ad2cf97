package core

// TrainDirection is the direction of travel along a route curve's
// normalized parameter: +1 advances u, -1 retreats it.
type TrainDirection int

const (
	DirForward TrainDirection = 1
	DirReverse TrainDirection = -1
)

// TrainSnapshot is a renderer-facing view of one train at an instant.
type TrainSnapshot struct {
	LineID   string     `json:"lineId"`
	Colour   string     `json:"colour"`
	Branch   int        `json:"branch"`
	Bore     string     `json:"bore"` // "left" or "right"
	U        float64    `json:"u"`
	Dwelling bool       `json:"dwelling"`
	Position Position3D `json:"position"`
}
