package core

import "math"

// Route sequence directions as tagged by the transit API.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// StopPoint is a station reference as it appears in one directional
// route sequence. It is rebuilt from source route data on every load.
type StopPoint struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Valid reports whether the stop carries finite coordinates. Stops
// failing this check are filtered out before any geometry is built.
func (s StopPoint) Valid() bool {
	return s.ID != "" &&
		!math.IsNaN(s.Lat) && !math.IsInf(s.Lat, 0) &&
		!math.IsNaN(s.Lon) && !math.IsInf(s.Lon, 0)
}

// RouteSequence is one raw directional run of a line as delivered by
// the transit API. A line usually carries several of these (inbound,
// outbound, and one per branch).
type RouteSequence struct {
	Direction string      `json:"direction"`
	Stops     []StopPoint `json:"stops"`
}

// Branch is one continuous, direction-consistent path through a line.
// Invariant: Stops holds at least two valid, id-deduplicated entries.
type Branch struct {
	Stops []StopPoint `json:"stops"`
}

// DepthAnchor is a curated real-world depth measurement for a station,
// in metres below ground. Anchors are ground truth wherever present.
type DepthAnchor struct {
	StationID string
	Name      string
	Depth     float64
	Source    string
	Notes     string
}
