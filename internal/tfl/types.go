package tfl

import (
	"encoding/json"
	"fmt"

	"github.com/tube3d/engine/pkg/core"
)

// routeSequenceResponse mirrors the fields of the Unified API's
// Route/Sequence document that the pipeline consumes.
type routeSequenceResponse struct {
	LineID             string              `json:"lineId"`
	Direction          string              `json:"direction"`
	StopPointSequences []stopPointSequence `json:"stopPointSequences"`
}

type stopPointSequence struct {
	BranchID  int         `json:"branchId"`
	StopPoint []stopPoint `json:"stopPoint"`
}

type stopPoint struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// DecodeRouteSequences parses a raw route-sequence payload into one
// RouteSequence per stop point sequence, all tagged with the
// document's direction.
func DecodeRouteSequences(payload []byte) ([]core.RouteSequence, error) {
	var doc routeSequenceResponse
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode route sequence: %w", err)
	}

	out := make([]core.RouteSequence, 0, len(doc.StopPointSequences))
	for _, sps := range doc.StopPointSequences {
		seq := core.RouteSequence{
			Direction: doc.Direction,
			Stops:     make([]core.StopPoint, 0, len(sps.StopPoint)),
		}
		for _, sp := range sps.StopPoint {
			seq.Stops = append(seq.Stops, core.StopPoint{
				ID:   sp.ID,
				Name: sp.Name,
				Lat:  sp.Lat,
				Lon:  sp.Lon,
			})
		}
		out = append(out, seq)
	}
	return out, nil
}
