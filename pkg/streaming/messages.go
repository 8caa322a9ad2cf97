// Package streaming defines the message envelope written to the
// renderer stream file. The web renderer tails this stream to splice
// finished lines into the scene and to move trains between exports.
package streaming

import (
	"encoding/json"

	"github.com/tube3d/engine/pkg/core"
)

// Message type constants matching the renderer stream protocol.
const (
	TypeBuildStarted   = "build_started"
	TypeLineBuilt      = "line_built"
	TypeLineFailed     = "line_failed"
	TypeBuildComplete  = "build_complete"
	TypeTrainPositions = "train_positions"
	TypeStatus         = "status"
)

// Envelope wraps all messages written to the stream.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap marshals a payload into an Envelope of the given type.
func Wrap(msgType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// LineBuiltPayload announces one finished line build.
type LineBuiltPayload struct {
	LineID   string `json:"lineId"`
	Branches int    `json:"branches"`
	Stations int    `json:"stations"`
	Trains   int    `json:"trains"`
}

// LineFailedPayload records a line that could not be built.
type LineFailedPayload struct {
	LineID string `json:"lineId"`
	Error  string `json:"error"`
}

// TrainPositionsPayload carries one frame of live train positions.
type TrainPositionsPayload struct {
	SimTime float64              `json:"simTime"`
	Trains  []core.TrainSnapshot `json:"trains"`
}

// StatusPayload is the human-readable build/sim status line.
type StatusPayload struct {
	Summary string `json:"summary"`
}
