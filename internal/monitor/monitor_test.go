package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tube3d/engine/internal/sim"
	"github.com/tube3d/engine/pkg/streaming"
)

func TestMonitorWritesStreamAndStatus(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status.json")
	streamPath := filepath.Join(dir, "stream.jsonl")

	simulator := sim.NewSimulator(1.0, zerolog.Nop())

	streamFile, err := os.OpenFile(streamPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer streamFile.Close()

	svc := NewService(Dependencies{
		Sim:        simulator,
		StatusPath: statusPath,
		Stream:     streaming.NewWriter(streamFile),
		Interval:   10 * time.Millisecond,
		Logger:     zerolog.Nop(),
	})

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	// second Start is a no-op
	require.NoError(t, svc.Start())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(streamPath)
		return err == nil && len(data) > 0
	}, 2*time.Second, 10*time.Millisecond)

	svc.Stop()
	require.Eventually(t, func() bool { return !svc.IsRunning() },
		2*time.Second, 10*time.Millisecond)

	// stream lines are train_positions envelopes
	data, err := os.ReadFile(streamPath)
	require.NoError(t, err)
	var env streaming.Envelope
	firstLine := data[:len(data)]
	for i, b := range data {
		if b == '\n' {
			firstLine = data[:i]
			break
		}
	}
	require.NoError(t, json.Unmarshal(firstLine, &env))
	assert.Equal(t, streaming.TypeTrainPositions, env.Type)

	status, err := os.ReadFile(statusPath)
	require.NoError(t, err)
	var payload streaming.StatusPayload
	require.NoError(t, json.Unmarshal(status, &payload))
	assert.Contains(t, payload.Summary, "trains=0")
}
