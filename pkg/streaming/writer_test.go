package streaming

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer lets concurrent writers share one bytes.Buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestWriterWritesWholeLines(t *testing.T) {
	var buf lockedBuffer
	w := NewWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = w.Write(TypeStatus, StatusPayload{Summary: "network build started"})
			}
		}()
	}
	wg.Wait()

	lines := 0
	scanner := bufio.NewScanner(&buf.buf)
	for scanner.Scan() {
		var env Envelope
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &env),
			"every stream line must be a complete envelope")
		assert.Equal(t, TypeStatus, env.Type)
		lines++
	}
	assert.Equal(t, 8*25, lines)
}

func TestWriterRejectsUnmarshalablePayload(t *testing.T) {
	var buf lockedBuffer
	w := NewWriter(&buf)

	err := w.Write(TypeStatus, func() {})
	assert.Error(t, err)
	assert.Zero(t, buf.buf.Len())
}
