package streaming

import (
	"encoding/json"
	"io"
	"sync"
)

// Writer serializes envelopes onto one stream. Every producer of a
// stream file shares a single Writer, so frames written from different
// goroutines land as whole lines and never interleave.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter wraps out. The caller keeps ownership of the underlying
// stream and closes it when done.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write marshals payload into an envelope of the given type and
// appends it to the stream as one line.
func (w *Writer) Write(msgType string, payload any) error {
	env, err := Wrap(msgType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.out.Write(append(data, '\n'))
	return err
}
