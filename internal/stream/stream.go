// Package stream reassembles server-sent "data:" lines from a response body
// that arrives in arbitrary chunks. Partial lines are buffered across chunk
// boundaries, and the "[ERROR]" sentinel ends accumulation.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	// DataPrefix marks a payload line. A single space after the colon is
	// optional and stripped.
	DataPrefix = "data:"
	// ErrorSentinel at the start of a payload reports a server-side failure.
	ErrorSentinel = "[ERROR]"
)

const readBufferSize = 4096

// SentinelError is returned once the stream has delivered the error sentinel.
type SentinelError struct {
	Message string
}

func (e *SentinelError) Error() string {
	if e.Message == "" {
		return "stream reported an error"
	}
	return "stream reported an error: " + e.Message
}

// IsSentinel reports whether err carries a stream error sentinel.
func IsSentinel(err error) bool {
	var se *SentinelError
	return errors.As(err, &se)
}

// UpdateFunc receives the accumulated text after every chunk.
type UpdateFunc func(text string)

// Reassembler accumulates the payloads of one streamed response. It is safe
// for one writer and any number of readers.
type Reassembler struct {
	mu       sync.Mutex
	text     strings.Builder
	pending  string
	err      error
	onUpdate UpdateFunc
}

// NewReassembler creates a Reassembler. onUpdate may be nil.
func NewReassembler(onUpdate UpdateFunc) *Reassembler {
	return &Reassembler{onUpdate: onUpdate}
}

// Feed processes one chunk. Complete lines are consumed; a trailing partial
// line waits for the next chunk. After the sentinel has been seen, Feed
// ignores input and returns the sentinel error.
func (r *Reassembler) Feed(chunk []byte) error {
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return err
	}

	lines := strings.Split(r.pending+string(chunk), "\n")
	r.pending = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		r.processLine(line)
		if r.err != nil {
			r.pending = ""
			break
		}
	}
	text, err := r.text.String(), r.err
	r.mu.Unlock()

	r.notify(text)
	return err
}

// Close flushes a buffered partial line as the final line of the stream.
func (r *Reassembler) Close() error {
	r.mu.Lock()
	if r.err == nil && r.pending != "" {
		r.processLine(r.pending)
	}
	r.pending = ""
	text, err := r.text.String(), r.err
	r.mu.Unlock()

	r.notify(text)
	return err
}

// processLine must be called with mu held.
func (r *Reassembler) processLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, DataPrefix) {
		return
	}
	payload := strings.TrimPrefix(line[len(DataPrefix):], " ")
	if strings.HasPrefix(payload, ErrorSentinel) {
		r.err = &SentinelError{Message: strings.TrimSpace(payload[len(ErrorSentinel):])}
		return
	}
	r.text.WriteString(payload)
}

func (r *Reassembler) notify(text string) {
	if r.onUpdate != nil {
		r.onUpdate(text)
	}
}

// Text returns the payloads accumulated so far.
func (r *Reassembler) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text.String()
}

// Err returns the sentinel error, if one has been received.
func (r *Reassembler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Reset clears all state for a new request.
func (r *Reassembler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text.Reset()
	r.pending = ""
	r.err = nil
}

// Consume reads src until EOF, feeding every chunk. It returns the accumulated
// text together with the sentinel error, a read error, or ctx.Err() when the
// context is cancelled first.
func (r *Reassembler) Consume(ctx context.Context, src io.Reader) (string, error) {
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return r.Text(), err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if err := r.Feed(buf[:n]); err != nil {
				return r.Text(), err
			}
		}

		if errors.Is(readErr, io.EOF) {
			err := r.Close()
			return r.Text(), err
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.Text(), ctxErr
			}
			return r.Text(), fmt.Errorf("reading stream: %w", readErr)
		}
	}
}

// Collect reassembles an entire stream held in memory.
func Collect(chunks ...string) (string, error) {
	r := NewReassembler(nil)
	for _, c := range chunks {
		if err := r.Feed([]byte(c)); err != nil {
			return r.Text(), err
		}
	}
	err := r.Close()
	return r.Text(), err
}
