// Package testutil provides fakes for exercising the multiplexer
// without real child processes.
package testutil

import (
	"fmt"
	"io"
	"sync"
)

// Resize records one resize call made against a FakeShell.
type Resize struct {
	Cols, Rows int
}

// FakeShell implements the process handle contract with scripted
// output and recorded input, so tests drive a session without a PTY.
type FakeShell struct {
	mu      sync.Mutex
	input   []string
	resizes []Resize
	closed  bool
	killed  bool

	output  chan []byte
	pending []byte
	done    chan struct{}
}

// NewFakeShell returns an open fake with room for scripted output.
func NewFakeShell() *FakeShell {
	return &FakeShell{
		output: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

// SendOutput queues data as child output for Read to return.
func (f *FakeShell) SendOutput(data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.output <- []byte(data)
}

// SendOutputf queues formatted child output.
func (f *FakeShell) SendOutputf(format string, args ...any) {
	f.SendOutput(fmt.Sprintf(format, args...))
}

// Read returns queued output, blocking until output arrives or the
// shell closes.
func (f *FakeShell) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		n := copy(p, f.pending)
		f.pending = f.pending[n:]
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()

	chunk, ok := <-f.output
	if !ok {
		return 0, io.EOF
	}
	n := copy(p, chunk)
	if n < len(chunk) {
		f.mu.Lock()
		f.pending = append(f.pending, chunk[n:]...)
		f.mu.Unlock()
	}
	return n, nil
}

// Write records input sent to the shell.
func (f *FakeShell) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, io.ErrClosedPipe
	}
	f.input = append(f.input, string(p))
	return len(p), nil
}

// GetInput returns everything written to the shell, concatenated.
func (f *FakeShell) GetInput() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all string
	for _, s := range f.input {
		all += s
	}
	return all
}

// GetInputHistory returns each Write as its own entry.
func (f *FakeShell) GetInputHistory() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.input...)
}

// ClearInput discards the recorded input.
func (f *FakeShell) ClearInput() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = nil
}

// Resize records the requested size.
func (f *FakeShell) Resize(cols, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.resizes = append(f.resizes, Resize{Cols: cols, Rows: rows})
	return nil
}

// GetResizes returns every recorded resize in order.
func (f *FakeShell) GetResizes() []Resize {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Resize(nil), f.resizes...)
}

// Kill marks the shell killed and ends its output stream.
func (f *FakeShell) Kill() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = true
	f.closeLocked()
	return nil
}

// WasKilled reports whether Kill was called.
func (f *FakeShell) WasKilled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killed
}

// Wait blocks until the shell is killed or closed.
func (f *FakeShell) Wait() error {
	<-f.done
	return nil
}

// Close ends the output stream. Safe to call more than once.
func (f *FakeShell) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
	return nil
}

func (f *FakeShell) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	close(f.output)
	close(f.done)
}

// IsClosed reports whether the shell has been closed.
func (f *FakeShell) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Pid returns a fake process ID of 0, which status sampling skips.
func (f *FakeShell) Pid() int { return 0 }
