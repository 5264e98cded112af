// Package mux multiplexes any number of terminal sessions onto one
// physical terminal. Every session owns a child process and a virtual
// screen that stays current even while the session is in the
// background; exactly one session is active and painted.
package mux

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dodorz/vtmux/internal/config"
	"github.com/dodorz/vtmux/internal/vt"
)

// Stats is a point-in-time resource sample of a session's child.
type Stats struct {
	CPUPercent float64
	MemoryRSS  uint64
}

// Session is one child process plus the virtual screen decoding its
// output.
type Session struct {
	ID      uuid.UUID
	Name    string
	Command string
	Args    []string

	Screen  *vt.Screen
	Decoder *vt.Decoder
	Handle  ProcessHandle

	Running bool
	Stats   Stats

	// output carries raw chunks from the reader goroutine to the
	// multiplexer's poll loop, so background sessions never block on
	// a consumer.
	output chan []byte
}

func newSession(cfg config.SessionConfig, cols, rows int) *Session {
	scr := vt.NewScreen(cols, rows)
	return &Session{
		ID:      uuid.New(),
		Name:    cfg.Name,
		Command: cfg.Command,
		Args:    cfg.Args,
		Screen:  scr,
		Decoder: vt.NewDecoder(scr),
		output:  make(chan []byte, config.OutputChanBuffer),
	}
}

// start spawns the child and begins pumping its output. exited is
// notified with the session ID when the child's output stream ends.
func (s *Session) start(spawn SpawnFunc, cols, rows int, exited chan<- uuid.UUID) error {
	handle, err := spawn(s.Command, s.Args, cols, rows)
	if err != nil {
		return err
	}
	s.Handle = handle
	s.Running = true
	// Child responses to queries like CSI 6 n go back down its stdin.
	s.Decoder.SetResponder(handle)

	go s.pump(exited)
	return nil
}

// pump reads child output into the session's buffer until the stream
// ends. It runs for the session's whole lifetime.
func (s *Session) pump(exited chan<- uuid.UUID) {
	buf := make([]byte, config.OutputReadSize)
	for {
		n, err := s.Handle.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.output <- chunk
		}
		if err != nil {
			log.Debug("session output ended", "session", s.Name, "err", err)
			close(s.output)
			exited <- s.ID
			return
		}
	}
}

// Drain decodes all buffered output chunks. It never blocks; a
// background session's pending output is consumed in one call. The
// return reports whether any output was applied.
func (s *Session) Drain() bool {
	drained := false
	for {
		select {
		case chunk, ok := <-s.output:
			if !ok {
				return drained
			}
			s.Decoder.Feed(chunk)
			drained = true
		default:
			return drained
		}
	}
}

// Write forwards input bytes to the child's stdin.
func (s *Session) Write(p []byte) error {
	if !s.Running || s.Handle == nil {
		return nil
	}
	_, err := s.Handle.Write(p)
	return err
}

// resize adjusts both the virtual screen and the child's PTY.
func (s *Session) resize(cols, rows int) {
	s.Screen.Resize(cols, rows)
	if s.Running && s.Handle != nil {
		if err := s.Handle.Resize(cols, rows); err != nil {
			log.Debug("pty resize failed", "session", s.Name, "err", err)
		}
	}
}
