package mux

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dodorz/vtmux/internal/config"
	"github.com/dodorz/vtmux/internal/input"
)

// Renderer paints the active session to the physical terminal.
type Renderer interface {
	Render(active *Session, sessions []*Session)
}

// Multiplexer owns all sessions and runs the event loop that routes
// input to the active session and drains output from every session.
type Multiplexer struct {
	sessions []*Session
	active   int

	cols, rows int
	spawn      SpawnFunc
	leader     config.LeaderKey
	renderer   Renderer

	// prefixArmed is set after the leader chord until the next key.
	prefixArmed bool
	quit        bool

	exitCh chan uuid.UUID

	// cleanup restores the physical terminal before a forced exit.
	cleanup func()

	shutdownTimeout time.Duration

	// exit replaces os.Exit in tests of the shutdown timeout path.
	exit func(int)
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithSpawner replaces the process spawner.
func WithSpawner(spawn SpawnFunc) Option {
	return func(m *Multiplexer) { m.spawn = spawn }
}

// WithRenderer installs the output renderer.
func WithRenderer(r Renderer) Option {
	return func(m *Multiplexer) { m.renderer = r }
}

// WithCleanup registers a function run right before the multiplexer
// force-exits the process, so the caller can put the terminal back.
func WithCleanup(f func()) Option {
	return func(m *Multiplexer) { m.cleanup = f }
}

// New builds a multiplexer with one session per config entry, sized to
// cols by rows. Sessions without a command run the preferred shell.
func New(cfg *config.UserConfig, cols, rows int, opts ...Option) (*Multiplexer, error) {
	if len(cfg.Sessions) == 0 {
		return nil, fmt.Errorf("no sessions configured")
	}
	leader, err := config.ParseLeaderKey(cfg.General.LeaderKey)
	if err != nil {
		return nil, err
	}

	m := &Multiplexer{
		cols:            max(cols, config.MinCols),
		rows:            max(rows, config.MinRows),
		spawn:           Spawn,
		leader:          leader,
		exitCh:          make(chan uuid.UUID, len(cfg.Sessions)),
		shutdownTimeout: config.ShutdownTimeout,
		exit:            os.Exit,
	}
	for _, opt := range opts {
		opt(m)
	}

	shell := DetectShell(cfg.General.PreferredShell)
	for _, sc := range cfg.Sessions {
		if sc.Command == "" {
			sc.Command = shell
		}
		m.sessions = append(m.sessions, newSession(sc, m.cols, m.rows))
	}
	return m, nil
}

// Sessions returns all sessions in configuration order.
func (m *Multiplexer) Sessions() []*Session { return m.sessions }

// Active returns the session currently routed to the physical
// terminal.
func (m *Multiplexer) Active() *Session { return m.sessions[m.active] }

// ActiveIndex returns the active session's position.
func (m *Multiplexer) ActiveIndex() int { return m.active }

// StartAll spawns every configured session's child. Any spawn failure
// is fatal and names the offending command.
func (m *Multiplexer) StartAll() error {
	for _, s := range m.sessions {
		if err := s.start(m.spawn, m.cols, m.rows, m.exitCh); err != nil {
			return fmt.Errorf("starting %q: %w", s.Command, err)
		}
		log.Debug("session started", "name", s.Name, "command", s.Command)
	}
	return nil
}

// StartSession (re)starts a single session after startup. Unlike
// StartAll, failure is returned without being fatal to the others.
func (m *Multiplexer) StartSession(i int) error {
	if i < 0 || i >= len(m.sessions) {
		return fmt.Errorf("no session %d", i)
	}
	s := m.sessions[i]
	if s.Running {
		return nil
	}
	old := s
	fresh := newSession(config.SessionConfig{
		Name:    old.Name,
		Command: old.Command,
		Args:    old.Args,
	}, m.cols, m.rows)
	if err := fresh.start(m.spawn, m.cols, m.rows, m.exitCh); err != nil {
		return fmt.Errorf("starting %q: %w", fresh.Command, err)
	}
	m.sessions[i] = fresh
	return nil
}

// PollAll drains pending output from every session, active or not, so
// background screens stay current. The return reports whether the
// active session's screen changed.
func (m *Multiplexer) PollAll() bool {
	activeChanged := false
	for i, s := range m.sessions {
		if s.Drain() && i == m.active {
			activeChanged = true
		}
	}
	return activeChanged
}

// SwitchTo makes session i active. The new active child is resized to
// a throwaway size and back so it repaints its full screen; no other
// session is touched.
func (m *Multiplexer) SwitchTo(i int) error {
	if i < 0 || i >= len(m.sessions) {
		return fmt.Errorf("no session %d", i)
	}
	m.active = i
	s := m.sessions[i]
	if s.Running && s.Handle != nil {
		_ = s.Handle.Resize(config.RepaintCols, config.RepaintRows)
		_ = s.Handle.Resize(m.cols, m.rows)
	}
	m.render()
	return nil
}

// Next activates the session after the current one, wrapping around.
func (m *Multiplexer) Next() { _ = m.SwitchTo((m.active + 1) % len(m.sessions)) }

// Prev activates the session before the current one, wrapping around.
func (m *Multiplexer) Prev() {
	_ = m.SwitchTo((m.active - 1 + len(m.sessions)) % len(m.sessions))
}

// Resize propagates a new physical terminal size to every session.
func (m *Multiplexer) Resize(cols, rows int) {
	m.cols = max(cols, config.MinCols)
	m.rows = max(rows, config.MinRows)
	for _, s := range m.sessions {
		s.resize(m.cols, m.rows)
	}
	m.render()
}

func (m *Multiplexer) render() {
	if m.renderer != nil {
		m.renderer.Render(m.Active(), m.sessions)
	}
}

// isLeader reports whether ev is the leader chord.
func (m *Multiplexer) isLeader(ev input.KeyEvent) bool {
	return ev.Key.Sym == input.SymNone &&
		ev.Key.Ch == m.leader.Ch &&
		ev.Mod == (input.Mod{Alt: m.leader.Alt, Ctrl: m.leader.Ctrl})
}

// HandleEvent routes one input event. It returns false when the
// multiplexer should shut down.
func (m *Multiplexer) HandleEvent(ev input.Event) bool {
	switch e := ev.(type) {
	case input.ResizeEvent:
		m.Resize(e.Cols, e.Rows)
		return true
	case input.ErrorEvent:
		log.Error("input source failed", "err", e.Err)
		return false
	case input.KeyEvent:
		return m.handleKey(e)
	default:
		// Mouse, focus and paste events pass through to the child.
		m.forward(ev)
		return true
	}
}

func (m *Multiplexer) handleKey(ev input.KeyEvent) bool {
	if m.prefixArmed {
		m.prefixArmed = false
		return m.handlePrefixed(ev)
	}
	if m.isLeader(ev) {
		m.prefixArmed = true
		return true
	}
	m.forward(ev)
	return true
}

// handlePrefixed executes the command key following the leader chord.
// An unbound key cancels the prefix; pressing the leader twice sends
// the chord itself to the child.
func (m *Multiplexer) handlePrefixed(ev input.KeyEvent) bool {
	if m.isLeader(ev) {
		m.forward(ev)
		return true
	}
	if ev.Key.Sym != input.SymNone || ev.Mod != (input.Mod{}) {
		return true
	}
	switch ch := ev.Key.Ch; {
	case ch >= '1' && ch <= '9':
		_ = m.SwitchTo(int(ch - '1'))
	case ch == 'n':
		m.Next()
	case ch == 'p':
		m.Prev()
	case ch == 'q':
		return false
	}
	return true
}

// forward encodes ev and writes it to the active session's child.
func (m *Multiplexer) forward(ev input.Event) {
	b := input.Generate(ev)
	if b == nil {
		b = rawKeyBytes(ev)
	}
	if b == nil {
		return
	}
	if err := m.Active().Write(b); err != nil {
		log.Debug("write to child failed", "session", m.Active().Name, "err", err)
	}
}

// rawKeyBytes encodes the keys the generator declines: those whose
// wire form is a bare control byte.
func rawKeyBytes(ev input.Event) []byte {
	key, ok := ev.(input.KeyEvent)
	if !ok {
		return nil
	}
	var b []byte
	switch key.Key.Sym {
	case input.SymEnter:
		b = []byte{'\r'}
	case input.SymTab:
		b = []byte{'\t'}
	case input.SymBackspace:
		b = []byte{0x7f}
	case input.SymEscape:
		b = []byte{0x1b}
	case input.SymNone:
		ch := key.Key.Ch
		switch {
		case key.Mod.Ctrl && ch >= 'a' && ch <= 'z':
			b = []byte{byte(ch - 'a' + 1)}
		case key.Mod.Ctrl && ch == ' ':
			b = []byte{0}
		case !key.Mod.Ctrl:
			b = []byte(string(ch))
		default:
			return nil
		}
	default:
		return nil
	}
	if key.Mod.Alt {
		b = append([]byte{0x1b}, b...)
	}
	return b
}

// Run is the multiplexer's reactor: it blocks on whichever of the
// output poll timer, the status refresh timer or the input channel is
// ready first, handles it and re-enters.
func (m *Multiplexer) Run(ctx context.Context, events <-chan input.Event) error {
	pollTick := time.NewTicker(config.OutputPollInterval)
	defer pollTick.Stop()
	statusTick := time.NewTicker(config.StatusRefreshInterval)
	defer statusTick.Stop()

	m.render()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("input stream closed")
			}
			if !m.HandleEvent(ev) {
				return nil
			}

		case <-pollTick.C:
			if m.PollAll() {
				m.render()
			}

		case <-statusTick.C:
			m.refreshStats()
			m.render()

		case id := <-m.exitCh:
			m.markExited(id)
		}
	}
}

// markExited flags the session whose child ended. Other sessions are
// unaffected; the stop becomes visible when the session is switched
// to.
func (m *Multiplexer) markExited(id uuid.UUID) {
	for i, s := range m.sessions {
		if s.ID == id {
			s.Drain()
			s.Running = false
			log.Info("session exited", "name", s.Name)
			if i == m.active {
				m.render()
			}
			return
		}
	}
}

// Shutdown kills every child and releases their terminals. Teardown is
// bounded: past the timeout the process exits immediately rather than
// risk hanging on an unkillable child.
func (m *Multiplexer) Shutdown() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, s := range m.sessions {
			if !s.Running || s.Handle == nil {
				continue
			}
			if err := s.Handle.Kill(); err != nil {
				log.Debug("kill failed", "session", s.Name, "err", err)
			}
			_ = s.Handle.Wait()
			_ = s.Handle.Close()
			s.Running = false
		}
	}()

	select {
	case <-done:
	case <-time.After(m.shutdownTimeout):
		log.Error("shutdown timed out, exiting")
		if m.cleanup != nil {
			m.cleanup()
		}
		m.exit(1)
	}
}
