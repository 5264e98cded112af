package mux

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dodorz/vtmux/internal/config"
	"github.com/dodorz/vtmux/internal/input"
	"github.com/dodorz/vtmux/internal/testutil"
)

func testConfig() *config.UserConfig {
	return &config.UserConfig{
		General: config.GeneralConfig{LeaderKey: "ctrl+b"},
		Sessions: []config.SessionConfig{
			{Name: "one", Command: "cmd-one"},
			{Name: "two", Command: "cmd-two"},
		},
	}
}

// newTestMux builds a started multiplexer whose sessions run fake
// shells, returned in session order.
func newTestMux(t *testing.T) (*Multiplexer, []*testutil.FakeShell) {
	t.Helper()
	var shells []*testutil.FakeShell
	spawner := func(command string, args []string, cols, rows int) (ProcessHandle, error) {
		sh := testutil.NewFakeShell()
		shells = append(shells, sh)
		return sh, nil
	}
	m, err := New(testConfig(), 80, 24, WithSpawner(spawner))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	return m, shells
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func key(ch rune) input.Event {
	return input.KeyEvent{Key: input.Key{Ch: ch}}
}

func leader() input.Event {
	return input.KeyEvent{Key: input.Key{Ch: 'b'}, Mod: input.Mod{Ctrl: true}}
}

func TestSwitchToRepaintsOnlyTarget(t *testing.T) {
	m, shells := newTestMux(t)
	defer m.Shutdown()

	if err := m.SwitchTo(1); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}

	got := shells[1].GetResizes()
	want := []testutil.Resize{
		{Cols: config.RepaintCols, Rows: config.RepaintRows},
		{Cols: 80, Rows: 24},
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("session 1 resizes = %v, want %v", got, want)
	}
	if n := len(shells[0].GetResizes()); n != 0 {
		t.Errorf("session 0 got %d resize calls, want 0", n)
	}
}

func TestStartAllFailsFastWithCommandName(t *testing.T) {
	spawner := func(command string, args []string, cols, rows int) (ProcessHandle, error) {
		if command == "cmd-two" {
			return nil, context.DeadlineExceeded
		}
		return testutil.NewFakeShell(), nil
	}
	m, err := New(testConfig(), 80, 24, WithSpawner(spawner))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = m.StartAll()
	if err == nil {
		t.Fatal("StartAll must fail when a spawn fails")
	}
	if !strings.Contains(err.Error(), "cmd-two") {
		t.Errorf("error %q does not name the offending command", err)
	}
}

func TestPollAllDrainsBackgroundSessions(t *testing.T) {
	m, shells := newTestMux(t)
	defer m.Shutdown()

	// Session 1 is in the background; its output must still reach its
	// screen.
	shells[1].SendOutput("hidden")
	waitFor(t, "background drain", func() bool {
		m.PollAll()
		c, _ := m.sessions[1].Screen.Cell(0, 0)
		return c.Rune == 'h'
	})

	// Active-session output is reported as a visible change.
	shells[0].SendOutput("visible")
	waitFor(t, "active drain", func() bool { return m.PollAll() })
	c, _ := m.Active().Screen.Cell(0, 0)
	if c.Rune != 'v' {
		t.Errorf("active cell = %q", c.Rune)
	}
}

func TestLeaderPrefixRouting(t *testing.T) {
	m, shells := newTestMux(t)
	defer m.Shutdown()

	// Leader then a digit switches sessions; neither key reaches the
	// child.
	if !m.HandleEvent(leader()) || !m.HandleEvent(key('2')) {
		t.Fatal("leader sequence must not quit")
	}
	if m.ActiveIndex() != 1 {
		t.Errorf("active = %d, want 1", m.ActiveIndex())
	}
	if got := shells[0].GetInput(); got != "" {
		t.Errorf("session 0 received %q, want nothing", got)
	}

	// n and p cycle.
	m.HandleEvent(leader())
	m.HandleEvent(key('n'))
	if m.ActiveIndex() != 0 {
		t.Errorf("after next: active = %d, want 0", m.ActiveIndex())
	}
	m.HandleEvent(leader())
	m.HandleEvent(key('p'))
	if m.ActiveIndex() != 1 {
		t.Errorf("after prev: active = %d, want 1", m.ActiveIndex())
	}

	// q quits.
	m.HandleEvent(leader())
	if m.HandleEvent(key('q')) {
		t.Error("leader q must request shutdown")
	}
}

func TestLeaderTwiceForwardsChord(t *testing.T) {
	m, shells := newTestMux(t)
	defer m.Shutdown()

	m.HandleEvent(leader())
	m.HandleEvent(leader())
	if got := shells[0].GetInput(); got != "\x02" {
		t.Errorf("child received %q, want the raw ctrl+b byte", got)
	}
}

func TestForwardKeys(t *testing.T) {
	m, shells := newTestMux(t)
	defer m.Shutdown()

	m.HandleEvent(key('x'))
	m.HandleEvent(input.KeyEvent{Key: input.Key{Sym: input.SymUp}})
	m.HandleEvent(input.KeyEvent{Key: input.Key{Sym: input.SymEnter}})
	m.HandleEvent(input.KeyEvent{Key: input.Key{Ch: 'c'}, Mod: input.Mod{Ctrl: true}})
	m.HandleEvent(input.KeyEvent{Key: input.Key{Ch: '['}, Mod: input.Mod{Alt: true}})

	want := "x\x1b[A\r\x03\x1b["
	if got := shells[0].GetInput(); got != want {
		t.Errorf("child received %q, want %q", got, want)
	}
	if got := shells[1].GetInput(); got != "" {
		t.Errorf("inactive session received %q", got)
	}
}

func TestResizePropagates(t *testing.T) {
	m, shells := newTestMux(t)
	defer m.Shutdown()

	m.HandleEvent(input.ResizeEvent{Rows: 50, Cols: 132})
	for i, sh := range shells {
		rs := sh.GetResizes()
		if len(rs) == 0 || rs[len(rs)-1] != (testutil.Resize{Cols: 132, Rows: 50}) {
			t.Errorf("session %d resizes = %v, want final 132x50", i, rs)
		}
		if w := m.sessions[i].Screen.Width(); w != 132 {
			t.Errorf("session %d screen width = %d", i, w)
		}
	}
}

func TestChildExitMarksOnlyThatSession(t *testing.T) {
	m, shells := newTestMux(t)
	defer m.Shutdown()

	shells[1].Close()
	select {
	case id := <-m.exitCh:
		m.markExited(id)
	case <-time.After(2 * time.Second):
		t.Fatal("no exit notification")
	}

	if m.sessions[1].Running {
		t.Error("session 1 should be stopped")
	}
	if !m.sessions[0].Running {
		t.Error("session 0 must be unaffected")
	}
}

func TestShutdownKillsThenCloses(t *testing.T) {
	m, shells := newTestMux(t)
	m.Shutdown()
	for i, sh := range shells {
		if !sh.WasKilled() {
			t.Errorf("session %d was not killed", i)
		}
		if !sh.IsClosed() {
			t.Errorf("session %d was not closed", i)
		}
		if m.sessions[i].Running {
			t.Errorf("session %d still marked running", i)
		}
	}
}

// stuckHandle is a child that cannot be reaped: Wait blocks until the
// test releases it, driving Shutdown into its timeout path.
type stuckHandle struct{ release chan struct{} }

func (h *stuckHandle) Read(p []byte) (int, error)  { return 0, io.EOF }
func (h *stuckHandle) Write(p []byte) (int, error) { return len(p), nil }
func (h *stuckHandle) Resize(cols, rows int) error { return nil }
func (h *stuckHandle) Kill() error                 { return nil }
func (h *stuckHandle) Wait() error                 { <-h.release; return nil }
func (h *stuckHandle) Close() error                { return nil }
func (h *stuckHandle) Pid() int                    { return 0 }

func TestShutdownTimeoutRestoresTerminalBeforeExit(t *testing.T) {
	h := &stuckHandle{release: make(chan struct{})}
	defer close(h.release)
	spawner := func(command string, args []string, cols, rows int) (ProcessHandle, error) {
		return h, nil
	}

	var order []string
	m, err := New(testConfig(), 80, 24,
		WithSpawner(spawner),
		WithCleanup(func() { order = append(order, "cleanup") }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	m.shutdownTimeout = 20 * time.Millisecond
	m.exit = func(code int) {
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
		order = append(order, "exit")
	}

	m.Shutdown()
	if len(order) != 2 || order[0] != "cleanup" || order[1] != "exit" {
		t.Errorf("forced exit sequence = %v, want [cleanup exit]", order)
	}
}

func TestRunReactorQuit(t *testing.T) {
	m, _ := newTestMux(t)
	defer m.Shutdown()

	events := make(chan input.Event, 2)
	events <- leader()
	events <- key('q')
	if err := m.Run(context.Background(), events); err != nil {
		t.Errorf("Run = %v, want clean exit", err)
	}
}

func TestRunReactorContextCancel(t *testing.T) {
	m, _ := newTestMux(t)
	defer m.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Run(ctx, make(chan input.Event)); err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestStartSessionRestarts(t *testing.T) {
	spawned := 0
	var first *testutil.FakeShell
	spawner := func(command string, args []string, cols, rows int) (ProcessHandle, error) {
		sh := testutil.NewFakeShell()
		spawned++
		if first == nil {
			first = sh
		}
		return sh, nil
	}
	m, err := New(testConfig(), 80, 24, WithSpawner(spawner))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	defer m.Shutdown()

	first.Close()
	select {
	case id := <-m.exitCh:
		m.markExited(id)
	case <-time.After(2 * time.Second):
		t.Fatal("no exit notification")
	}

	if err := m.StartSession(0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if !m.sessions[0].Running {
		t.Error("session 0 should be running again")
	}
	if spawned != 3 {
		t.Errorf("spawner called %d times, want 3", spawned)
	}
}
