package mux

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/colorprofile"
	xpty "github.com/charmbracelet/x/xpty"
)

// ProcessHandle is the live child process behind one session: async
// read of its combined output, write to its stdin, resize and kill.
type ProcessHandle interface {
	io.Reader
	io.Writer
	Resize(cols, rows int) error
	Kill() error
	Wait() error
	Close() error
	Pid() int
}

// SpawnFunc starts a child process at the given size. Tests substitute
// a fake; production uses Spawn.
type SpawnFunc func(command string, args []string, cols, rows int) (ProcessHandle, error)

type ptyHandle struct {
	pty xpty.Pty
	cmd *exec.Cmd

	// waitOnce guards cmd.Wait, which must run exactly once even when
	// both the exit monitor and Close race to reap the child.
	waitOnce sync.Once
	waitErr  error
}

// Spawn starts command under a new PTY of the given size.
func Spawn(command string, args []string, cols, rows int) (ProcessHandle, error) {
	// #nosec G204 - the command comes from user configuration, running it is the point
	cmd := exec.Command(command, args...)

	termType, colorTerm := terminalEnv()
	cmd.Env = append(os.Environ(),
		"TERM="+termType,
		"COLORTERM="+colorTerm,
		"TERM_PROGRAM=vtmux",
	)

	// xpty requires dimensions at creation time.
	pty, err := xpty.NewPty(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("create pty: %w", err)
	}
	if err := pty.Start(cmd); err != nil {
		_ = pty.Close()
		return nil, err
	}
	// Resize after start; some PTY implementations only accept a size
	// once the process is running.
	_ = pty.Resize(cols, rows)

	return &ptyHandle{pty: pty, cmd: cmd}, nil
}

func (h *ptyHandle) Read(p []byte) (int, error)  { return h.pty.Read(p) }
func (h *ptyHandle) Write(p []byte) (int, error) { return h.pty.Write(p) }

func (h *ptyHandle) Resize(cols, rows int) error { return h.pty.Resize(cols, rows) }

func (h *ptyHandle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

func (h *ptyHandle) Wait() error {
	h.waitOnce.Do(func() { h.waitErr = h.cmd.Wait() })
	return h.waitErr
}

func (h *ptyHandle) Close() error { return h.pty.Close() }

func (h *ptyHandle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// DetectShell picks the shell for sessions without an explicit
// command: the configured preference, then $SHELL, then well-known
// paths.
func DetectShell(preferred string) string {
	if preferred != "" {
		if _, err := os.Stat(preferred); err == nil {
			return preferred
		}
		fmt.Fprintf(os.Stderr, "Warning: Configured shell '%s' not found. Falling back to defaults.\n", preferred)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	if runtime.GOOS == "windows" {
		for _, shell := range []string{"powershell.exe", "pwsh.exe", "cmd.exe"} {
			if _, err := exec.LookPath(shell); err == nil {
				return shell
			}
		}
		return "cmd.exe"
	}

	for _, shell := range []string{"/bin/bash", "/bin/zsh", "/bin/fish", "/bin/sh"} {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

var (
	envOnce      sync.Once
	envTermType  string
	envColorTerm string
)

// terminalEnv returns the TERM and COLORTERM values children inherit,
// detected once per process from the real terminal's capabilities.
func terminalEnv() (termType, colorTerm string) {
	envOnce.Do(func() {
		profile := colorprofile.Detect(os.Stdout, os.Environ())
		envTermType, envColorTerm = profileToEnv(profile)
	})
	return envTermType, envColorTerm
}

func profileToEnv(profile colorprofile.Profile) (termType, colorTerm string) {
	parentTerm := os.Getenv("TERM")

	switch profile {
	case colorprofile.TrueColor:
		if parentTerm != "" {
			termType = parentTerm
		} else {
			termType = "xterm-256color"
		}
		colorTerm = "truecolor"

	case colorprofile.ANSI256:
		switch {
		case strings.Contains(parentTerm, "256color"):
			termType = parentTerm
		case strings.HasPrefix(parentTerm, "screen"):
			termType = "screen-256color"
		case strings.HasPrefix(parentTerm, "tmux"):
			termType = "tmux-256color"
		default:
			termType = "xterm-256color"
		}

	case colorprofile.ANSI:
		if parentTerm != "" && parentTerm != "dumb" {
			termType = parentTerm
		} else {
			termType = "xterm"
		}

	case colorprofile.Ascii, colorprofile.NoTTY:
		termType = "dumb"

	default:
		termType = "xterm-256color"
	}

	return termType, colorTerm
}
