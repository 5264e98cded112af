package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/dodorz/vtmux/internal/bridge"
	"github.com/dodorz/vtmux/internal/config"
	"github.com/dodorz/vtmux/internal/mux"
	"github.com/dodorz/vtmux/internal/render"
)

// Terminal mode sequences: alternate screen, bracketed paste, focus
// reporting and SGR mouse reporting.
const (
	enableFeatures  = "\x1b[?1049h\x1b[?2004h\x1b[?1004h\x1b[?1002h\x1b[?1006h"
	disableFeatures = "\x1b[?1006l\x1b[?1002l\x1b[?1004l\x1b[?2004l\x1b[?1049l"
)

func runLocal() error {
	if err := setupLogging(); err != nil {
		return err
	}

	cfg, err := config.LoadUserConfig()
	if err != nil {
		return err
	}
	if sessionCmd != "" {
		name := sessionName
		if name == "" {
			name = sessionCmd
		}
		cfg.Sessions = []config.SessionConfig{{Name: name, Command: sessionCmd}}
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal")
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("terminal size: %w", err)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	_, _ = os.Stdout.WriteString(enableFeatures)
	defer func() { _, _ = os.Stdout.WriteString(disableFeatures) }()

	br, err := bridge.New()
	if err != nil {
		return fmt.Errorf("input source: %w", err)
	}
	sub := br.Subscribe()
	defer sub.Close()

	// The last row is the status bar; sessions get the rest.
	m, err := mux.New(cfg, cols, rows-1,
		mux.WithRenderer(render.New(os.Stdout, os.Environ())),
		// A forced exit skips the deferred restores above; undo the
		// terminal modes by hand before the process dies.
		mux.WithCleanup(func() {
			_, _ = os.Stdout.WriteString(disableFeatures)
			_ = term.Restore(fd, oldState)
		}))
	if err != nil {
		return err
	}
	if err := m.StartAll(); err != nil {
		return err
	}
	defer m.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Run(ctx, sub.Events()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setupLogging routes logs away from the terminal the UI occupies:
// to --log-file when given, otherwise discarded.
func setupLogging() error {
	if logFile == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	if debugMode {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}
