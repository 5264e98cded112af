// Package config provides configuration constants and user settings.
package config

import "time"

// =============================================================================
// Session Defaults
// =============================================================================

const (
	// DefaultRows is the session screen height used before the real
	// terminal size is known
	DefaultRows = 24

	// DefaultCols is the session screen width used before the real
	// terminal size is known
	DefaultCols = 80

	// MinRows is the minimum height a session screen can be resized to
	MinRows = 1

	// MinCols is the minimum width a session screen can be resized to
	MinCols = 1
)

// =============================================================================
// Timeouts and Intervals
// =============================================================================

const (
	// OutputPollInterval is the interval between child output drains
	OutputPollInterval = 10 * time.Millisecond

	// StatusRefreshInterval is the interval between process stat updates
	StatusRefreshInterval = 2 * time.Second

	// ShutdownTimeout bounds graceful teardown of all child processes.
	// Past it the process exits immediately rather than risk hanging.
	ShutdownTimeout = 3 * time.Second

	// ProcessWaitDelay is the delay when waiting for process cleanup
	ProcessWaitDelay = 50 * time.Millisecond
)

// =============================================================================
// Repaint
// =============================================================================

const (
	// RepaintCols is the throwaway width used to force a full-program
	// redraw on session switch. Resizing to a tiny size and back makes
	// the child reflow and repaint its whole screen.
	RepaintCols = 1

	// RepaintRows is the throwaway height used to force a redraw
	RepaintRows = 1
)

// =============================================================================
// Buffer Sizes
// =============================================================================

const (
	// OutputReadSize is the read buffer size for child output
	OutputReadSize = 32 * 1024

	// OutputChanBuffer is the per-session buffered output chunk count.
	// Background sessions keep producing into this buffer between
	// drains without blocking their reader.
	OutputChanBuffer = 256
)
