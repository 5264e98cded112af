// Package vt implements a virtual terminal: a cell-grid screen model and an
// incremental ANSI/VT100 decoder that drives it from raw child-process output.
package vt

import (
	"image/color"

	"github.com/charmbracelet/x/ansi"
)

// Style holds the graphic rendition of a cell. The zero value is the default
// rendition (no attributes, terminal default colors).
type Style struct {
	Bold          bool
	Faint         bool
	Italic        bool
	Underline     bool
	Blink         bool
	Reverse       bool
	Conceal       bool
	Strikethrough bool

	// Fg and Bg are nil for the terminal default color. Concrete values are
	// ansi.BasicColor, ansi.IndexedColor or ansi.TrueColor.
	Fg color.Color
	Bg color.Color
}

// IsZero reports whether the style is the default rendition.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Equal reports whether two styles render identically.
func (s Style) Equal(o Style) bool {
	return s == o
}

// Cell is a single grid position.
type Cell struct {
	// Rune is the displayed character. It is 0 for a spacer cell.
	Rune rune
	// Spacer marks the continuation column of a wide character. The text
	// cell immediately to its left owns the glyph.
	Spacer bool
	Style  Style
}

// blankCell returns an empty cell carrying the given style's background.
// Erase operations paint with the current background color only.
func blankCell(st Style) Cell {
	return Cell{Rune: ' ', Style: Style{Bg: st.Bg}}
}

// BasicColor returns the 16-color palette entry n (0-15), or nil when out of
// range.
func BasicColor(n int) color.Color {
	if n < 0 || n > 15 {
		return nil
	}
	return ansi.BasicColor(n) //nolint:gosec // bounds checked above
}

// IndexedColor returns the 256-color palette entry n, or nil when out of
// range.
func IndexedColor(n int) color.Color {
	if n < 0 || n > 255 {
		return nil
	}
	return ansi.IndexedColor(n) //nolint:gosec // bounds checked above
}

// RGBColor returns a 24-bit color. Components are clamped to [0, 255].
func RGBColor(r, g, b int) color.Color {
	clamp := func(v int) uint32 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint32(v)
	}
	return ansi.TrueColor(clamp(r)<<16 | clamp(g)<<8 | clamp(b))
}
