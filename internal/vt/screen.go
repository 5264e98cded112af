package vt

import (
	runewidth "github.com/mattn/go-runewidth"
)

// ProgressState is the OSC 9;4 progress indicator state.
type ProgressState int

const (
	// ProgressCleared means no progress indicator is shown.
	ProgressCleared ProgressState = iota
	// ProgressNormal is a determinate progress update.
	ProgressNormal
	// ProgressError indicates a failed operation.
	ProgressError
	// ProgressIndeterminate is an animated, value-less indicator.
	ProgressIndeterminate
)

// Progress is the task progress reported by the child through OSC 9;4.
type Progress struct {
	State   ProgressState
	Percent int // 0-100, meaningful for ProgressNormal only
}

// Callbacks are optional hooks invoked when the child changes screen-level
// state. All fields may be nil.
type Callbacks struct {
	Title    func(string)
	Progress func(Progress)
}

// Screen is the in-memory model of one terminal's visible grid.
//
// Rows and columns are 0-based. All mutators take already-clamped or
// self-clamping coordinates and never panic; the decoder is responsible for
// converting 1-based protocol coordinates.
type Screen struct {
	width, height int
	rows          [][]Cell

	curX, curY int
	style      Style
	charset    Charset

	// Inclusive scroll region. Defaults to the full screen.
	top, bottom int

	savedX, savedY   int
	savedStyle       Style
	savedCharset     Charset
	hasSaved         bool

	title    string
	progress Progress

	cb Callbacks
}

// NewScreen creates a screen of the given size. Dimensions are clamped to a
// minimum of 1x1.
func NewScreen(width, height int) *Screen {
	width = max(width, 1)
	height = max(height, 1)
	s := &Screen{
		width:  width,
		height: height,
		bottom: height - 1,
	}
	s.rows = make([][]Cell, height)
	for y := range s.rows {
		s.rows[y] = s.blankRow(width)
	}
	return s
}

// SetCallbacks installs the screen's callbacks.
func (s *Screen) SetCallbacks(cb Callbacks) { s.cb = cb }

// Width returns the screen width in columns.
func (s *Screen) Width() int { return s.width }

// Height returns the screen height in rows.
func (s *Screen) Height() int { return s.height }

// CursorPos returns the cursor position, clamped to the grid.
func (s *Screen) CursorPos() (x, y int) {
	return min(s.curX, s.width-1), s.curY
}

// Cell returns the cell at (x, y), and false when out of bounds.
func (s *Screen) Cell(x, y int) (Cell, bool) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return Cell{}, false
	}
	return s.rows[y][x], true
}

// Line returns a copy of row y for snapshotting. Returns nil when out of
// bounds.
func (s *Screen) Line(y int) []Cell {
	if y < 0 || y >= s.height {
		return nil
	}
	line := make([]Cell, s.width)
	copy(line, s.rows[y])
	return line
}

// Title returns the window title set through OSC 0/2.
func (s *Screen) Title() string { return s.title }

// Progress returns the last OSC 9;4 progress report.
func (s *Screen) Progress() Progress { return s.progress }

// ScrollRegion returns the inclusive scroll region rows.
func (s *Screen) ScrollRegion() (top, bottom int) { return s.top, s.bottom }

// CurrentStyle returns the pending SGR accumulator applied to future writes.
func (s *Screen) CurrentStyle() Style { return s.style }

func (s *Screen) blankRow(width int) []Cell {
	row := make([]Cell, width)
	blank := blankCell(s.style)
	for x := range row {
		row[x] = blank
	}
	return row
}

// WriteRune writes one character at the cursor using the current style,
// translating through the active character set and advancing the cursor.
// At the right edge the cursor wraps to the next row; at the bottom of the
// scroll region the region scrolls up by one instead of overflowing.
func (s *Screen) WriteRune(r rune) {
	r = s.charset.translate(r)
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		// Zero-width and combining runes do not occupy a cell.
		return
	}
	if s.curX+w > s.width {
		s.curX = 0
		s.lineFeed()
	}
	row := s.rows[s.curY]
	row[s.curX] = Cell{Rune: r, Style: s.style}
	if w == 2 && s.curX+1 < s.width {
		row[s.curX+1] = Cell{Spacer: true, Style: s.style}
	}
	s.curX += w
}

// lineFeed moves the cursor down one row, scrolling the region up when the
// cursor sits on the region's bottom row.
func (s *Screen) lineFeed() {
	switch {
	case s.curY == s.bottom:
		s.ScrollRegionUp(1)
	case s.curY < s.height-1:
		s.curY++
	}
}

// reverseLineFeed moves the cursor up one row, scrolling the region down when
// the cursor sits on the region's top row.
func (s *Screen) reverseLineFeed() {
	switch {
	case s.curY == s.top:
		s.ScrollRegionDown(1)
	case s.curY > 0:
		s.curY--
	}
}

// CarriageReturn moves the cursor to column 0.
func (s *Screen) CarriageReturn() { s.curX = 0 }

// Backspace moves the cursor one column left, stopping at column 0.
func (s *Screen) Backspace() {
	if s.curX > s.width-1 {
		s.curX = s.width - 1
	}
	if s.curX > 0 {
		s.curX--
	}
}

// Tab advances the cursor to the next tab stop (every 8 columns).
func (s *Screen) Tab() {
	next := (s.curX/tabWidth + 1) * tabWidth
	s.curX = min(next, s.width-1)
}

const tabWidth = 8

// MoveCursorTo places the cursor at (row, col), clamping the column to the
// grid and the row to the current scroll region.
func (s *Screen) MoveCursorTo(row, col int) {
	s.curX = clamp(col, 0, s.width-1)
	s.curY = clamp(row, s.top, s.bottom)
}

// MoveCursorBy moves the cursor relative to its position with the same
// clamping as MoveCursorTo.
func (s *Screen) MoveCursorBy(dy, dx int) {
	x, y := s.CursorPos()
	s.MoveCursorTo(y+dy, x+dx)
}

// ScrollRegionUp scrolls the scroll region up by n rows. Rows leaving the top
// of the region are discarded; blank rows enter at the bottom.
func (s *Screen) ScrollRegionUp(n int) {
	n = clamp(n, 0, s.bottom-s.top+1)
	for i := 0; i < n; i++ {
		copy(s.rows[s.top:s.bottom], s.rows[s.top+1:s.bottom+1])
		s.rows[s.bottom] = s.blankRow(s.width)
	}
}

// ScrollRegionDown scrolls the scroll region down by n rows. Blank rows enter
// at the top of the region.
func (s *Screen) ScrollRegionDown(n int) {
	n = clamp(n, 0, s.bottom-s.top+1)
	for i := 0; i < n; i++ {
		copy(s.rows[s.top+1:s.bottom+1], s.rows[s.top:s.bottom])
		s.rows[s.top] = s.blankRow(s.width)
	}
}

// EraseLine erases part of the cursor's row. Mode 0 erases from the cursor to
// the end, 1 from the start through the cursor, 2 the whole row. Unknown
// modes are ignored.
func (s *Screen) EraseLine(mode int) {
	x, y := s.CursorPos()
	row := s.rows[y]
	blank := blankCell(s.style)
	switch mode {
	case 0:
		for i := x; i < s.width; i++ {
			row[i] = blank
		}
	case 1:
		for i := 0; i <= x; i++ {
			row[i] = blank
		}
	case 2:
		for i := range row {
			row[i] = blank
		}
	}
}

// EraseDisplay erases part of the screen. Mode 0 erases from the cursor to
// the end of the screen, 1 from the start through the cursor, 2 (and the
// xterm extension 3) the whole screen. Unknown modes are ignored.
func (s *Screen) EraseDisplay(mode int) {
	_, y := s.CursorPos()
	switch mode {
	case 0:
		s.EraseLine(0)
		for i := y + 1; i < s.height; i++ {
			s.rows[i] = s.blankRow(s.width)
		}
	case 1:
		s.EraseLine(1)
		for i := 0; i < y; i++ {
			s.rows[i] = s.blankRow(s.width)
		}
	case 2, 3:
		for i := range s.rows {
			s.rows[i] = s.blankRow(s.width)
		}
	}
}

// SaveCursor records the cursor position, style and charset (ESC 7 / CSI s).
func (s *Screen) SaveCursor() {
	s.savedX, s.savedY = s.curX, s.curY
	s.savedStyle = s.style
	s.savedCharset = s.charset
	s.hasSaved = true
}

// RestoreCursor restores the state saved by SaveCursor. Without a prior save
// it homes the cursor, matching DECRC.
func (s *Screen) RestoreCursor() {
	if !s.hasSaved {
		s.MoveCursorTo(0, 0)
		return
	}
	s.style = s.savedStyle
	s.charset = s.savedCharset
	s.MoveCursorTo(s.savedY, s.savedX)
}

// SetScrollRegion sets the inclusive scroll region and homes the cursor to
// the region's top-left. Invalid bounds reset the region to the full screen.
func (s *Screen) SetScrollRegion(top, bottom int) {
	if top < 0 || bottom >= s.height || top >= bottom {
		s.top, s.bottom = 0, s.height-1
	} else {
		s.top, s.bottom = top, bottom
	}
	s.curX, s.curY = 0, s.top
}

// SetCharset selects the active G0 character set.
func (s *Screen) SetCharset(cs Charset) { s.charset = cs }

// ResetStyle clears the SGR accumulator to the default rendition.
func (s *Screen) ResetStyle() { s.style = Style{} }

// Reset restores the screen to its initial state (RIS). The title is kept.
func (s *Screen) Reset() {
	s.style = Style{}
	s.charset = CharsetASCII
	s.top, s.bottom = 0, s.height-1
	s.curX, s.curY = 0, 0
	s.hasSaved = false
	s.progress = Progress{}
	for y := range s.rows {
		s.rows[y] = s.blankRow(s.width)
	}
}

// Resize changes the screen dimensions in place. Content above the new bottom
// edge is preserved; rows are added or removed at the bottom. The scroll
// region resets to the full screen.
func (s *Screen) Resize(width, height int) {
	width = max(width, 1)
	height = max(height, 1)

	for y := range s.rows {
		row := s.rows[y]
		switch {
		case width < len(row):
			s.rows[y] = row[:width]
		case width > len(row):
			grown := make([]Cell, width)
			copy(grown, row)
			blank := blankCell(Style{})
			for x := len(row); x < width; x++ {
				grown[x] = blank
			}
			s.rows[y] = grown
		}
	}
	s.width = width

	switch {
	case height < s.height:
		s.rows = s.rows[:height]
	case height > s.height:
		for y := s.height; y < height; y++ {
			s.rows = append(s.rows, s.blankRow(width))
		}
	}
	s.height = height

	s.top, s.bottom = 0, height-1
	s.curX = clamp(s.curX, 0, width-1)
	s.curY = clamp(s.curY, 0, height-1)
}

func (s *Screen) setTitle(title string) {
	s.title = title
	if s.cb.Title != nil {
		s.cb.Title(title)
	}
}

func (s *Screen) setProgress(p Progress) {
	s.progress = p
	if s.cb.Progress != nil {
		s.cb.Progress(p)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
