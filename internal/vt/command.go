package vt

import (
	"fmt"
	"strings"
)

// Command is one decoded output-direction escape sequence. The variant set is
// closed: the decoder produces Commands, Encode turns any Command back into
// its exact byte form, and Screen.Apply executes it. Coordinates carried by
// Commands are 1-based per the wire protocol; Screen coordinates are 0-based,
// and the decoder and Encode are the only conversion points.
type Command interface {
	isCommand()
}

// CursorUp moves the cursor up n rows (CSI n A).
type CursorUp struct{ N int }

// CursorDown moves the cursor down n rows (CSI n B).
type CursorDown struct{ N int }

// CursorForward moves the cursor right n columns (CSI n C).
type CursorForward struct{ N int }

// CursorBackward moves the cursor left n columns (CSI n D).
type CursorBackward struct{ N int }

// CursorPosition places the cursor at a 1-based row/column (CSI r ; c H).
type CursorPosition struct{ Row, Col int }

// EraseDisplay erases part of the screen (CSI n J).
type EraseDisplay struct{ Mode int }

// EraseLine erases part of the cursor row (CSI n K).
type EraseLine struct{ Mode int }

// ScrollUp scrolls the scroll region up n rows (CSI n S).
type ScrollUp struct{ N int }

// ScrollDown scrolls the scroll region down n rows (CSI n T).
type ScrollDown struct{ N int }

// SaveCursor records cursor state (CSI s / ESC 7).
type SaveCursor struct{}

// RestoreCursor restores cursor state (CSI u / ESC 8).
type RestoreCursor struct{}

// SetScrollRegion sets the 1-based inclusive scroll region (CSI t ; b r).
type SetScrollRegion struct{ Top, Bottom int }

// Index moves the cursor down, scrolling at the region bottom (ESC D).
type Index struct{}

// ReverseIndex moves the cursor up, scrolling at the region top (ESC M).
type ReverseIndex struct{}

// FullReset resets the terminal to its initial state (ESC c).
type FullReset struct{}

// SelectCharset switches the G0 character set (ESC ( B / ESC ( 0).
type SelectCharset struct{ Set Charset }

// SGRParam is one Select Graphic Rendition parameter. Sub marks a parameter
// that was attached to its predecessor with a colon rather than a semicolon,
// preserving the distinction so sequences re-encode byte-exactly.
type SGRParam struct {
	Value int
	Sub   bool
}

// SGR carries a Select Graphic Rendition parameter list (CSI ... m). An empty
// list means reset-all, same as a single 0.
type SGR struct{ Params []SGRParam }

// DeviceStatus is a status query (CSI n n). Kind 6 requests a cursor
// position report.
type DeviceStatus struct{ Kind int }

// ProgressReport is the OSC 9;4 progress sequence. State uses the wire
// values: 0 cleared, 1 update, 2 error, 3 indeterminate.
type ProgressReport struct {
	State int
	Value int
}

// WindowTitle sets the window title (OSC 0 / OSC 2).
type WindowTitle struct{ Title string }

func (CursorUp) isCommand()        {}
func (CursorDown) isCommand()      {}
func (CursorForward) isCommand()   {}
func (CursorBackward) isCommand()  {}
func (CursorPosition) isCommand()  {}
func (EraseDisplay) isCommand()    {}
func (EraseLine) isCommand()       {}
func (ScrollUp) isCommand()        {}
func (ScrollDown) isCommand()      {}
func (SaveCursor) isCommand()      {}
func (RestoreCursor) isCommand()   {}
func (SetScrollRegion) isCommand() {}
func (Index) isCommand()           {}
func (ReverseIndex) isCommand()    {}
func (FullReset) isCommand()       {}
func (SelectCharset) isCommand()   {}
func (SGR) isCommand()             {}
func (DeviceStatus) isCommand()    {}
func (ProgressReport) isCommand()  {}
func (WindowTitle) isCommand()     {}

// Encode returns the canonical byte encoding of cmd. It is total over the
// closed variant set; decoding the result yields an equal Command.
func Encode(cmd Command) []byte {
	switch c := cmd.(type) {
	case CursorUp:
		return csi("%dA", c.N)
	case CursorDown:
		return csi("%dB", c.N)
	case CursorForward:
		return csi("%dC", c.N)
	case CursorBackward:
		return csi("%dD", c.N)
	case CursorPosition:
		return csi("%d;%dH", c.Row, c.Col)
	case EraseDisplay:
		return csi("%dJ", c.Mode)
	case EraseLine:
		return csi("%dK", c.Mode)
	case ScrollUp:
		return csi("%dS", c.N)
	case ScrollDown:
		return csi("%dT", c.N)
	case SaveCursor:
		return []byte("\x1b[s")
	case RestoreCursor:
		return []byte("\x1b[u")
	case SetScrollRegion:
		return csi("%d;%dr", c.Top, c.Bottom)
	case Index:
		return []byte("\x1bD")
	case ReverseIndex:
		return []byte("\x1bM")
	case FullReset:
		return []byte("\x1bc")
	case SelectCharset:
		if c.Set == CharsetDECGraphics {
			return []byte("\x1b(0")
		}
		return []byte("\x1b(B")
	case SGR:
		var b strings.Builder
		b.WriteString("\x1b[")
		for i, p := range c.Params {
			if i > 0 {
				if p.Sub {
					b.WriteByte(':')
				} else {
					b.WriteByte(';')
				}
			}
			fmt.Fprintf(&b, "%d", p.Value)
		}
		b.WriteByte('m')
		return []byte(b.String())
	case DeviceStatus:
		return csi("%dn", c.Kind)
	case ProgressReport:
		return fmt.Appendf(nil, "\x1b]9;4;%d;%d\x1b\\", c.State, c.Value)
	case WindowTitle:
		return fmt.Appendf(nil, "\x1b]2;%s\x1b\\", c.Title)
	}
	return nil
}

func csi(format string, args ...any) []byte {
	return fmt.Appendf([]byte("\x1b["), format, args...)
}

// Apply executes cmd against the screen, converting 1-based protocol
// coordinates to 0-based screen coordinates. Unknown parameter values inside
// a command are ignored, never fatal.
func (s *Screen) Apply(cmd Command) {
	switch c := cmd.(type) {
	case CursorUp:
		s.MoveCursorBy(-max(c.N, 1), 0)
	case CursorDown:
		s.MoveCursorBy(max(c.N, 1), 0)
	case CursorForward:
		s.MoveCursorBy(0, max(c.N, 1))
	case CursorBackward:
		s.MoveCursorBy(0, -max(c.N, 1))
	case CursorPosition:
		s.MoveCursorTo(max(c.Row, 1)-1, max(c.Col, 1)-1)
	case EraseDisplay:
		s.EraseDisplay(c.Mode)
	case EraseLine:
		s.EraseLine(c.Mode)
	case ScrollUp:
		s.ScrollRegionUp(max(c.N, 1))
	case ScrollDown:
		s.ScrollRegionDown(max(c.N, 1))
	case SaveCursor:
		s.SaveCursor()
	case RestoreCursor:
		s.RestoreCursor()
	case SetScrollRegion:
		top, bottom := c.Top, c.Bottom
		if top == 0 {
			top = 1
		}
		if bottom == 0 {
			bottom = s.height
		}
		s.SetScrollRegion(top-1, bottom-1)
	case Index:
		s.lineFeed()
	case ReverseIndex:
		s.reverseLineFeed()
	case FullReset:
		s.Reset()
	case SelectCharset:
		s.SetCharset(c.Set)
	case SGR:
		s.applySGR(c.Params)
	case DeviceStatus:
		// Replies require an output path; handled by the Decoder.
	case ProgressReport:
		s.applyProgress(c)
	case WindowTitle:
		s.setTitle(c.Title)
	}
}

func (s *Screen) applyProgress(c ProgressReport) {
	switch c.State {
	case 0:
		s.setProgress(Progress{State: ProgressCleared})
	case 1:
		s.setProgress(Progress{State: ProgressNormal, Percent: clamp(c.Value, 0, 100)})
	case 2:
		s.setProgress(Progress{State: ProgressError, Percent: clamp(c.Value, 0, 100)})
	case 3:
		s.setProgress(Progress{State: ProgressIndeterminate})
	default:
		// Unknown state, ignore.
	}
}
