// Package input translates between raw terminal input bytes and typed
// events, in both directions. Parse decodes the byte stream a terminal
// sends for keys, mouse activity, focus changes and bracketed paste;
// Generate re-encodes events so they can be forwarded to a child terminal.
package input

// Event is a decoded unit of terminal input. The concrete types are
// KeyEvent, MouseEvent, ResizeEvent, FocusEvent and PasteEvent.
type Event interface {
	isEvent()
}

// KeySym identifies a special (non-character) key.
type KeySym int

const (
	// SymNone marks a character key; Key.Ch carries the rune.
	SymNone KeySym = iota
	SymUp
	SymDown
	SymRight
	SymLeft
	SymHome
	SymEnd
	SymInsert
	SymDelete
	SymPageUp
	SymPageDown
	SymTab
	SymEnter
	SymBackspace
	SymEscape
	SymF1
	SymF2
	SymF3
	SymF4
	SymF5
	SymF6
	SymF7
	SymF8
	SymF9
	SymF10
	SymF11
	SymF12
)

// Key is either a special key (Sym != SymNone) or a character key
// (Sym == SymNone, Ch set). Never both.
type Key struct {
	Sym KeySym
	Ch  rune
}

// Mod is the modifier state attached to a key or mouse event.
type Mod struct {
	Shift bool
	Alt   bool
	Ctrl  bool
}

// KeyEvent is a single key press.
type KeyEvent struct {
	Key Key
	Mod Mod
}

// MouseKind distinguishes press, release and motion reports.
type MouseKind int

const (
	MousePress MouseKind = iota
	MouseRelease
	MouseMotion
)

// MouseButton identifies which button a mouse event refers to. Wheel
// movement is reported as a press of a wheel button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonMiddle
	ButtonRight
	ButtonNone // motion with no button held
	ButtonWheelUp
	ButtonWheelDown
)

// MouseEvent is a mouse press, release or motion report. X and Y are
// 0-based cell coordinates; the wire protocol's 1-based coordinates are
// converted at the codec boundary.
type MouseEvent struct {
	Kind   MouseKind
	Button MouseButton
	X, Y   int
	Mod    Mod
}

// ResizeEvent reports a new terminal size.
type ResizeEvent struct {
	Rows, Cols int
}

// FocusEvent reports the terminal gaining or losing focus.
type FocusEvent struct {
	Gained bool
}

// PasteEvent carries the literal text of one bracketed paste.
type PasteEvent struct {
	Text string
}

// ErrorEvent reports a failure of the input source. It is delivered at
// most once; no events follow it.
type ErrorEvent struct {
	Err error
}

func (KeyEvent) isEvent()    {}
func (MouseEvent) isEvent()  {}
func (ResizeEvent) isEvent() {}
func (FocusEvent) isEvent()  {}
func (PasteEvent) isEvent()  {}
func (ErrorEvent) isEvent()  {}

// modCode converts a modifier set to the xterm parameter value
// (1 + shift*1 + alt*2 + ctrl*4). The result is 1 for no modifiers.
func modCode(m Mod) int {
	code := 1
	if m.Shift {
		code++
	}
	if m.Alt {
		code += 2
	}
	if m.Ctrl {
		code += 4
	}
	return code
}

// modFromCode is the inverse of modCode. Values below 2 mean no
// modifiers.
func modFromCode(code int) Mod {
	if code < 2 {
		return Mod{}
	}
	bits := code - 1
	return Mod{
		Shift: bits&1 != 0,
		Alt:   bits&2 != 0,
		Ctrl:  bits&4 != 0,
	}
}
