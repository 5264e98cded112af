package input

import (
	"fmt"
	"unicode/utf8"
)

var symFinals = map[KeySym]byte{
	SymUp:    'A',
	SymDown:  'B',
	SymRight: 'C',
	SymLeft:  'D',
	SymHome:  'H',
	SymEnd:   'F',
	SymF1:    'P',
	SymF2:    'Q',
	SymF3:    'R',
	SymF4:    'S',
}

var symTildeCodes = map[KeySym]int{
	SymInsert:   2,
	SymDelete:   3,
	SymPageUp:   5,
	SymPageDown: 6,
	SymF5:       15,
	SymF6:       17,
	SymF7:       18,
	SymF8:       19,
	SymF9:       20,
	SymF10:      21,
	SymF11:      23,
	SymF12:      24,
}

// Generate encodes ev back into the byte sequence a terminal would send
// for it, such that Parse decodes the result to an equal event.
//
// It returns nil for events outside its domain: keys whose wire form is
// a bare control byte (Tab, Enter, Backspace, Escape, Ctrl chords),
// character keys with a Shift or Ctrl modifier, and Alt with '[' or 'O'
// (their wire forms are the CSI and SS3 introducers). Callers forwarding
// such keys pass the original bytes through instead.
func Generate(ev Event) []byte {
	switch e := ev.(type) {
	case KeyEvent:
		return generateKey(e)
	case MouseEvent:
		return generateMouse(e)
	case ResizeEvent:
		return fmt.Appendf(nil, "\x1b[8;%d;%dt", e.Rows, e.Cols)
	case FocusEvent:
		if e.Gained {
			return []byte("\x1b[I")
		}
		return []byte("\x1b[O")
	case PasteEvent:
		out := make([]byte, 0, len(e.Text)+12)
		out = append(out, "\x1b[200~"...)
		out = append(out, e.Text...)
		return append(out, pasteEnd...)
	}
	return nil
}

func generateKey(e KeyEvent) []byte {
	mods := modCode(e.Mod)

	if final, ok := symFinals[e.Key.Sym]; ok {
		if mods > 1 {
			return fmt.Appendf(nil, "\x1b[1;%d%c", mods, final)
		}
		if e.Key.Sym >= SymF1 {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}

	if code, ok := symTildeCodes[e.Key.Sym]; ok {
		if mods > 1 {
			return fmt.Appendf(nil, "\x1b[%d;%d~", code, mods)
		}
		return fmt.Appendf(nil, "\x1b[%d~", code)
	}

	if e.Key.Sym == SymTab && e.Mod == (Mod{Shift: true}) {
		return []byte("\x1b[Z")
	}

	if e.Key.Sym != SymNone || e.Key.Ch == 0 {
		// Tab, Enter, Backspace and Escape travel as raw control bytes.
		return nil
	}
	if e.Mod.Ctrl || e.Mod.Shift {
		return nil
	}
	if e.Mod.Alt && (e.Key.Ch == '[' || e.Key.Ch == 'O') {
		// ESC [ and ESC O are the CSI and SS3 introducers; the parser can
		// never return them as Alt-wrapped characters.
		return nil
	}

	var out []byte
	if e.Mod.Alt {
		out = append(out, 0x1b)
	}
	return utf8.AppendRune(out, e.Key.Ch)
}

func generateMouse(e MouseEvent) []byte {
	b := 0
	switch e.Button {
	case ButtonWheelUp:
		b = mouseWheel
	case ButtonWheelDown:
		b = mouseWheel | 1
	default:
		b = int(e.Button) & 3
	}
	if e.Kind == MouseMotion {
		b |= mouseMotion
	}
	if e.Mod.Shift {
		b |= mouseShift
	}
	if e.Mod.Alt {
		b |= mouseAlt
	}
	if e.Mod.Ctrl {
		b |= mouseCtrl
	}
	final := byte('M')
	if e.Kind == MouseRelease {
		final = 'm'
	}
	return fmt.Appendf(nil, "\x1b[<%d;%d;%d%c", b, e.X+1, e.Y+1, final)
}
