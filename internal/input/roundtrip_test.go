package input

import (
	"bytes"
	"testing"
)

func TestGenerateShiftUp(t *testing.T) {
	ev := KeyEvent{Key: Key{Sym: SymUp}, Mod: Mod{Shift: true}}
	got := Generate(ev)
	if !bytes.Equal(got, []byte("\x1b[1;2A")) {
		t.Fatalf("Generate(shift+up) = %q, want %q", got, "\x1b[1;2A")
	}
	back, n := Parse(got, false)
	if back != Event(ev) {
		t.Errorf("parsed back %#v, want %#v", back, ev)
	}
	if n != len(got) {
		t.Errorf("consumed %d of %d bytes", n, len(got))
	}
}

// Every event Generate can encode must parse back to itself with the
// whole encoding consumed.
func TestRoundTrip(t *testing.T) {
	events := []Event{
		KeyEvent{Key: Key{Ch: 'a'}},
		KeyEvent{Key: Key{Ch: 'Ж'}},
		KeyEvent{Key: Key{Ch: 'q'}, Mod: Mod{Alt: true}},
		KeyEvent{Key: Key{Sym: SymUp}},
		KeyEvent{Key: Key{Sym: SymDown}, Mod: Mod{Ctrl: true}},
		KeyEvent{Key: Key{Sym: SymLeft}, Mod: Mod{Shift: true, Alt: true}},
		KeyEvent{Key: Key{Sym: SymHome}},
		KeyEvent{Key: Key{Sym: SymEnd}, Mod: Mod{Shift: true}},
		KeyEvent{Key: Key{Sym: SymInsert}},
		KeyEvent{Key: Key{Sym: SymDelete}, Mod: Mod{Ctrl: true}},
		KeyEvent{Key: Key{Sym: SymPageUp}},
		KeyEvent{Key: Key{Sym: SymPageDown}, Mod: Mod{Alt: true}},
		KeyEvent{Key: Key{Sym: SymTab}, Mod: Mod{Shift: true}},
		KeyEvent{Key: Key{Sym: SymF1}},
		KeyEvent{Key: Key{Sym: SymF4}},
		KeyEvent{Key: Key{Sym: SymF5}},
		KeyEvent{Key: Key{Sym: SymF12}, Mod: Mod{Ctrl: true}},
		KeyEvent{Key: Key{Sym: SymF2}, Mod: Mod{Shift: true, Ctrl: true}},
		MouseEvent{Kind: MousePress, Button: ButtonLeft, X: 0, Y: 0},
		MouseEvent{Kind: MousePress, Button: ButtonMiddle, X: 10, Y: 20, Mod: Mod{Alt: true}},
		MouseEvent{Kind: MouseRelease, Button: ButtonRight, X: 5, Y: 5},
		MouseEvent{Kind: MouseMotion, Button: ButtonNone, X: 3, Y: 4},
		MouseEvent{Kind: MouseMotion, Button: ButtonLeft, X: 3, Y: 4, Mod: Mod{Ctrl: true}},
		MouseEvent{Kind: MousePress, Button: ButtonWheelUp, X: 1, Y: 1},
		MouseEvent{Kind: MousePress, Button: ButtonWheelDown, X: 1, Y: 1, Mod: Mod{Shift: true}},
		ResizeEvent{Rows: 24, Cols: 80},
		ResizeEvent{Rows: 1, Cols: 1},
		FocusEvent{Gained: true},
		FocusEvent{Gained: false},
		PasteEvent{Text: "hello world"},
		PasteEvent{Text: "multi\nline\twith\x1bodd bytes"},
		PasteEvent{Text: ""},
	}

	for _, ev := range events {
		encoded := Generate(ev)
		if encoded == nil {
			t.Errorf("Generate(%#v) = nil, event should be representable", ev)
			continue
		}
		back, n := Parse(encoded, false)
		if back != ev {
			t.Errorf("round trip of %#v through %q yields %#v", ev, encoded, back)
		}
		if n != len(encoded) {
			t.Errorf("%#v: consumed %d of %d bytes", ev, n, len(encoded))
		}
	}
}

// Keys whose wire form is a raw control byte, or collides with a
// sequence introducer, are outside the generator's domain.
func TestGenerateDomain(t *testing.T) {
	outside := []Event{
		KeyEvent{Key: Key{Sym: SymTab}},
		KeyEvent{Key: Key{Sym: SymEnter}},
		KeyEvent{Key: Key{Sym: SymBackspace}},
		KeyEvent{Key: Key{Sym: SymEscape}},
		KeyEvent{Key: Key{Ch: 'c'}, Mod: Mod{Ctrl: true}},
		KeyEvent{Key: Key{Ch: 'a'}, Mod: Mod{Shift: true}},
		KeyEvent{Key: Key{Ch: '['}, Mod: Mod{Alt: true}},
		KeyEvent{Key: Key{Ch: 'O'}, Mod: Mod{Alt: true}},
	}
	for _, ev := range outside {
		if got := Generate(ev); got != nil {
			t.Errorf("Generate(%#v) = %q, want nil", ev, got)
		}
	}
}
