package input

import "testing"

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Event
		n     int
	}{
		{"plain char", "a", KeyEvent{Key: Key{Ch: 'a'}}, 1},
		{"utf8 char", "é", KeyEvent{Key: Key{Ch: 'é'}}, 2},
		{"enter", "\r", KeyEvent{Key: Key{Sym: SymEnter}}, 1},
		{"tab", "\t", KeyEvent{Key: Key{Sym: SymTab}}, 1},
		{"backspace", "\x7f", KeyEvent{Key: Key{Sym: SymBackspace}}, 1},
		{"ctrl-c", "\x03", KeyEvent{Key: Key{Ch: 'c'}, Mod: Mod{Ctrl: true}}, 1},
		{"ctrl-space", "\x00", KeyEvent{Key: Key{Ch: ' '}, Mod: Mod{Ctrl: true}}, 1},
		{"up", "\x1b[A", KeyEvent{Key: Key{Sym: SymUp}}, 3},
		{"left", "\x1b[D", KeyEvent{Key: Key{Sym: SymLeft}}, 3},
		{"home", "\x1b[H", KeyEvent{Key: Key{Sym: SymHome}}, 3},
		{"end", "\x1b[F", KeyEvent{Key: Key{Sym: SymEnd}}, 3},
		{"shift-up", "\x1b[1;2A", KeyEvent{Key: Key{Sym: SymUp}, Mod: Mod{Shift: true}}, 6},
		{"ctrl-right", "\x1b[1;5C", KeyEvent{Key: Key{Sym: SymRight}, Mod: Mod{Ctrl: true}}, 6},
		{
			"ctrl-alt-down", "\x1b[1;7B",
			KeyEvent{Key: Key{Sym: SymDown}, Mod: Mod{Alt: true, Ctrl: true}}, 6,
		},
		{"shift-tab", "\x1b[Z", KeyEvent{Key: Key{Sym: SymTab}, Mod: Mod{Shift: true}}, 3},
		{"delete", "\x1b[3~", KeyEvent{Key: Key{Sym: SymDelete}}, 4},
		{"page up", "\x1b[5~", KeyEvent{Key: Key{Sym: SymPageUp}}, 4},
		{"shift-delete", "\x1b[3;2~", KeyEvent{Key: Key{Sym: SymDelete}, Mod: Mod{Shift: true}}, 6},
		{"home tilde form", "\x1b[1~", KeyEvent{Key: Key{Sym: SymHome}}, 4},
		{"f5", "\x1b[15~", KeyEvent{Key: Key{Sym: SymF5}}, 5},
		{"f12", "\x1b[24~", KeyEvent{Key: Key{Sym: SymF12}}, 5},
		{"f1 ss3", "\x1bOP", KeyEvent{Key: Key{Sym: SymF1}}, 3},
		{"up ss3", "\x1bOA", KeyEvent{Key: Key{Sym: SymUp}}, 3},
		{"ctrl-f2", "\x1b[1;5Q", KeyEvent{Key: Key{Sym: SymF2}, Mod: Mod{Ctrl: true}}, 6},
		{"alt-x", "\x1bx", KeyEvent{Key: Key{Ch: 'x'}, Mod: Mod{Alt: true}}, 2},
		{"alt-backspace", "\x1b\x7f", KeyEvent{Key: Key{Sym: SymBackspace}, Mod: Mod{Alt: true}}, 2},
		{"focus in", "\x1b[I", FocusEvent{Gained: true}, 3},
		{"focus out", "\x1b[O", FocusEvent{Gained: false}, 3},
		{"resize", "\x1b[8;24;80t", ResizeEvent{Rows: 24, Cols: 80}, 10},
		{"paste", "\x1b[200~hi\rthere\x1b[201~", PasteEvent{Text: "hi\rthere"}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, n := Parse([]byte(tt.input), false)
			if ev != tt.want || n != tt.n {
				t.Errorf("Parse(%q) = (%#v, %d), want (%#v, %d)", tt.input, ev, n, tt.want, tt.n)
			}
		})
	}
}

func TestParseMouse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  MouseEvent
	}{
		{
			"sgr left press", "\x1b[<0;5;3M",
			MouseEvent{Kind: MousePress, Button: ButtonLeft, X: 4, Y: 2},
		},
		{
			"sgr right release", "\x1b[<2;1;1m",
			MouseEvent{Kind: MouseRelease, Button: ButtonRight, X: 0, Y: 0},
		},
		{
			"sgr wheel up", "\x1b[<64;10;10M",
			MouseEvent{Kind: MousePress, Button: ButtonWheelUp, X: 9, Y: 9},
		},
		{
			"sgr wheel down", "\x1b[<65;10;10M",
			MouseEvent{Kind: MousePress, Button: ButtonWheelDown, X: 9, Y: 9},
		},
		{
			"sgr ctrl drag", "\x1b[<48;7;8M",
			MouseEvent{Kind: MouseMotion, Button: ButtonLeft, X: 6, Y: 7, Mod: Mod{Ctrl: true}},
		},
		{
			"x10 press", "\x1b[M\x20\x25\x23",
			MouseEvent{Kind: MousePress, Button: ButtonLeft, X: 4, Y: 2},
		},
		{
			"x10 release", "\x1b[M\x23\x21\x21",
			MouseEvent{Kind: MouseRelease, Button: ButtonNone, X: 0, Y: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, n := Parse([]byte(tt.input), false)
			if ev != Event(tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, ev, tt.want)
			}
			if n != len(tt.input) {
				t.Errorf("Parse(%q) consumed %d bytes, want %d", tt.input, n, len(tt.input))
			}
		})
	}
}

func TestParseIncomplete(t *testing.T) {
	inputs := []string{
		"\x1b[",
		"\x1b[1;",
		"\x1b[<0;5",
		"\x1bO",
		"\x1b[M\x20\x25",
		"\x1b[200~partial paste",
		"\xc3", // first byte of a two-byte rune
	}
	for _, input := range inputs {
		if ev, n := Parse([]byte(input), true); n != 0 {
			t.Errorf("Parse(%q) = (%#v, %d), want incomplete", input, ev, n)
		}
	}
}

func TestParseLoneEscape(t *testing.T) {
	ev, n := Parse([]byte{0x1b}, false)
	if ev != Event(KeyEvent{Key: Key{Sym: SymEscape}}) || n != 1 {
		t.Errorf("lone ESC without pending bytes = (%#v, %d), want Escape key", ev, n)
	}
	if _, n := Parse([]byte{0x1b}, true); n != 0 {
		t.Error("lone ESC with pending bytes must wait for more input")
	}
}

func TestParseUnknownSequenceConsumed(t *testing.T) {
	inputs := []string{
		"\x1b[?1004h", // mode set, not an event
		"\x1b[99~",    // unmapped tilde code
		"\x1b[18t",    // unsupported window report
		"\x1bOZ",      // unmapped SS3 final
	}
	for _, input := range inputs {
		ev, n := Parse([]byte(input), false)
		if ev != nil {
			t.Errorf("Parse(%q) = %#v, want no event", input, ev)
		}
		if n != len(input) {
			t.Errorf("Parse(%q) consumed %d bytes, want %d", input, n, len(input))
		}
	}
}

func TestParseSequentialStream(t *testing.T) {
	// A realistic burst: arrow, typed text, then a paste.
	buf := []byte("\x1b[Bab\x1b[200~x\x1b[201~")
	var events []Event
	for len(buf) > 0 {
		ev, n := Parse(buf, false)
		if n == 0 {
			t.Fatalf("unexpected incomplete parse at %q", buf)
		}
		if ev != nil {
			events = append(events, ev)
		}
		buf = buf[n:]
	}
	want := []Event{
		KeyEvent{Key: Key{Sym: SymDown}},
		KeyEvent{Key: Key{Ch: 'a'}},
		KeyEvent{Key: Key{Ch: 'b'}},
		PasteEvent{Text: "x"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %#v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %#v, want %#v", i, events[i], want[i])
		}
	}
}
