package input

import (
	"bytes"
	"unicode/utf8"
)

// maxSeqLength bounds escape-sequence accumulation. A CSI that has not
// terminated within this many bytes is discarded rather than waited on.
const maxSeqLength = 64

// Parse decodes the first event in buf.
//
// The return contract is three-valued:
//
//	n == 0             buf holds an incomplete sequence; read more bytes
//	                   and call again with the same prefix
//	ev == nil, n > 0   a complete but unrecognized sequence; skip n bytes
//	ev != nil          one event decoded from buf[:n]
//
// more tells the parser whether additional bytes may already be in
// flight. It only affects a lone ESC byte: with more set the ESC might
// introduce a sequence and Parse waits; without it the ESC is the
// Escape key. No timer is involved.
func Parse(buf []byte, more bool) (Event, int) {
	if len(buf) == 0 {
		return nil, 0
	}
	if buf[0] == 0x1b {
		return parseEscape(buf, more)
	}
	return parseSingle(buf)
}

// parseSingle handles everything that does not start with ESC: control
// bytes and UTF-8 character keys.
func parseSingle(buf []byte) (Event, int) {
	b := buf[0]
	switch {
	case b == 0x0d:
		return KeyEvent{Key: Key{Sym: SymEnter}}, 1
	case b == 0x09:
		return KeyEvent{Key: Key{Sym: SymTab}}, 1
	case b == 0x7f:
		return KeyEvent{Key: Key{Sym: SymBackspace}}, 1
	case b == 0x00:
		return KeyEvent{Key: Key{Ch: ' '}, Mod: Mod{Ctrl: true}}, 1
	case b < 0x1b:
		// Ctrl chords arrive as C0 bytes 0x01-0x1a.
		return KeyEvent{Key: Key{Ch: rune('a' + b - 1)}, Mod: Mod{Ctrl: true}}, 1
	case b < 0x20:
		// 0x1c-0x1f have no portable key mapping.
		return nil, 1
	}

	if !utf8.FullRune(buf) {
		if len(buf) >= utf8.UTFMax {
			return nil, 1
		}
		return nil, 0
	}
	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size == 1 {
		return nil, 1
	}
	return KeyEvent{Key: Key{Ch: r}}, size
}

func parseEscape(buf []byte, more bool) (Event, int) {
	if len(buf) == 1 {
		if more {
			return nil, 0
		}
		return KeyEvent{Key: Key{Sym: SymEscape}}, 1
	}
	switch buf[1] {
	case '[':
		return parseCSI(buf)
	case 'O':
		return parseSS3(buf)
	}
	// ESC prefixing any other byte is the Alt modifier.
	ev, n := Parse(buf[1:], more)
	if n == 0 {
		return nil, 0
	}
	if key, ok := ev.(KeyEvent); ok {
		key.Mod.Alt = true
		return key, 1 + n
	}
	return ev, 1 + n
}

var csiKeys = map[byte]KeySym{
	'A': SymUp,
	'B': SymDown,
	'C': SymRight,
	'D': SymLeft,
	'H': SymHome,
	'F': SymEnd,
	'P': SymF1,
	'Q': SymF2,
	'R': SymF3,
	'S': SymF4,
}

var tildeKeys = map[int]KeySym{
	1:  SymHome,
	2:  SymInsert,
	3:  SymDelete,
	4:  SymEnd,
	5:  SymPageUp,
	6:  SymPageDown,
	7:  SymHome,
	8:  SymEnd,
	11: SymF1,
	12: SymF2,
	13: SymF3,
	14: SymF4,
	15: SymF5,
	17: SymF6,
	18: SymF7,
	19: SymF8,
	20: SymF9,
	21: SymF10,
	23: SymF11,
	24: SymF12,
}

// parseCSI decodes sequences introduced by ESC [.
func parseCSI(buf []byte) (Event, int) {
	if len(buf) >= 3 && buf[2] == 'M' {
		return parseX10Mouse(buf)
	}

	// Scan parameter bytes up to the final byte.
	i := 2
	for i < len(buf) {
		b := buf[i]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		i++
		if i-2 > maxSeqLength {
			return nil, i
		}
	}
	if i >= len(buf) {
		return nil, 0
	}
	final := buf[i]
	raw := buf[2:i]
	end := i + 1

	if len(raw) > 0 && raw[0] == '<' {
		return parseSGRMouse(raw[1:], final, end)
	}

	params := csiParams(raw)
	param := func(idx, def int) int {
		if idx < len(params) && params[idx] > 0 {
			return params[idx]
		}
		return def
	}

	switch final {
	case 'A', 'B', 'C', 'D', 'H', 'F', 'P', 'Q', 'R', 'S':
		return KeyEvent{
			Key: Key{Sym: csiKeys[final]},
			Mod: modFromCode(param(1, 1)),
		}, end
	case 'Z':
		return KeyEvent{Key: Key{Sym: SymTab}, Mod: Mod{Shift: true}}, end
	case '~':
		code := param(0, 0)
		if code == 200 {
			return parsePaste(buf, end)
		}
		sym, ok := tildeKeys[code]
		if !ok {
			return nil, end
		}
		return KeyEvent{Key: Key{Sym: sym}, Mod: modFromCode(param(1, 1))}, end
	case 't':
		if param(0, 0) == 8 && len(params) >= 3 {
			return ResizeEvent{Rows: params[1], Cols: params[2]}, end
		}
		return nil, end
	case 'I':
		return FocusEvent{Gained: true}, end
	case 'O':
		return FocusEvent{Gained: false}, end
	}
	return nil, end
}

var pasteEnd = []byte("\x1b[201~")

// parsePaste extracts a bracketed paste. start indexes the first text
// byte, just past the opening CSI 200~.
func parsePaste(buf []byte, start int) (Event, int) {
	j := bytes.Index(buf[start:], pasteEnd)
	if j < 0 {
		return nil, 0
	}
	text := string(buf[start : start+j])
	return PasteEvent{Text: text}, start + j + len(pasteEnd)
}

func parseSS3(buf []byte) (Event, int) {
	if len(buf) < 3 {
		return nil, 0
	}
	var sym KeySym
	switch b := buf[2]; b {
	case 'A', 'B', 'C', 'D', 'H', 'F', 'P', 'Q', 'R', 'S':
		sym = csiKeys[b]
	default:
		return nil, 3
	}
	return KeyEvent{Key: Key{Sym: sym}}, 3
}

// Mouse wire-format button bits, shared by the X10 and SGR encodings.
const (
	mouseShift  = 4
	mouseAlt    = 8
	mouseCtrl   = 16
	mouseMotion = 32
	mouseWheel  = 64
)

func decodeMouseBits(b int) (MouseButton, MouseKind, Mod) {
	mod := Mod{
		Shift: b&mouseShift != 0,
		Alt:   b&mouseAlt != 0,
		Ctrl:  b&mouseCtrl != 0,
	}
	kind := MousePress
	if b&mouseMotion != 0 {
		kind = MouseMotion
	}
	var button MouseButton
	if b&mouseWheel != 0 {
		button = ButtonWheelUp
		if b&1 != 0 {
			button = ButtonWheelDown
		}
	} else {
		button = MouseButton(b & 3) // 3 means no button held
	}
	return button, kind, mod
}

// parseSGRMouse decodes ESC [ < b ; x ; y M/m. Coordinates on the wire
// are 1-based.
func parseSGRMouse(raw []byte, final byte, end int) (Event, int) {
	if final != 'M' && final != 'm' {
		return nil, end
	}
	params := csiParams(raw)
	if len(params) < 3 {
		return nil, end
	}
	button, kind, mod := decodeMouseBits(params[0])
	if final == 'm' {
		kind = MouseRelease
	}
	return MouseEvent{
		Kind:   kind,
		Button: button,
		X:      params[1] - 1,
		Y:      params[2] - 1,
		Mod:    mod,
	}, end
}

// parseX10Mouse decodes the legacy ESC [ M b x y form, all three
// trailing bytes offset by 32.
func parseX10Mouse(buf []byte) (Event, int) {
	if len(buf) < 6 {
		return nil, 0
	}
	b := int(buf[3]) - 32
	button, kind, mod := decodeMouseBits(b)
	if b&3 == 3 && b&mouseWheel == 0 && b&mouseMotion == 0 {
		// X10 reports releases as button 3 without saying which button.
		kind = MouseRelease
		button = ButtonNone
	}
	return MouseEvent{
		Kind:   kind,
		Button: button,
		X:      int(buf[4]) - 32 - 1,
		Y:      int(buf[5]) - 32 - 1,
		Mod:    mod,
	}, 6
}

// csiParams parses semicolon-separated decimal parameters. Colons are
// treated like semicolons; absent parameters decode as 0.
func csiParams(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	params := make([]int, 0, 4)
	cur := 0
	for _, b := range raw {
		switch {
		case b >= '0' && b <= '9':
			cur = cur*10 + int(b-'0')
			if cur > 1<<20 {
				cur = 1 << 20
			}
		case b == ';' || b == ':':
			params = append(params, cur)
			cur = 0
		}
	}
	return append(params, cur)
}
