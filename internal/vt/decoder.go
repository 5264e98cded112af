package vt

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// maxOscLength bounds OSC string accumulation. Longer strings are dropped,
// treating the sequence as truncated.
const maxOscLength = 4096

// decoder states.
type dstate int

const (
	stGround dstate = iota
	stEscape
	stCSI
	stOSC
	stOSCEsc
	stCharset
	stCharsetOther
)

// Decoder is the output-direction escape-sequence state machine. It consumes
// arbitrary byte chunks from a child process, possibly split mid-sequence or
// mid-rune, and drives the bound Screen. Malformed input is skipped silently;
// Feed never panics.
type Decoder struct {
	scr *Screen

	state dstate

	// CSI accumulation.
	params  []byte
	private bool

	// OSC accumulation.
	osc         []byte
	oscOverflow bool

	// Partial UTF-8 rune carried across Feed boundaries.
	pending []byte

	// resp receives query replies (cursor position reports). Optional.
	resp io.Writer
}

// NewDecoder returns a decoder bound to scr.
func NewDecoder(scr *Screen) *Decoder {
	return &Decoder{scr: scr}
}

// Screen returns the bound screen.
func (d *Decoder) Screen() *Screen { return d.scr }

// SetResponder sets the writer that receives replies to queries such as
// CSI 6 n. A nil responder drops queries.
func (d *Decoder) SetResponder(w io.Writer) { d.resp = w }

// Feed processes a chunk of output bytes incrementally. Sequences may be
// split at any byte boundary between calls.
func (d *Decoder) Feed(p []byte) {
	for _, b := range p {
		d.advance(b)
	}
}

func (d *Decoder) advance(b byte) {
	switch d.state {
	case stGround:
		d.ground(b)
	case stEscape:
		d.escape(b)
	case stCSI:
		d.csi(b)
	case stOSC:
		d.oscByte(b)
	case stOSCEsc:
		if b == '\\' {
			d.finishOSC()
			d.state = stGround
			return
		}
		// The ESC did not start a terminator; the OSC is truncated. Drop it
		// and treat the ESC as a fresh introducer.
		d.resetOSC()
		d.state = stEscape
		d.escape(b)
	case stCharset:
		switch b {
		case 'B':
			d.scr.Apply(SelectCharset{Set: CharsetASCII})
		case '0':
			d.scr.Apply(SelectCharset{Set: CharsetDECGraphics})
		}
		d.state = stGround
	case stCharsetOther:
		// Set byte of a G1-G3 designation. Only G0 is modeled, so the byte
		// is consumed without touching the active set.
		d.state = stGround
	}
}

func (d *Decoder) ground(b byte) {
	if b >= 0x20 && b != 0x7f {
		d.printable(b)
		return
	}
	d.pending = d.pending[:0]
	switch b {
	case 0x1b:
		d.state = stEscape
	case '\n', 0x0b, 0x0c:
		d.scr.lineFeed()
	case '\r':
		d.scr.CarriageReturn()
	case '\b':
		d.scr.Backspace()
	case '\t':
		d.scr.Tab()
	default:
		// Remaining C0 controls (BEL, NUL, SO/SI, ...) are ignored.
	}
}

// printable reassembles UTF-8 across chunk boundaries and writes complete
// runes to the screen.
func (d *Decoder) printable(b byte) {
	if len(d.pending) == 0 && b < utf8.RuneSelf {
		d.scr.WriteRune(rune(b))
		return
	}
	d.pending = append(d.pending, b)
	if !utf8.FullRune(d.pending) {
		if len(d.pending) >= utf8.UTFMax {
			d.pending = d.pending[:0]
		}
		return
	}
	r, _ := utf8.DecodeRune(d.pending)
	d.pending = d.pending[:0]
	if r != utf8.RuneError {
		d.scr.WriteRune(r)
	}
}

func (d *Decoder) escape(b byte) {
	d.state = stGround
	switch b {
	case '[':
		d.params = d.params[:0]
		d.private = false
		d.state = stCSI
	case ']':
		d.resetOSC()
		d.state = stOSC
	case '(':
		d.state = stCharset
	case ')', '*', '+':
		d.state = stCharsetOther
	case '7':
		d.scr.Apply(SaveCursor{})
	case '8':
		d.scr.Apply(RestoreCursor{})
	case 'D':
		d.scr.Apply(Index{})
	case 'M':
		d.scr.Apply(ReverseIndex{})
	case 'c':
		d.scr.Apply(FullReset{})
	case 0x1b:
		d.state = stEscape
	default:
		// Unrecognized introducer, resume at ground.
	}
}

func (d *Decoder) csi(b byte) {
	switch {
	case b >= '0' && b <= '9' || b == ';' || b == ':':
		if len(d.params) < 64 {
			d.params = append(d.params, b)
		} else {
			d.private = true // overlong, discard on dispatch
		}
	case b == '?' || b == '<' || b == '=' || b == '>':
		d.private = true
	case b >= 0x20 && b <= 0x2f:
		// Intermediate bytes select sequences outside the supported set.
		d.private = true
	case b >= 0x40 && b <= 0x7e:
		if !d.private {
			d.dispatchCSI(b)
		}
		d.state = stGround
	case b == 0x1b:
		d.state = stEscape
	default:
		// Control byte inside CSI aborts the sequence.
		d.state = stGround
	}
}

// dispatchCSI converts the accumulated parameter bytes and final byte into a
// Command and applies it. Unknown final bytes are ignored.
func (d *Decoder) dispatchCSI(final byte) {
	params := parseParams(d.params)
	arg := func(i, def int) int {
		if i < len(params) && params[i].Value > 0 {
			return params[i].Value
		}
		return def
	}

	var cmd Command
	switch final {
	case 'A':
		cmd = CursorUp{N: arg(0, 1)}
	case 'B':
		cmd = CursorDown{N: arg(0, 1)}
	case 'C':
		cmd = CursorForward{N: arg(0, 1)}
	case 'D':
		cmd = CursorBackward{N: arg(0, 1)}
	case 'H', 'f':
		cmd = CursorPosition{Row: arg(0, 1), Col: arg(1, 1)}
	case 'J':
		cmd = EraseDisplay{Mode: arg(0, 0)}
	case 'K':
		cmd = EraseLine{Mode: arg(0, 0)}
	case 'S':
		cmd = ScrollUp{N: arg(0, 1)}
	case 'T':
		cmd = ScrollDown{N: arg(0, 1)}
	case 's':
		cmd = SaveCursor{}
	case 'u':
		cmd = RestoreCursor{}
	case 'r':
		cmd = SetScrollRegion{Top: arg(0, 0), Bottom: arg(1, 0)}
	case 'm':
		cmd = SGR{Params: params}
	case 'n':
		d.deviceStatus(arg(0, 0))
		return
	default:
		return
	}
	d.scr.Apply(cmd)
}

// deviceStatus answers status queries on the responder. The cursor position
// report clamps to the full screen, not the scroll region, and is 1-based.
func (d *Decoder) deviceStatus(kind int) {
	if d.resp == nil {
		return
	}
	switch kind {
	case 5: // operating status: OK
		_, _ = d.resp.Write([]byte("\x1b[0n"))
	case 6:
		x, y := d.scr.CursorPos()
		x = clamp(x, 0, d.scr.Width()-1)
		y = clamp(y, 0, d.scr.Height()-1)
		_, _ = fmt.Fprintf(d.resp, "\x1b[%d;%dR", y+1, x+1)
	}
}

func (d *Decoder) oscByte(b byte) {
	switch b {
	case 0x07:
		d.finishOSC()
		d.state = stGround
	case 0x1b:
		d.state = stOSCEsc
	default:
		if len(d.osc) < maxOscLength {
			d.osc = append(d.osc, b)
		} else {
			d.oscOverflow = true
		}
	}
}

func (d *Decoder) resetOSC() {
	d.osc = d.osc[:0]
	d.oscOverflow = false
}

// parseParams splits raw CSI parameter bytes into numeric parameters,
// marking colon-attached sub-parameters.
func parseParams(raw []byte) []SGRParam {
	if len(raw) == 0 {
		return nil
	}
	params := make([]SGRParam, 0, 8)
	cur := SGRParam{}
	for _, b := range raw {
		switch b {
		case ';', ':':
			params = append(params, cur)
			cur = SGRParam{Sub: b == ':'}
		default:
			v := cur.Value*10 + int(b-'0')
			if v > 1<<24 {
				v = 1 << 24
			}
			cur.Value = v
		}
	}
	return append(params, cur)
}
