package vt

import "image/color"

// applySGR walks a Select Graphic Rendition parameter list and folds it into
// the screen's style accumulator. Out-of-range parameters are ignored and
// never abort the remainder of the list, except for corrupted extended-color
// groups which terminate the list (the byte stream is unreliable past them).
func (s *Screen) applySGR(params []SGRParam) {
	if len(params) == 0 {
		// CSI m with no parameters is reset-all.
		s.style = Style{}
		return
	}

	for i := 0; i < len(params); {
		p := params[i].Value
		consumed := 1

		switch {
		case p == 0:
			s.style = Style{}
		case p == 1:
			s.style.Bold = true
		case p == 2:
			s.style.Faint = true
		case p == 3:
			s.style.Italic = true
		case p == 4:
			s.style.Underline = true
		case p == 5:
			s.style.Blink = true
		case p == 7:
			s.style.Reverse = true
		case p == 8:
			s.style.Conceal = true
		case p == 9:
			s.style.Strikethrough = true
		case p == 22:
			// Bold and faint are an exclusive pair on the wire; resetting
			// one must reset both.
			s.style.Bold = false
			s.style.Faint = false
		case p == 23:
			s.style.Italic = false
		case p == 24:
			s.style.Underline = false
		case p == 25:
			s.style.Blink = false
		case p == 27:
			s.style.Reverse = false
		case p == 28:
			s.style.Conceal = false
		case p == 29:
			s.style.Strikethrough = false
		case p >= 30 && p <= 37:
			s.style.Fg = BasicColor(p - 30)
		case p == 38:
			c, n := extendedColor(params[i:])
			if n == 0 {
				return
			}
			s.style.Fg = c
			consumed = n
		case p == 39:
			s.style.Fg = nil
		case p >= 40 && p <= 47:
			s.style.Bg = BasicColor(p - 40)
		case p == 48:
			c, n := extendedColor(params[i:])
			if n == 0 {
				return
			}
			s.style.Bg = c
			consumed = n
		case p == 49:
			s.style.Bg = nil
		case p >= 90 && p <= 97:
			s.style.Fg = BasicColor(p - 90 + 8)
		case p >= 100 && p <= 107:
			s.style.Bg = BasicColor(p - 100 + 8)
		}

		i += consumed
		// Skip sub-parameters attached to a parameter we did not interpret
		// (e.g. underline styles like 4:3).
		for i < len(params) && params[i].Sub {
			i++
		}
	}
}

// extendedColor decodes a 38/48 extended-color group. The group length is
// protocol-mandated: 3 parameters for a 256-color index, 5 for RGB, in either
// colon- or semicolon-separated form. Returns the parameter count consumed,
// or 0 when the group is corrupted.
func extendedColor(params []SGRParam) (color.Color, int) {
	if len(params) < 2 {
		return nil, 0
	}
	switch params[1].Value {
	case 5:
		if len(params) < 3 {
			return nil, 0
		}
		return IndexedColor(params[2].Value), 3
	case 2:
		if len(params) < 5 {
			return nil, 0
		}
		return RGBColor(params[2].Value, params[3].Value, params[4].Value), 5
	}
	return nil, 0
}
