package vt

// Charset identifies the active G0 character set.
type Charset int

const (
	// CharsetASCII is the default US-ASCII set (ESC ( B).
	CharsetASCII Charset = iota
	// CharsetDECGraphics is the DEC special line-drawing set (ESC ( 0).
	CharsetDECGraphics
)

// decGraphics maps the DEC special graphics range 0x60-0x7e to their
// line-drawing runes. Bytes outside the map render as themselves.
var decGraphics = map[rune]rune{
	'`': '◆',
	'a': '▒',
	'b': '␉',
	'c': '␌',
	'd': '␍',
	'e': '␊',
	'f': '°',
	'g': '±',
	'h': '␤',
	'i': '␋',
	'j': '┘',
	'k': '┐',
	'l': '┌',
	'm': '└',
	'n': '┼',
	'o': '⎺',
	'p': '⎻',
	'q': '─',
	'r': '⎼',
	's': '⎽',
	't': '├',
	'u': '┤',
	'v': '┴',
	'w': '┬',
	'x': '│',
	'y': '≤',
	'z': '≥',
	'{': 'π',
	'|': '≠',
	'}': '£',
	'~': '·',
}

// translate maps r through the active character set.
func (cs Charset) translate(r rune) rune {
	if cs == CharsetDECGraphics {
		if t, ok := decGraphics[r]; ok {
			return t
		}
	}
	return r
}
