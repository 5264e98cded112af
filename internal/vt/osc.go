package vt

import (
	"bytes"
	"strconv"
)

// finishOSC dispatches a completed OSC string. Truncated or unparseable
// strings are dropped without touching the screen.
func (d *Decoder) finishOSC() {
	data := d.osc
	overflow := d.oscOverflow
	d.resetOSC()
	if overflow || len(data) == 0 {
		return
	}

	parts := bytes.Split(data, []byte{';'})
	cmd, err := strconv.Atoi(string(parts[0]))
	if err != nil {
		return
	}

	switch cmd {
	case 0, 2: // window title (0 also sets the icon name, which we fold in)
		if len(parts) < 2 {
			return
		}
		title := string(bytes.Join(parts[1:], []byte{';'}))
		d.scr.Apply(WindowTitle{Title: title})
	case 9:
		d.handleProgress(parts)
	}
}

// handleProgress parses the ConEmu-style OSC 9;4 progress report:
//
//	ESC ] 9 ; 4 ; state ; progress ST
//
// state 0 clears, 1 updates (progress clamped to 0-100), 2 errors,
// 3 is indeterminate. Unknown states are ignored.
func (d *Decoder) handleProgress(parts [][]byte) {
	if len(parts) < 2 || string(parts[1]) != "4" {
		return
	}
	state := 0
	if len(parts) >= 3 {
		v, err := strconv.Atoi(string(parts[2]))
		if err != nil {
			return
		}
		state = v
	}
	value := 0
	if len(parts) >= 4 {
		v, err := strconv.Atoi(string(parts[3]))
		if err != nil {
			return
		}
		value = v
	}
	d.scr.Apply(ProgressReport{State: state, Value: value})
}
