// Package render paints the active session's virtual screen and a
// session status bar to the physical terminal.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"

	"github.com/dodorz/vtmux/internal/mux"
	"github.com/dodorz/vtmux/internal/vt"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))
	activeTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true)
	stoppedTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("203"))
)

// TermRenderer paints full frames to one writer. Output colors are
// downsampled to the terminal's detected capability.
type TermRenderer struct {
	mu  sync.Mutex
	w   io.Writer
	buf bytes.Buffer
}

// New wraps w, downsampling colors for the given environment.
func New(w io.Writer, environ []string) *TermRenderer {
	return &TermRenderer{w: colorprofile.NewWriter(w, environ)}
}

// Render paints the active session's screen and the status bar. Frames
// are assembled off-terminal and written in one call to avoid tearing.
func (r *TermRenderer) Render(active *mux.Session, sessions []*mux.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scr := active.Screen
	r.buf.Reset()
	r.buf.WriteString("\x1b[?25l") // hide cursor while painting

	var last vt.Style
	for y := 0; y < scr.Height(); y++ {
		r.buf.Write(vt.Encode(vt.CursorPosition{Row: y + 1, Col: 1}))
		for _, cell := range scr.Line(y) {
			if cell.Spacer {
				continue
			}
			if !cell.Style.Equal(last) {
				r.buf.Write(vt.Encode(vt.SGR{Params: styleParams(cell.Style)}))
				last = cell.Style
			}
			if cell.Rune == 0 {
				r.buf.WriteByte(' ')
			} else {
				r.buf.WriteRune(cell.Rune)
			}
		}
	}
	r.buf.Write(vt.Encode(vt.SGR{}))
	r.buf.Write(vt.Encode(vt.CursorPosition{Row: scr.Height() + 1, Col: 1}))
	r.buf.WriteString(statusLine(active, sessions, scr.Width()))

	x, y := scr.CursorPos()
	r.buf.Write(vt.Encode(vt.CursorPosition{Row: y + 1, Col: x + 1}))
	r.buf.WriteString("\x1b[?25h")

	_, _ = r.w.Write(r.buf.Bytes())
}

// statusLine renders the session tabs with resource stats, truncated
// or padded to width.
func statusLine(active *mux.Session, sessions []*mux.Session, width int) string {
	var sb bytes.Buffer
	for i, s := range sessions {
		label := fmt.Sprintf(" %d:%s ", i+1, s.Name)
		switch {
		case s == active:
			label = fmt.Sprintf(" %d:%s %.0f%% %s ",
				i+1, s.Name, s.Stats.CPUPercent, formatRSS(s.Stats.MemoryRSS))
			sb.WriteString(activeTabStyle.Render(label))
		case !s.Running:
			sb.WriteString(stoppedTabStyle.Render(label + "(exited) "))
		default:
			sb.WriteString(statusBarStyle.Render(label))
		}
	}
	return statusBarStyle.Width(width).Render(sb.String())
}

func formatRSS(rss uint64) string {
	switch {
	case rss >= 1<<30:
		return fmt.Sprintf("%.1fG", float64(rss)/(1<<30))
	case rss >= 1<<20:
		return fmt.Sprintf("%.0fM", float64(rss)/(1<<20))
	default:
		return fmt.Sprintf("%.0fK", float64(rss)/(1<<10))
	}
}

// styleParams converts a cell style to the SGR parameter list that
// reproduces it from a reset state.
func styleParams(st vt.Style) []vt.SGRParam {
	params := []vt.SGRParam{{Value: 0}}
	add := func(v int) { params = append(params, vt.SGRParam{Value: v}) }

	if st.Bold {
		add(1)
	}
	if st.Faint {
		add(2)
	}
	if st.Italic {
		add(3)
	}
	if st.Underline {
		add(4)
	}
	if st.Blink {
		add(5)
	}
	if st.Reverse {
		add(7)
	}
	if st.Conceal {
		add(8)
	}
	if st.Strikethrough {
		add(9)
	}
	params = appendColor(params, st.Fg, 30)
	params = appendColor(params, st.Bg, 40)
	return params
}

// appendColor emits the SGR parameters for one color. base is 30 for
// foreground, 40 for background.
func appendColor(params []vt.SGRParam, c color.Color, base int) []vt.SGRParam {
	add := func(vs ...int) []vt.SGRParam {
		for _, v := range vs {
			params = append(params, vt.SGRParam{Value: v})
		}
		return params
	}
	switch col := c.(type) {
	case nil:
		return params
	case ansi.BasicColor:
		n := int(col)
		if n < 8 {
			return add(base + n)
		}
		return add(base + 60 + n - 8)
	case ansi.IndexedColor:
		return add(base+8, 5, int(col))
	case ansi.TrueColor:
		v := uint32(col)
		return add(base+8, 2, int(v>>16&0xff), int(v>>8&0xff), int(v&0xff))
	}
	return params
}
