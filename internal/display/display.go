// Package display renders the station state, either as a full screen
// terminal view or as log lines for the fields that changed.
package display

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell"

	"go-fm-rds/internal/rds"
)

// Status is what the receiver knows about the station at one point in time.
type Status struct {
	Data rds.Data
	RBDS bool // use North American program type names

	NGroup  int
	ErrSoft int
	ErrHard int

	PilotHz    float64
	PilotLevel float64
	Locked     bool
}

// Lines formats st for display, one string per screen row.
func Lines(st Status) []string {
	d := st.Data
	stereo := "mono  "
	if st.Locked {
		stereo = "stereo"
	}
	lines := []string{
		fmt.Sprintf("pilot %8.2f Hz  level %6.0f  %s", st.PilotHz, st.PilotLevel, stereo),
		fmt.Sprintf("groups %d  corrected %d  resync %d", st.NGroup, st.ErrSoft, st.ErrHard),
		"",
	}
	if !d.HasPI {
		return append(lines, "no RDS")
	}

	pi := fmt.Sprintf("PI %04X", d.PI)
	if call := rds.CallSign(d.PI); call != "" && st.RBDS {
		pi += "  " + call
	}
	lines = append(lines, pi, d.ServiceName(), "")

	flags := fmt.Sprintf("PTY %-2d %-24s", d.PTY, rds.PTYName(d.PTY, st.RBDS))
	if d.TP {
		flags += " TP"
	}
	if d.TA {
		flags += " TA"
	}
	if d.HasTA {
		if d.MS {
			flags += " music"
		} else {
			flags += " speech"
		}
	}
	lines = append(lines, flags)

	if d.HasPTYN {
		lines = append(lines, "PTYN "+d.PTYName())
	}
	if d.HasRT {
		lines = append(lines, "RT   "+d.Radiotext())
	}
	if d.HasClock {
		lines = append(lines, "TIME "+d.Clock.Time().Format("2006-01-02 15:04 -07:00"))
	}
	if d.HasAF {
		lines = append(lines, "AF   "+formatAF(d.AF))
	}
	if c, ok := d.AFBuilder().(rds.AFCollecting); ok {
		lines = append(lines, fmt.Sprintf("AF   receiving %d of %d", len(c.Collected), c.Expected))
	}
	return lines
}

func formatAF(list []float64) string {
	if len(list) == 0 {
		return "none"
	}
	parts := make([]string, len(list))
	for i, f := range list {
		if f >= 1e6 {
			parts[i] = fmt.Sprintf("%.1f", f/1e6)
		} else {
			parts[i] = fmt.Sprintf("%.0fk", f/1e3)
		}
	}
	return strings.Join(parts, " ")
}

// Screen draws Status on a terminal.
type Screen struct {
	scr       tcell.Screen
	title     tcell.Style
	body      tcell.Style
	lastLines int
}

// NewScreen wraps an initialized tcell screen.
func NewScreen(scr tcell.Screen) *Screen {
	black := tcell.Color(int32(232))
	white := tcell.Color(int32(255))
	return &Screen{
		scr:   scr,
		title: tcell.StyleDefault.Foreground(white).Background(black).Bold(true),
		body:  tcell.StyleDefault,
	}
}

// Draw replaces the screen contents with st.
func (s *Screen) Draw(st Status) {
	lines := Lines(st)
	w, _ := s.scr.Size()
	Clear(s.scr, 0, 0, max(len(lines), s.lastLines), w, ' ', s.body)
	DrawLines(s.scr, 0, 0, s.body, lines[:3])
	DrawLines(s.scr, 0, 3, s.title, lines[3:min(5, len(lines))])
	if len(lines) > 5 {
		DrawLines(s.scr, 0, 5, s.body, lines[5:])
	}
	s.lastLines = len(lines)
	s.scr.Show()
}

// Quit returns a channel that is closed when the user presses Ctrl-C, Esc or
// q. It owns the screen's event loop.
func (s *Screen) Quit() <-chan struct{} {
	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			switch e := s.scr.PollEvent().(type) {
			case nil:
				// Screen finalized.
				return
			case *tcell.EventKey:
				if e.Key() == tcell.KeyCtrlC || e.Key() == tcell.KeyEscape || e.Rune() == 'q' {
					return
				}
			case *tcell.EventResize:
				s.scr.Sync()
			}
		}
	}()
	return quit
}

// Clear fills a rectangle with c.
func Clear(scr tcell.Screen, x, y, h, w int, c rune, style tcell.Style) {
	for j := y; j < y+h; j++ {
		for i := x; i < x+w; i++ {
			scr.SetContent(i, j, c, nil, style)
		}
	}
}

// DrawLines writes lines starting at column x, row y.
func DrawLines(scr tcell.Screen, x, y int, style tcell.Style, lines []string) {
	for j, line := range lines {
		for i, c := range []rune(line) {
			scr.SetContent(x+i, y+j, c, nil, style)
		}
	}
}
