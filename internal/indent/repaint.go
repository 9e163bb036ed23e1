package indent

import (
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/nextlevelbuilder/gorepl/internal/terminal"
)

// Repainter rewrites an already-echoed line in place.
type Repainter struct {
	out     io.Writer
	probe   terminal.Probe
	enabled bool
}

// NewRepainter returns a repainter for out. It never writes unless enabled
// is set and the probe reports an interactive terminal.
func NewRepainter(out io.Writer, probe terminal.Probe, enabled bool) *Repainter {
	return &Repainter{out: out, probe: probe, enabled: enabled}
}

// Active reports whether Repaint can have any effect.
func (r *Repainter) Active() bool {
	if !r.enabled || !r.probe.Interactive {
		return false
	}
	_, ok := r.probe.Family.Repaint(1)
	return ok
}

// Repaint replaces prompt+echoed, which the user already submitted, with
// prompt+corrected. It reports whether anything was written.
func (r *Repainter) Repaint(prompt, echoed, corrected string) (bool, error) {
	if echoed == corrected || !r.Active() {
		return false, nil
	}
	seq, _ := r.probe.Family.Repaint(Rows(prompt+echoed, r.probe.Width))

	var b strings.Builder
	b.WriteString(seq)
	b.WriteString(prompt)
	b.WriteString(corrected)
	b.WriteByte('\n')
	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return false, err
	}
	return true, terminal.Flush(r.out)
}

// Rows is the number of terminal rows s occupies at the given width.
// Escape sequences take no columns; width <= 0 means no wrapping.
func Rows(s string, width int) int {
	rows := 0
	for _, seg := range strings.Split(s, "\n") {
		w := runewidth.StringWidth(ansi.Strip(seg))
		if width <= 0 || w == 0 {
			rows++
			continue
		}
		rows += (w-1)/width + 1
	}
	return rows
}
