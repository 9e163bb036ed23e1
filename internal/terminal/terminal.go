// Package terminal probes the output sink at runtime and supplies the cursor
// escape sequences used for prompt repair on each terminal family.
package terminal

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Family selects the escape-sequence convention of the attached terminal.
type Family int

const (
	// FamilyANSI understands CSI cursor movement and erase sequences.
	FamilyANSI Family = iota
	// FamilyBasic only understands carriage return (TERM=dumb, legacy
	// Windows consoles). Lines cannot be repainted in place.
	FamilyBasic
)

func (f Family) String() string {
	switch f {
	case FamilyANSI:
		return "ansi"
	case FamilyBasic:
		return "basic"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily maps a config value to a Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ansi", "vt", "xterm":
		return FamilyANSI, nil
	case "basic", "dumb":
		return FamilyBasic, nil
	}
	return FamilyANSI, fmt.Errorf("unknown terminal family %q", s)
}

// CursorReset returns the sequence that moves to column one and clears
// whatever partial line the host left behind.
func (f Family) CursorReset() string {
	if f == FamilyBasic {
		return "\r"
	}
	return "\r" + ansi.EraseEntireLine
}

// Repaint returns the sequence that moves the cursor back over rows
// already-printed rows and clears them. ok is false when the family cannot
// move the cursor upwards.
func (f Family) Repaint(rows int) (seq string, ok bool) {
	if f == FamilyBasic {
		return "", false
	}
	if rows < 1 {
		rows = 1
	}
	return "\r" + ansi.CursorUp(rows) + ansi.EraseScreenBelow, true
}

// Probe is the result of inspecting an output sink.
type Probe struct {
	Interactive bool
	Family      Family
	Width       int // columns, 0 when unknown
}

// Detect inspects w and the process environment.
func Detect(w io.Writer) Probe {
	p := Probe{Family: DetectFamily(os.Getenv, runtime.GOOS)}

	fd, ok := fdOf(w)
	if !ok {
		return p
	}
	p.Interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if p.Interactive {
		if width, _, err := term.GetSize(int(fd)); err == nil {
			p.Width = width
		}
	}
	return p
}

// IsInteractive reports whether r or w is attached to a terminal.
func IsInteractive(v any) bool {
	fd, ok := fdOf(v)
	if !ok {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// DetectFamily chooses a family from environment variables. Windows consoles
// count as ANSI only when a VT-capable host (Windows Terminal, ConEmu,
// mintty) announces itself.
func DetectFamily(getenv func(string) string, goos string) Family {
	termName := strings.ToLower(getenv("TERM"))
	if termName == "dumb" {
		return FamilyBasic
	}
	if goos == "windows" {
		if getenv("WT_SESSION") != "" || getenv("ConEmuANSI") == "ON" || termName != "" {
			return FamilyANSI
		}
		return FamilyBasic
	}
	return FamilyANSI
}

// Flush pushes buffered output to the terminal when w buffers.
func Flush(w io.Writer) error {
	switch f := w.(type) {
	case interface{ Flush() error }:
		return f.Flush()
	case interface{ Flush() }:
		f.Flush()
	}
	return nil
}

func fdOf(v any) (uintptr, bool) {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return 0, false
	}
	return f.Fd(), true
}
