package recovery

import (
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/nextlevelbuilder/gorepl/internal/linesource"
)

// Error kinds that may appear in a retry allow-list.
const (
	KindEIO           = "eio"
	KindEINTR         = "eintr"
	KindEAGAIN        = "eagain"
	KindTimeout       = "timeout"
	KindUnexpectedEOF = "unexpected_eof"
	KindEncoding      = "encoding"
	KindClosedPipe    = "closed_pipe"
	KindAny           = "any"
)

var kindMatchers = map[string]func(error) bool{
	KindEIO:           func(err error) bool { return errors.Is(err, syscall.EIO) },
	KindEINTR:         func(err error) bool { return errors.Is(err, syscall.EINTR) },
	KindEAGAIN:        func(err error) bool { return errors.Is(err, syscall.EAGAIN) },
	KindTimeout:       isTimeout,
	KindUnexpectedEOF: func(err error) bool { return errors.Is(err, io.ErrUnexpectedEOF) },
	KindEncoding:      func(err error) bool { return errors.Is(err, linesource.ErrBadEncoding) },
	KindClosedPipe:    func(err error) bool { return errors.Is(err, io.ErrClosedPipe) },
	KindAny:           func(error) bool { return true },
}

// DefaultKinds is the allow-list used when none is configured.
var DefaultKinds = Kinds{KindEIO, KindEINTR, KindEAGAIN, KindTimeout, KindUnexpectedEOF, KindEncoding}

// KnownKinds returns every kind name, sorted.
func KnownKinds() []string {
	names := make([]string, 0, len(kindMatchers))
	for k := range kindMatchers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ValidKind reports whether name is a known kind.
func ValidKind(name string) bool {
	_, ok := kindMatchers[strings.ToLower(name)]
	return ok
}

// Kinds is an allow-list of error kinds that are safe to report and retry.
type Kinds []string

// Match returns the first allow-listed kind that err belongs to. Control
// flow conditions (end of session, interrupts, end of stream) are never
// faults, whatever the list holds, "any" included.
func (k Kinds) Match(err error) (string, bool) {
	if err == nil || isControl(err) {
		return "", false
	}
	for _, name := range k {
		m, ok := kindMatchers[strings.ToLower(name)]
		if ok && m(err) {
			return name, true
		}
	}
	return "", false
}

func isControl(err error) bool {
	return errors.Is(err, linesource.ErrEndOfSession) ||
		errors.Is(err, linesource.ErrInterrupted) ||
		errors.Is(err, io.EOF)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
