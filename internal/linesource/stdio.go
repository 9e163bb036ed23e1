package linesource

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/nextlevelbuilder/gorepl/internal/terminal"
)

type readResult struct {
	line string
	err  error
}

// StdioSource reads newline-terminated lines from an io.Reader. A background
// pump owns the reader so that a blocked read can be abandoned through the
// context without losing the line it eventually returns.
type StdioSource struct {
	name    string
	r       *bufio.Reader
	closer  io.Closer
	decoder *encoding.Decoder
	tty     bool

	start   sync.Once
	results chan readResult
	done    chan struct{}
	stop    sync.Once
}

// NewStdio wraps r. encodingName selects the input encoding ("" or "utf-8"
// means UTF-8 and is validated, not transcoded).
func NewStdio(name string, r io.Reader, encodingName string) (*StdioSource, error) {
	s := &StdioSource{
		name:    name,
		r:       bufio.NewReader(r),
		results: make(chan readResult),
		done:    make(chan struct{}),
		tty:     terminal.IsInteractive(r),
	}
	if c, ok := r.(io.Closer); ok && r != os.Stdin {
		s.closer = c
	}
	if n := strings.ToLower(strings.TrimSpace(encodingName)); n != "" && n != "utf-8" && n != "utf8" {
		enc, err := htmlindex.Get(n)
		if err != nil {
			return nil, errors.Wrapf(err, "input encoding %q", encodingName)
		}
		s.decoder = enc.NewDecoder()
	}
	return s, nil
}

// OpenFile returns a source over the lines of a script file. The file is
// closed with the source.
func OpenFile(path, encodingName string) (*StdioSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open script")
	}
	s, err := NewStdio("file:"+path, f, encodingName)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *StdioSource) Name() string { return s.name }

// Echoes reports whether the terminal driver echoes what the user types.
func (s *StdioSource) Echoes() bool { return s.tty }

// Next returns the next line, io.EOF once the reader is exhausted, or the
// context error if ctx ends first.
func (s *StdioSource) Next(ctx context.Context) (string, error) {
	s.start.Do(func() { go s.pump() })

	select {
	case res, ok := <-s.results:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	case <-s.done:
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the pump and closes the underlying reader when owned.
func (s *StdioSource) Close() error {
	var err error
	s.stop.Do(func() {
		close(s.done)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

func (s *StdioSource) pump() {
	defer close(s.results)
	for {
		raw, err := s.r.ReadString('\n')
		if raw != "" {
			line, derr := s.decode(strings.TrimRight(raw, "\r\n"))
			if !s.send(readResult{line: line, err: derr}) {
				return
			}
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			return
		}
		if !s.send(readResult{err: errors.Wrap(err, s.name+" read")}) {
			return
		}
	}
}

func (s *StdioSource) send(res readResult) bool {
	select {
	case s.results <- res:
		return true
	case <-s.done:
		return false
	}
}

func (s *StdioSource) decode(line string) (string, error) {
	if s.decoder == nil {
		if !utf8.ValidString(line) {
			return "", errors.WithStack(ErrBadEncoding)
		}
		return line, nil
	}
	out, err := s.decoder.String(line)
	if err != nil {
		return "", errors.Wrap(ErrBadEncoding, err.Error())
	}
	return out, nil
}
