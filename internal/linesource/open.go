package linesource

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Adapter names accepted by Open.
const (
	AdapterAuto     = "auto"
	AdapterStdio    = "stdio"
	AdapterLiner    = "liner"
	AdapterReadline = "readline"
)

// Adapters lists the names Open accepts.
func Adapters() []string {
	return []string{AdapterAuto, AdapterStdio, AdapterLiner, AdapterReadline}
}

// OpenOptions configures Open.
type OpenOptions struct {
	Stdin       io.Reader
	Encoding    string
	Interactive bool // stdin and stdout are both terminals
}

// Open builds the named adapter. "auto" picks the liner editor on a terminal
// and plain stdio otherwise.
func Open(name string, opts OpenOptions) (Source, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AdapterAuto:
		if opts.Interactive {
			return NewLiner(), nil
		}
		return openStdio(opts)
	case AdapterStdio:
		return openStdio(opts)
	case AdapterLiner:
		return NewLiner(), nil
	case AdapterReadline:
		rl, err := NewReadline()
		if err != nil {
			return nil, err
		}
		return rl, nil
	}
	return nil, fmt.Errorf("unknown input adapter %q (want one of %s)", name, strings.Join(Adapters(), ", "))
}

func openStdio(opts OpenOptions) (Source, error) {
	s, err := NewStdio(AdapterStdio, opts.Stdin, opts.Encoding)
	if err != nil {
		return nil, err
	}
	return s, nil
}
