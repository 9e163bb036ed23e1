package linesource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func readAll(t *testing.T, src Source) ([]string, error) {
	t.Helper()
	var lines []string
	for {
		line, err := src.Next(context.Background())
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
}

func TestStdio_ReadsLinesThenEOF(t *testing.T) {
	src, err := NewStdio("stdio", strings.NewReader("one\r\ntwo\nthree"), "")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	lines, err := readAll(t, src)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}

	// Exhausted sources keep reporting EOF.
	if _, err := src.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("second EOF read err = %v", err)
	}
}

func TestStdio_ContextCancelKeepsPendingLine(t *testing.T) {
	pr, pw := io.Pipe()
	src, err := NewStdio("pipe", pr, "")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	go pw.Write([]byte("late\n"))
	line, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "late" {
		t.Errorf("line = %q, want %q", line, "late")
	}
}

func TestStdio_InvalidUTF8(t *testing.T) {
	src, err := NewStdio("stdio", bytes.NewReader([]byte("ok\n\xff\xfe\nnext\n")), "")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if line, err := src.Next(context.Background()); err != nil || line != "ok" {
		t.Fatalf("first read = %q, %v", line, err)
	}
	if _, err := src.Next(context.Background()); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("err = %v, want ErrBadEncoding", err)
	}
	if line, err := src.Next(context.Background()); err != nil || line != "next" {
		t.Errorf("read after bad line = %q, %v", line, err)
	}
}

func TestStdio_Latin1Decoding(t *testing.T) {
	src, err := NewStdio("stdio", bytes.NewReader([]byte("caf\xe9\n")), "latin1")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	line, err := src.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if line != "café" {
		t.Errorf("line = %q, want %q", line, "café")
	}
}

func TestStdio_UnknownEncoding(t *testing.T) {
	if _, err := NewStdio("stdio", strings.NewReader(""), "klingon-8"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.js")
	if err := os.WriteFile(path, []byte("let a = 1\na + 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := OpenFile(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(src.Name(), "file:") {
		t.Errorf("name = %q, want file: prefix", src.Name())
	}
	lines, err := readAll(t, src)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("got %d lines, want 2", len(lines))
	}
	if err := src.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
