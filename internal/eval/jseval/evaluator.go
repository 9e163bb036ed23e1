// Package jseval is a JavaScript evaluator for the REPL built on goja.
package jseval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nextlevelbuilder/gorepl/internal/indent"
	"github.com/nextlevelbuilder/gorepl/internal/repl"
)

const (
	DefaultPrompt       = "js> "
	DefaultContinuation = "... "

	completionCacheSize = 256
)

// AbortError is the error a script raises with abort(msg).
type AbortError struct {
	Message string
}

func (e *AbortError) Error() string { return "abort: " + e.Message }

// Options configures an Evaluator.
type Options struct {
	Prompt       string
	Continuation string
	IgnoreEOF    bool   // Ctrl-D prints a hint instead of ending the session
	RCFile       string // script run before the first prompt
	Encoding     string // for .load
	Output       io.Writer
}

// Evaluator runs JavaScript statements as they become complete.
type Evaluator struct {
	vm   *goja.Runtime
	out  io.Writer
	opts Options

	mu           sync.RWMutex
	prompt       string
	continuation string

	buf     []string
	hooks   map[string][]goja.Callable
	pending *repl.Verdict // set by exit()/abort() while a script runs
	session *repl.Session

	generation int
	cache      *lru.Cache[string, []string]
}

var errStopScript = errors.New("script stopped")

// New creates an evaluator with a fresh runtime.
func New(opts Options) *Evaluator {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	if opts.Continuation == "" {
		opts.Continuation = DefaultContinuation
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	cache, _ := lru.New[string, []string](completionCacheSize)
	e := &Evaluator{
		vm:           goja.New(),
		out:          opts.Output,
		opts:         opts,
		prompt:       opts.Prompt,
		continuation: opts.Continuation,
		hooks:        make(map[string][]goja.Callable),
		cache:        cache,
	}
	e.installBuiltins()
	return e
}

// SetPrompts replaces the prompt templates. Safe to call from another
// goroutine, e.g. a config watcher.
func (e *Evaluator) SetPrompts(prompt, continuation string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prompt != "" {
		e.prompt = prompt
	}
	if continuation != "" {
		e.continuation = continuation
	}
}

func (e *Evaluator) CurrentPrompt() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.buf) > 0 {
		return e.continuation
	}
	return e.prompt
}

func (e *Evaluator) Grammar() indent.Grammar { return indent.CLike }

func (e *Evaluator) ResetBuffer() { e.buf = e.buf[:0] }

func (e *Evaluator) IsBufferEmpty() bool { return len(e.buf) == 0 }

// Eval buffers in until it forms a complete program, then runs it.
func (e *Evaluator) Eval(ctx context.Context, in repl.Input) repl.Verdict {
	if in.EndOfSession {
		if e.opts.IgnoreEOF {
			fmt.Fprintln(e.out, `(to exit, type .exit or call exit())`)
			e.ResetBuffer()
			return repl.Continue()
		}
		return repl.Stop(nil)
	}

	if len(e.buf) == 0 {
		trimmed := strings.TrimSpace(in.Text)
		if trimmed == "" {
			return repl.Continue()
		}
		if isMeta(trimmed) {
			return e.meta(trimmed)
		}
	}

	e.buf = append(e.buf, in.Text)
	src := strings.Join(e.buf, "\n")
	prog, err := goja.Compile("<repl>", src, false)
	if err != nil && incomplete(err) {
		return repl.Continue()
	}
	e.ResetBuffer()
	if err != nil {
		fmt.Fprintf(e.out, "SyntaxError: %v\n", err)
		return repl.Continue()
	}
	return e.run(ctx, prog, true)
}

// run executes prog, printing the result when echo is set.
func (e *Evaluator) run(ctx context.Context, prog *goja.Program, echo bool) repl.Verdict {
	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ctx.Err()) })
	defer func() {
		stop()
		e.vm.ClearInterrupt()
		e.generation++
	}()

	v, err := e.vm.RunProgram(prog)
	if p := e.pending; p != nil {
		e.pending = nil
		return *p
	}
	if err != nil {
		e.report(err)
		return repl.Continue()
	}
	if echo {
		e.echo(v)
	}
	return repl.Continue()
}

func (e *Evaluator) report(err error) {
	var ex *goja.Exception
	var intr *goja.InterruptedError
	switch {
	case errors.As(err, &ex):
		fmt.Fprintf(e.out, "Uncaught %s\n", ex.Value().String())
	case errors.As(err, &intr):
		fmt.Fprintln(e.out, "Interrupted")
	default:
		fmt.Fprintln(e.out, err.Error())
	}
}

func (e *Evaluator) echo(v goja.Value) {
	if v == nil || goja.IsUndefined(v) {
		return
	}
	fmt.Fprintln(e.out, inspect(v))
}

// inspect formats a value the way a console shows it.
func inspect(v goja.Value) string {
	if goja.IsNull(v) {
		return "null"
	}
	if _, ok := goja.AssertFunction(v); ok {
		return "[Function]"
	}
	switch x := v.Export().(type) {
	case string:
		b, _ := json.Marshal(x)
		return string(b)
	case map[string]any, []any:
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
	}
	return v.String()
}

// incomplete reports whether a compile error only means more input is
// needed.
func incomplete(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Unexpected end of input") ||
		strings.Contains(msg, "Unterminated template")
}

// ExecHook runs the rc file on before_session, then every function the
// scripts registered for name.
func (e *Evaluator) ExecHook(ctx context.Context, name string, out io.Writer, s *repl.Session) error {
	if out != nil {
		e.out = out
	}
	if s != nil {
		e.session = s
	}
	if name == repl.HookBeforeSession && e.opts.RCFile != "" {
		if err := e.runFile(ctx, e.opts.RCFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("rc file: %w", err)
		}
	}
	for _, fn := range e.hooks[name] {
		_, err := fn(goja.Undefined(), e.vm.ToValue(name))
		if e.pending != nil {
			// exit() and abort() have no loop to stop inside a hook.
			e.pending = nil
			e.vm.ClearInterrupt()
			continue
		}
		if err != nil {
			return fmt.Errorf("%s hook: %w", name, err)
		}
	}
	return nil
}

func (e *Evaluator) runFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prog, err := goja.Compile(path, string(src), false)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ctx.Err()) })
	defer func() {
		stop()
		e.vm.ClearInterrupt()
		e.generation++
	}()
	if _, err := e.vm.RunProgram(prog); err != nil {
		if e.pending != nil {
			e.pending = nil
			return nil
		}
		return err
	}
	slog.Debug("rc file loaded", "path", path)
	return nil
}
