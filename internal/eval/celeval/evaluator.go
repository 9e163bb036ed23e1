// Package celeval evaluates CEL expressions line by line. "let name = expr"
// binds a variable and _ holds the last result.
package celeval

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/sahilm/fuzzy"

	"github.com/nextlevelbuilder/gorepl/internal/indent"
	"github.com/nextlevelbuilder/gorepl/internal/repl"
)

const (
	DefaultPrompt       = "cel> "
	DefaultContinuation = "...  "
	lastResult          = "_"
)

var letPattern = regexp.MustCompile(`^let\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)

var macros = []string{"has", "size", "all", "exists", "exists_one", "map", "filter", "int", "uint", "double", "string", "bytes", "duration", "timestamp", "matches", "startsWith", "endsWith", "contains"}

// Evaluator holds the bindings of one CEL session.
type Evaluator struct {
	out io.Writer

	mu           sync.RWMutex
	prompt       string
	continuation string

	buf  []string
	vars map[string]any
}

// New returns an evaluator writing results to out (stdout when nil).
func New(out io.Writer) *Evaluator {
	if out == nil {
		out = os.Stdout
	}
	return &Evaluator{
		out:          out,
		prompt:       DefaultPrompt,
		continuation: DefaultContinuation,
		vars:         map[string]any{},
	}
}

// SetPrompts replaces the prompt templates; empty values are kept.
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

func (e *Evaluator) ExecHook(context.Context, string, io.Writer, *repl.Session) error { return nil }

func (e *Evaluator) Eval(_ context.Context, in repl.Input) repl.Verdict {
	if in.EndOfSession {
		return repl.Stop(nil)
	}
	if len(e.buf) == 0 {
		switch line := strings.TrimSpace(in.Text); {
		case line == "":
			return repl.Continue()
		case line == ".exit":
			return repl.Stop(nil)
		case line == ".vars":
			e.printVars()
			return repl.Continue()
		case line == ".clear":
			e.vars = map[string]any{}
			return repl.Continue()
		}
	}

	e.buf = append(e.buf, in.Text)
	src := strings.TrimSpace(strings.Join(e.buf, "\n"))

	name := ""
	if m := letPattern.FindStringSubmatch(strings.ReplaceAll(src, "\n", " ")); m != nil {
		name, src = m[1], m[2]
	}

	val, err := e.eval(src)
	if err != nil && incomplete(err) {
		return repl.Continue()
	}
	e.ResetBuffer()
	if err != nil {
		fmt.Fprintln(e.out, err)
		return repl.Continue()
	}

	e.vars[lastResult] = val
	if name != "" {
		e.vars[name] = val
		fmt.Fprintf(e.out, "%s = %s\n", name, format(val))
		return repl.Continue()
	}
	fmt.Fprintln(e.out, format(val))
	return repl.Continue()
}

func (e *Evaluator) eval(src string) (any, error) {
	opts := make([]cel.EnvOption, 0, len(e.vars))
	for name := range e.vars {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(src)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(e.vars)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// incomplete reports whether the parser ran out of input.
func incomplete(err error) bool {
	return strings.Contains(err.Error(), "<EOF>")
}

func (e *Evaluator) printVars() {
	names := make([]string, 0, len(e.vars))
	for n := range e.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(e.out, "%s = %s\n", n, format(e.vars[n]))
	}
}

// Completion ranks bindings and macros against the trailing word.
func (e *Evaluator) Completion(partial string) []string {
	i := strings.LastIndexFunc(partial, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	head, word := partial[:i+1], partial[i+1:]
	if word == "" {
		return nil
	}
	names := append([]string{}, macros...)
	for n := range e.vars {
		names = append(names, n)
	}
	var out []string
	for _, m := range fuzzy.Find(word, names) {
		out = append(out, head+m.Str)
	}
	return out
}

func format(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}
