package jseval

import (
	"fmt"
	"strconv"

	"github.com/mattn/go-shellwords"

	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/repl"
)

type metaCommand struct {
	name string
	help string
	run  func(e *Evaluator, args []string) repl.Verdict
}

func metaCommands() []metaCommand {
	return []metaCommand{
		{".help", "show this help", (*Evaluator).metaHelp},
		{".load", "<file> feed a script through the session line by line", (*Evaluator).metaLoad},
		{".clear", "drop the pending statement", (*Evaluator).metaClear},
		{".exit", "[code] leave the session", (*Evaluator).metaExit},
	}
}

// isMeta reports whether line is a dot command rather than code like ".5".
func isMeta(line string) bool {
	return len(line) > 1 && line[0] == '.' && line[1] >= 'a' && line[1] <= 'z'
}

func (e *Evaluator) meta(line string) repl.Verdict {
	args, err := shellwords.Parse(line)
	if err != nil {
		fmt.Fprintf(e.out, "%s: %v\n", line, err)
		return repl.Continue()
	}
	for _, c := range metaCommands() {
		if c.name == args[0] {
			return c.run(e, args[1:])
		}
	}
	fmt.Fprintf(e.out, "unknown command %s (try .help)\n", args[0])
	return repl.Continue()
}

func (e *Evaluator) metaHelp([]string) repl.Verdict {
	for _, c := range metaCommands() {
		fmt.Fprintf(e.out, "%-7s %s\n", c.name, c.help)
	}
	return repl.Continue()
}

// metaLoad replaces the session's input with the file. When the file runs
// out the session falls back to its default input.
func (e *Evaluator) metaLoad(args []string) repl.Verdict {
	if len(args) != 1 {
		fmt.Fprintln(e.out, "usage: .load <file>")
		return repl.Continue()
	}
	src, err := linesource.OpenFile(args[0], e.opts.Encoding)
	if err != nil {
		fmt.Fprintf(e.out, ".load: %v\n", err)
		return repl.Continue()
	}
	if e.session == nil {
		src.Close()
		fmt.Fprintln(e.out, ".load: no active session")
		return repl.Continue()
	}
	e.session.SetSource(src)
	return repl.Continue()
}

func (e *Evaluator) metaClear([]string) repl.Verdict {
	e.ResetBuffer()
	return repl.Continue()
}

func (e *Evaluator) metaExit(args []string) repl.Verdict {
	if len(args) == 0 {
		return repl.Stop(nil)
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(e.out, ".exit: bad code %q\n", args[0])
		return repl.Continue()
	}
	return repl.Stop(code)
}
