package jseval

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/nextlevelbuilder/gorepl/internal/repl"
)

func (e *Evaluator) installBuiltins() {
	vm := e.vm

	printFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			if s, ok := a.Export().(string); ok {
				parts[i] = s
				continue
			}
			parts[i] = inspect(a)
		}
		fmt.Fprintln(e.out, strings.Join(parts, " "))
		return goja.Undefined()
	}
	vm.Set("print", printFn)

	console := vm.NewObject()
	console.Set("log", printFn)
	console.Set("error", printFn)
	vm.Set("console", console)

	vm.Set("exit", func(call goja.FunctionCall) goja.Value {
		var v any
		if arg := call.Argument(0); !goja.IsUndefined(arg) {
			v = arg.Export()
		}
		e.halt(repl.Stop(v))
		return goja.Undefined()
	})

	vm.Set("abort", func(call goja.FunctionCall) goja.Value {
		msg := "aborted"
		if arg := call.Argument(0); !goja.IsUndefined(arg) {
			msg = arg.String()
		}
		e.halt(repl.Abort(&AbortError{Message: msg}))
		return goja.Undefined()
	})

	vm.Set("hook", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if name != repl.HookBeforeSession && name != repl.HookAfterSession {
			panic(vm.NewTypeError("unknown hook %q", name))
		}
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("hook(%q, fn): fn is not a function", name))
		}
		e.hooks[name] = append(e.hooks[name], fn)
		return goja.Undefined()
	})
}

// halt records v and stops the running script at the next instruction.
func (e *Evaluator) halt(v repl.Verdict) {
	e.pending = &v
	e.vm.Interrupt(errStopScript)
}
