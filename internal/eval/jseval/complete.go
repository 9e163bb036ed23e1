package jseval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/sahilm/fuzzy"
)

// Globals every runtime has; they are not enumerable on the global object.
var builtinGlobals = []string{
	"Array", "Boolean", "Date", "Error", "JSON", "Map", "Math", "Number",
	"Object", "Promise", "RegExp", "Set", "String", "Symbol",
	"isNaN", "parseFloat", "parseInt", "undefined",
	"print", "console", "exit", "abort", "hook",
}

// Completion returns whole-line candidates for the identifier at the end of
// partial, best match first. Results are cached until the next evaluation or
// buffer change.
func (e *Evaluator) Completion(partial string) []string {
	key := fmt.Sprintf("%d\x00%d\x00%s", e.generation, len(e.buf), partial)
	if c, ok := e.cache.Get(key); ok {
		return c
	}
	c := e.complete(partial)
	e.cache.Add(key, c)
	return c
}

func (e *Evaluator) complete(partial string) []string {
	if len(e.buf) == 0 && strings.HasPrefix(strings.TrimSpace(partial), ".") {
		return e.completeMeta(partial)
	}

	head, word := splitWord(partial)
	path, prefix := "", word
	if i := strings.LastIndexByte(word, '.'); i >= 0 {
		path, prefix = word[:i], word[i+1:]
	}

	names := e.namesIn(path)
	if len(names) == 0 {
		return nil
	}
	lead := head
	if path != "" {
		lead += path + "."
	}

	var out []string
	if prefix == "" {
		sort.Strings(names)
		for _, n := range names {
			out = append(out, lead+n)
		}
		return out
	}
	for _, m := range fuzzy.Find(prefix, names) {
		out = append(out, lead+m.Str)
	}
	return out
}

func (e *Evaluator) completeMeta(partial string) []string {
	var out []string
	for _, c := range metaCommands() {
		if strings.HasPrefix(c.name, strings.TrimSpace(partial)) {
			out = append(out, c.name)
		}
	}
	return out
}

// namesIn lists property names of the object at path ("" is the global
// object).
func (e *Evaluator) namesIn(path string) []string {
	obj := e.vm.GlobalObject()
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			v := obj.Get(part)
			if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
				return nil
			}
			obj = v.ToObject(e.vm)
		}
	}

	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range obj.GetOwnPropertyNames() {
		add(n)
	}
	if path == "" {
		for _, n := range builtinGlobals {
			add(n)
		}
	}
	return names
}

// splitWord splits line before the trailing identifier path.
func splitWord(line string) (head, word string) {
	i := len(line)
	for i > 0 {
		c := line[i-1]
		if c == '.' || c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			i--
			continue
		}
		break
	}
	return line[:i], line[i:]
}
