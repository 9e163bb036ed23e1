// Package indent tracks open constructs across a multi-line statement and
// reindents each submitted line to the depth those constructs imply.
package indent

// Grammar describes the tokens that open and close blocks.
type Grammar struct {
	Name string

	// Brackets maps each opening bracket to its closer.
	Brackets map[rune]rune

	// Openers are keywords that start a block terminated by Closer.
	Openers []string
	Closer  string

	// Middles sit between an opener and its closer (else, rescue, ...).
	// A line that starts with one is indented one level less.
	Middles []string

	// Modifiers are openers that only open a block when they start a
	// statement; "x if y" does not open.
	Modifiers []string

	LineComments []string

	// Quotes end at the end of the line; MultilineQuotes carry over.
	Quotes          []rune
	MultilineQuotes []rune
}

// CLike is the grammar for brace languages (JavaScript, CEL).
var CLike = Grammar{
	Name:            "clike",
	Brackets:        map[rune]rune{'{': '}', '(': ')', '[': ']'},
	LineComments:    []string{"//"},
	Quotes:          []rune{'"', '\''},
	MultilineQuotes: []rune{'`'},
}

// Keyword is the grammar for keyword-block languages ("if ... end").
var Keyword = Grammar{
	Name:         "keyword",
	Brackets:     map[rune]rune{'{': '}', '(': ')', '[': ']'},
	Openers:      []string{"if", "unless", "while", "until", "for", "def", "class", "module", "begin", "case", "do"},
	Closer:       "end",
	Middles:      []string{"else", "elsif", "when", "rescue", "ensure", "in"},
	Modifiers:    []string{"if", "unless", "while", "until"},
	LineComments: []string{"#"},
	Quotes:       []rune{'"', '\''},
}

// ByName returns the preset grammar called name.
func ByName(name string) (Grammar, bool) {
	switch name {
	case "clike", "js", "javascript", "cel":
		return CLike, true
	case "keyword", "ruby":
		return Keyword, true
	}
	return Grammar{}, false
}

func (g Grammar) isOpener(word string) bool   { return contains(g.Openers, word) }
func (g Grammar) isMiddle(word string) bool   { return contains(g.Middles, word) }
func (g Grammar) isModifier(word string) bool { return contains(g.Modifiers, word) }

func (g Grammar) isCloserBracket(r rune) bool {
	for _, c := range g.Brackets {
		if c == r {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
