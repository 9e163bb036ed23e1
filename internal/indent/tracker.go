package indent

import (
	"strings"
	"unicode"
)

// DefaultUnit is one level of indentation.
const DefaultUnit = "  "

// Correction is the result of submitting one line.
type Correction struct {
	Text    string // the reindented line
	Depth   int    // nesting depth after the line
	Changed bool   // Text differs from the submitted line
}

// Tracker holds the open-construct stack of the statement being entered.
// It is owned by a single session and is not safe for concurrent use.
type Tracker struct {
	g     Grammar
	unit  string
	stack []marker
	quote rune // open multi-line quote, 0 when none
}

// marker is one open construct: a bracket or a block keyword.
type marker struct {
	bracket rune
	word    string
}

// NewTracker returns a reset tracker. An empty unit selects DefaultUnit.
func NewTracker(g Grammar, unit string) *Tracker {
	if unit == "" {
		unit = DefaultUnit
	}
	return &Tracker{g: g, unit: unit}
}

// Reset forgets every open construct.
func (t *Tracker) Reset() {
	t.stack = t.stack[:0]
	t.quote = 0
}

// IsReset reports whether nothing is open.
func (t *Tracker) IsReset() bool { return len(t.stack) == 0 && t.quote == 0 }

// Depth is the current nesting depth.
func (t *Tracker) Depth() int { return len(t.stack) }

// Prefix is the indentation the next line starts at. Inside a multi-line
// string it is empty since leading whitespace belongs to the literal.
func (t *Tracker) Prefix() string {
	if t.quote != 0 {
		return ""
	}
	return strings.Repeat(t.unit, len(t.stack))
}

// Advance submits line (as echoed, including any prefix) and returns its
// corrected form.
func (t *Tracker) Advance(line string) Correction {
	if t.quote != 0 {
		t.scan(line)
		return Correction{Text: line, Depth: len(t.stack)}
	}

	body := strings.TrimLeftFunc(line, unicode.IsSpace)
	depth := len(t.stack)
	if depth > 0 && t.dedents(body) {
		depth--
	}

	text := ""
	if body != "" {
		text = strings.Repeat(t.unit, depth) + body
	}
	t.scan(body)
	return Correction{Text: text, Depth: len(t.stack), Changed: text != line}
}

// dedents reports whether body starts with a closer or a middle keyword.
func (t *Tracker) dedents(body string) bool {
	if body == "" {
		return false
	}
	r := []rune(body)[0]
	if t.g.isCloserBracket(r) {
		return true
	}
	word := leadingWord(body)
	return word != "" && (word == t.g.Closer || t.g.isMiddle(word))
}

func (t *Tracker) scan(line string) {
	runes := []rune(line)
	quote := t.quote
	statementStart := true
	loopOpened := false // "while x do" opens once

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			switch r {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		if t.startsComment(runes[i:]) {
			break
		}

		switch {
		case t.isQuote(r) || t.isMultilineQuote(r):
			quote = r
			statementStart = false
		case t.g.Brackets[r] != 0:
			t.stack = append(t.stack, marker{bracket: r})
			statementStart = true
		case t.g.isCloserBracket(r):
			t.popBracket(r)
			statementStart = false
		case isWordStart(r):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			afterDot := i > 0 && runes[i-1] == '.'
			if !afterDot {
				loopOpened = t.keyword(word, statementStart, loopOpened)
			}
			statementStart = false
			i = j - 1
		case r == ';' || r == '=':
			statementStart = true
		case unicode.IsSpace(r):
		default:
			statementStart = false
		}
	}

	switch {
	case quote != 0 && t.isMultilineQuote(quote):
		t.quote = quote
	default:
		t.quote = 0
	}
}

// keyword applies word and reports whether a loop keyword is now open on
// this line.
func (t *Tracker) keyword(word string, statementStart, loopOpened bool) bool {
	switch {
	case word == t.g.Closer && t.g.Closer != "":
		t.popKeyword()
	case word == "do" && loopOpened:
		return false
	case t.g.isOpener(word):
		if t.g.isModifier(word) && !statementStart {
			return loopOpened
		}
		t.stack = append(t.stack, marker{word: word})
		return word == "while" || word == "until" || word == "for"
	}
	return loopOpened
}

func (t *Tracker) popBracket(closer rune) {
	n := len(t.stack)
	if n == 0 {
		return
	}
	if top := t.stack[n-1]; top.bracket != 0 && t.g.Brackets[top.bracket] == closer {
		t.stack = t.stack[:n-1]
	}
}

func (t *Tracker) popKeyword() {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].word != "" {
			t.stack = t.stack[:i]
			return
		}
	}
}

func (t *Tracker) startsComment(rest []rune) bool {
	for _, c := range t.g.LineComments {
		if strings.HasPrefix(string(rest), c) {
			return true
		}
	}
	return false
}

func (t *Tracker) isQuote(r rune) bool {
	for _, q := range t.g.Quotes {
		if q == r {
			return true
		}
	}
	return false
}

func (t *Tracker) isMultilineQuote(r rune) bool {
	for _, q := range t.g.MultilineQuotes {
		if q == r {
			return true
		}
	}
	return false
}

func leadingWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return !isWordRune(r) })
	if end < 0 {
		return s
	}
	return s[:end]
}

func isWordStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isWordRune(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
