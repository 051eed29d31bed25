package repl

import (
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/factory"
	"github.com/ardnew/vartab/interp"
)

// ctrlCommands are the available REPL commands, without their ':' prefix.
var ctrlCommands = []string{
	"clear", "edit", "format", "help", "print", "query", "quit", "reset", "types", "unset",
}

// literalWords are the keywords accepted where a value is expected.
var literalWords = []string{"true", "false", "nullptr", "inf", "nan"}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. This includes whitespace, the member-access dot, and the
// punctuation of both vartab statements and expr-lang queries.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';', '"':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Words are delimited by whitespace, dots, and
// expr-lang operator/punctuation characters.
// Returns an empty word when the cursor sits on a boundary (after a space,
// between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	word = input[start:end]

	return word, start, end
}

// parentPath returns the dot-separated prefix path leading up to the current
// word, considering only the contiguous member-access chain. For input
// "x = path.ca" with the word "ca", the parent path is "path".
// Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	prefix = strings.TrimRight(prefix, ".")

	if prefix == "" {
		return ""
	}

	// Walk backward from the end of the trimmed prefix. Collect characters
	// that are dots or valid identifier characters. Stop at the first
	// non-dot word boundary.
	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r == '.' {
			pos -= size

			continue
		}

		if isWordBoundary(r) {
			break
		}

		pos -= size
	}

	result := strings.TrimSpace(prefix[pos:end])
	if result == "" {
		return ""
	}

	return result
}

// completion names the kind of word at the cursor.
type completion int

const (
	completeNone    completion = iota
	completeCommand            // first word after ':'
	completeQuery              // query expression or member access
	completeHead               // type or variable name starting a statement
	completeValue              // value after '=' or inside a literal
	completeName               // variable name argument of a command
)

// classify decides what the word starting at wordStart completes.
func classify(input string, wordStart int) completion {
	trimmed := strings.TrimLeft(input, " \t")

	if cmd, ok := strings.CutPrefix(trimmed, ":"); ok {
		name, _, found := strings.Cut(cmd, " ")
		if !found {
			return completeCommand
		}

		switch name {
		case "query":
			return completeQuery

		case "print", "unset":
			return completeName
		}

		return completeNone
	}

	if strings.Contains(input[:wordStart], "=") {
		return completeValue
	}

	return completeHead
}

// candidates returns the names that are valid completions for the word
// starting at wordStart.
func (m model) candidates(input string, wordStart int) []string {
	e := m.in.Env()
	reg := m.in.Registry()

	switch classify(input, wordStart) {
	case completeCommand:
		return ctrlCommands

	case completeQuery:
		if parent := parentPath(input, wordStart); parent != "" {
			return interp.BuiltinMembers(parent)
		}

		return slices.Concat(e.Names(), interp.BuiltinNames(), ExprLangBuiltinNames())

	case completeHead:
		names := slices.Concat(
			[]string{env.TypeBool, env.TypeInt, env.TypeDouble, env.TypeString, "include"},
			e.Types(),
			e.Names(),
		)
		if reg != nil {
			names = append(names, reg.Bases()...)
		}

		return dedupe(names)

	case completeName:
		return e.Names()

	case completeValue:
		names := slices.Concat(e.Names(), literalWords)
		if reg != nil {
			names = append(names, reg.Concretes("")...)
			names = append(names, enclosingMembers(reg, input, wordStart)...)
		}

		return dedupe(names)
	}

	return nil
}

// enclosingMembers returns the member names of the innermost constructor
// spec enclosing offset.
func enclosingMembers(reg *factory.Registry, input string, offset int) []string {
	for _, call := range detectCalls(input, offset) {
		if members, ok := reg.Members(call.name); ok {
			names := make([]string, len(members))
			for i, m := range members {
				names[i] = m.Name
			}

			return names
		}
	}

	return nil
}

func dedupe(names []string) []string {
	slices.Sort(names)

	return slices.Compact(names)
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty it returns nil matches, except
// after a dot in a query where all members are listed.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we

	if m.in == nil {
		return nil, nil, wordStart, wordEnd
	}

	candidates = m.candidates(input, wordStart)
	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		if wordStart == 0 || input[wordStart-1] != '.' {
			return nil, nil, wordStart, wordEnd
		}

		// Return all candidates as unfiltered matches.
		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected)
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		// Check if adding this candidate would exceed width.
		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth

		// If this is the last candidate, no need to reserve ellipsis space.
		if i == len(matches)-1 {
			break
		}
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	// Add "()" suffix for functions (not applied to actual completion)
	if isFunction(match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// isFunction checks if a name refers to a function that should display with
// "()": expr-lang builtins and callable built-in query values.
func isFunction(name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	fn, ok := interp.Builtin(name)

	return ok && reflect.TypeOf(fn) != nil && reflect.TypeOf(fn).Kind() == reflect.Func
}
