package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// minTerminatedLen is the core length above which a missing terminal mark is added.
// Shorter cores (a bare "I", "ok") are left unterminated.
const minTerminatedLen = 2

var (
	// imPattern finds candidate "im" / "i'm" tokens; word boundaries are checked separately.
	imPattern = regexp.MustCompile(`(?i)i'?m`)

	// pronounPattern finds candidate lowercase "i" tokens.
	pronounPattern = regexp.MustCompile(`i`)

	// sentenceStartPattern matches a terminal mark, optional whitespace and the next letter.
	sentenceStartPattern = regexp.MustCompile(`[.!?]\s*\pL`)
)

// NormalizeSentence rewrites a raw quote into a single well-formed sentence.
//
// The runs of space characters at either end of the input are reproduced verbatim;
// only the trimmed core is rewritten:
//   - "im" and "i'm" in any case become "I'm"
//   - a standalone "i" becomes "I"
//   - the first letter after '.', '!' or '?' is uppercased
//   - the first character is uppercased
//   - a '.' is appended when the core is longer than two characters and
//     does not already end in a terminal mark
//
// Empty and whitespace-only inputs are returned unchanged.
func NormalizeSentence(input string) string {
	core := strings.TrimSpace(input)
	if core == "" {
		return input
	}

	leading := len(input) - len(strings.TrimLeft(input, " "))
	trailing := len(input) - len(strings.TrimRight(input, " "))

	core = replaceWholeWords(core, imPattern, "I'm")
	core = replaceWholeWords(core, pronounPattern, "I")
	core = sentenceStartPattern.ReplaceAllStringFunc(core, upperLast)
	core = upperFirst(core)

	if utf8.RuneCountInString(core) > minTerminatedLen && !endsSentence(core) {
		core += "."
	}

	return input[:leading] + core + input[len(input)-trailing:]
}

// replaceWholeWords replaces every match of re that is not adjacent to a word character.
func replaceWholeWords(s string, re *regexp.Regexp, repl string) string {
	matches := re.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if !wordBoundary(s, start, end) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(repl)
		last = end
	}
	b.WriteString(s[last:])

	return b.String()
}

// wordBoundary reports whether s[start:end] is not glued to a letter, digit or underscore.
func wordBoundary(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}

	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}

	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// upperLast uppercases the final rune of a match.
func upperLast(m string) string {
	_, size := utf8.DecodeLastRuneInString(m)
	cut := len(m) - size
	return m[:cut] + toUpper(m[cut:])
}

// upperFirst uppercases the first rune of s.
func upperFirst(s string) string {
	if s == "" {
		return s
	}

	_, size := utf8.DecodeRuneInString(s)
	return toUpper(s[:size]) + s[size:]
}

// toUpper applies full Unicode case mapping, so "ß" becomes "SS".
// Casers carry state, a fresh one per call keeps NormalizeSentence goroutine-safe.
func toUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

func endsSentence(s string) bool {
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
