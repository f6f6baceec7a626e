package policyrisk

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchMode selects how keywords are located in text.
type MatchMode string

const (
	// MatchSubstring matches anywhere, so "ads" also hits "leads".
	MatchSubstring MatchMode = "substring"
	// MatchWord requires the keyword to be bounded by non-alphanumeric runes.
	MatchWord MatchMode = "word"
)

// ParseMatchMode validates a configured mode name.  Empty means substring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchWord:
		return MatchWord, nil
	default:
		return "", fmt.Errorf("policyrisk: unknown match mode %q", s)
	}
}

// Matcher locates lower-cased keywords in lower-cased text.
type Matcher interface {
	Contains(text, keyword string) bool
	// Count returns the number of non-overlapping occurrences.
	Count(text, keyword string) int
}

// NewMatcher returns the Matcher for mode.
func NewMatcher(mode MatchMode) Matcher {
	if mode == MatchWord {
		return wordMatcher{}
	}
	return substringMatcher{}
}

type substringMatcher struct{}

func (substringMatcher) Contains(text, keyword string) bool {
	return keyword != "" && strings.Contains(text, keyword)
}

func (substringMatcher) Count(text, keyword string) int {
	if keyword == "" {
		return 0
	}
	return strings.Count(text, keyword)
}

type wordMatcher struct{}

func (w wordMatcher) Contains(text, keyword string) bool {
	_, ok := w.next(text, keyword, 0)
	return ok
}

func (w wordMatcher) Count(text, keyword string) int {
	n := 0
	offset := 0
	for {
		end, ok := w.next(text, keyword, offset)
		if !ok {
			return n
		}
		n++
		offset = end
	}
}

// next finds the first bounded occurrence at or after offset and returns the
// byte index just past it.
func (wordMatcher) next(text, keyword string, offset int) (int, bool) {
	if keyword == "" {
		return 0, false
	}
	for offset <= len(text) {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return 0, false
		}
		start := offset + idx
		end := start + len(keyword)
		if boundedBefore(text, start) && boundedAfter(text, end) {
			return end, true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return 0, false
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func boundedBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordChar(r)
}

func boundedAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordChar(r)
}
