// Package nlp splits policy text into sentences and word tokens.
//
// Segmenter is the narrow contract the risk engine depends on.  PunktSegmenter
// is the built-in implementation: sentence boundaries come from the Punkt
// English model, extended with legal abbreviations such as "Art." and
// "Sec.".  Tests may substitute hand-built fixtures through the interface.
package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Token is a single word or punctuation mark.
type Token struct {
	Text    string `json:"text"`
	Lower   string `json:"lower"`
	IsAlpha bool   `json:"is_alpha"`
	IsStop  bool   `json:"is_stop"`
	IsPunct bool   `json:"is_punct"`
}

// Sentence is one segmented unit in document order.
type Sentence struct {
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Lower  string  `json:"lower"`
	Tokens []Token `json:"tokens"`
}

// Segmenter turns text into ordered sentences.  Implementations must be
// deterministic and safe for concurrent use.
type Segmenter interface {
	Segment(text string) []Sentence
}

// ---------------------------------------------------------------------------
// PunktSegmenter
// ---------------------------------------------------------------------------

var defaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
	"inc", "ltd", "co", "corp", "llc", "plc", "vs", "cf", "al",
	"e.g", "i.e", "u.s", "u.k", "e.u", "approx", "dept", "fig",
	"art", "sec", "para", "nos", "ref",
}

var (
	blankLine  = regexp.MustCompile(`\n[ \t]*\n`)
	bulletLine = regexp.MustCompile(`\n[ \t]*([-*•·]|\d+[.)])\s`)
)

// PunktSegmenter splits paragraphs with the Punkt sentence tokenizer.  A
// single line break inside a paragraph is whitespace, so hard-wrapped text
// keeps whole sentences; blank lines and list bullets start a new block.
type PunktSegmenter struct {
	punkt     *sentences.DefaultSentenceTokenizer
	stopWords map[string]struct{}
}

// Option configures a PunktSegmenter.
type Option func(*PunktSegmenter)

// WithAbbreviations adds abbreviations (lower case, without the final dot)
// that never end a sentence.
func WithAbbreviations(words ...string) Option {
	return func(s *PunktSegmenter) {
		for _, w := range words {
			s.punkt.AbbrevTypes.Add(strings.ToLower(strings.TrimSuffix(w, ".")))
		}
	}
}

// WithStopWords replaces the English stop-word list.
func WithStopWords(words ...string) Option {
	return func(s *PunktSegmenter) {
		s.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			s.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// NewPunktSegmenter loads the English Punkt model and applies opts.
func NewPunktSegmenter(opts ...Option) (*PunktSegmenter, error) {
	punkt, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	s := &PunktSegmenter{punkt: punkt, stopWords: englishStopWords}
	for _, a := range defaultAbbreviations {
		s.punkt.AbbrevTypes.Add(a)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Segment implements Segmenter.  Sentences without any letter or digit are
// dropped; the remaining ones are trimmed and indexed from zero.
func (s *PunktSegmenter) Segment(text string) []Sentence {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []Sentence
	for _, block := range splitBlocks(text) {
		for _, sent := range s.punkt.Tokenize(block) {
			span := strings.TrimSpace(sent.Text)
			if !hasWordRune(span) {
				continue
			}
			out = append(out, Sentence{
				Index:  len(out),
				Text:   span,
				Lower:  strings.ToLower(span),
				Tokens: s.Tokenize(span),
			})
		}
	}
	return out
}

// splitBlocks cuts text at blank lines and before bulleted lines, then folds
// the remaining line breaks into spaces.
func splitBlocks(text string) []string {
	text = bulletLine.ReplaceAllStringFunc(text, func(m string) string { return "\n\n" + m[1:] })
	var blocks []string
	for _, b := range blankLine.Split(text, -1) {
		b = strings.Join(strings.Fields(b), " ")
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// Tokenize splits a sentence into word, clitic and punctuation tokens.
func (s *PunktSegmenter) Tokenize(text string) []Token {
	runes := []rune(text)
	var tokens []Token
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWordRune(r):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			tokens = append(tokens, s.newToken(string(runes[i:j]), false))
			i = j
		case isApostrophe(r) && i+1 < len(runes) && unicode.IsLetter(runes[i+1]) && i > 0 && isWordRune(runes[i-1]):
			j := i + 1
			for j < len(runes) && unicode.IsLetter(runes[j]) {
				j++
			}
			tokens = append(tokens, s.newToken("'"+string(runes[i+1:j]), false))
			i = j
		default:
			tokens = append(tokens, s.newToken(string(r), true))
			i++
		}
	}
	return tokens
}

func (s *PunktSegmenter) newToken(text string, punct bool) Token {
	lower := strings.ToLower(text)
	_, stop := s.stopWords[lower]
	return Token{
		Text:    text,
		Lower:   lower,
		IsAlpha: !punct && isAlpha(text),
		IsStop:  stop,
		IsPunct: punct,
	}
}

// ---------------------------------------------------------------------------
// Rune classes
// ---------------------------------------------------------------------------

func isApostrophe(r rune) bool { return r == '\'' || r == '’' }

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isAlpha(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.Is(unicode.Mn, r):
		default:
			return false
		}
	}
	return letters > 0
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
