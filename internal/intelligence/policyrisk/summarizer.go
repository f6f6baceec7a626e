package policyrisk

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/turtacn/PriviQ/internal/intelligence/nlp"
)

// -----------------------------------------------------------------------
// Risk-focused summary
// -----------------------------------------------------------------------

// SummarizeRisky keeps the sentences that contain at least one of keywords,
// ranks them by how central they are among themselves (sum of cosine
// similarities of term-count vectors, self included) and joins the top
// sentences with a single space.  When no sentence qualifies the
// NoRiskyContent sentinel is returned.  A nil keywords slice uses the
// engine's severity keywords.
func (e *Engine) SummarizeRisky(text string, keywords []string) string {
	if keywords == nil {
		keywords = e.keywords
	}
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			kws = append(kws, kw)
		}
	}

	var risky []nlp.Sentence
	for _, s := range e.seg.Segment(text) {
		if e.containsAny(s.Lower, kws) {
			risky = append(risky, s)
		}
	}
	if len(risky) == 0 {
		return NoRiskyContent
	}

	vectors := make([]map[string]int, len(risky))
	norms := make([]float64, len(risky))
	for i, s := range risky {
		vectors[i] = termCounts(s.Lower)
		norms[i] = norm(vectors[i])
	}

	scored := make([]scoredSentence, len(risky))
	for i := range risky {
		total := 0.0
		for j := range risky {
			total += cosine(vectors[i], vectors[j], norms[i], norms[j])
		}
		scored[i] = scoredSentence{pos: i, score: total, text: risky[i].Text}
	}
	return joinTop(scored, e.riskySentences)
}

func (e *Engine) containsAny(lt string, kws []string) bool {
	for _, kw := range kws {
		if e.match.Contains(lt, kw) {
			return true
		}
	}
	return false
}

// termCounts splits lower-cased text into runs of word runes (letters,
// digits, underscore and combining marks) and counts those of two or more
// runes.
func termCounts(lt string) map[string]int {
	counts := make(map[string]int)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		term := lt[start:end]
		if utf8.RuneCountInString(term) >= 2 {
			counts[term]++
		}
		start = -1
	}
	for i, r := range lt {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(lt))
	return counts
}

func norm(v map[string]int) float64 {
	sum := 0
	for _, c := range v {
		sum += c * c
	}
	return math.Sqrt(float64(sum))
}

func cosine(a, b map[string]int, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	dot := 0
	for term, c := range a {
		dot += c * b[term]
	}
	return float64(dot) / (na * nb)
}

// -----------------------------------------------------------------------
// Frequency summary
// -----------------------------------------------------------------------

// SummarizeExtractive scores each sentence by the summed document frequency
// of its non-stop alphabetic tokens and joins the n best with a single space.
// n <= 0 uses the engine default.  Sentences scoring zero are never chosen,
// so the result may hold fewer than n sentences; empty input yields "".
func (e *Engine) SummarizeExtractive(text string, n int) string {
	if n <= 0 {
		n = e.summarySentences
	}
	sents := e.seg.Segment(text)
	if len(sents) == 0 {
		return ""
	}

	freq := make(map[string]int)
	for _, s := range sents {
		for _, tok := range s.Tokens {
			if tok.IsAlpha && !tok.IsStop {
				freq[tok.Lower]++
			}
		}
	}

	scored := make([]scoredSentence, 0, len(sents))
	for i, s := range sents {
		total := 0
		for _, tok := range s.Tokens {
			total += freq[tok.Lower]
		}
		if total > 0 {
			scored = append(scored, scoredSentence{pos: i, score: float64(total), text: s.Text})
		}
	}
	return joinTop(scored, n)
}

// -----------------------------------------------------------------------
// Ranking
// -----------------------------------------------------------------------

type scoredSentence struct {
	pos   int
	score float64
	text  string
}

// joinTop orders by score descending, breaking ties by original position,
// and joins the first n texts.
func joinTop(scored []scoredSentence, n int) string {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].pos < scored[j].pos
	})
	if n > len(scored) {
		n = len(scored)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = scored[i].text
	}
	return strings.Join(parts, " ")
}
