package policyrisk

import "github.com/turtacn/PriviQ/internal/intelligence/lexicon"

// ClassifyKeywords returns, per severity tier, the distinct keywords that
// occur in text.  Matching is case-insensitive.
func (e *Engine) ClassifyKeywords(text string) KeywordMatchSet {
	lt := lower(text)
	return KeywordMatchSet{
		High:     e.matchTier(lt, lexicon.TierHigh),
		Moderate: e.matchTier(lt, lexicon.TierModerate),
		Low:      e.matchTier(lt, lexicon.TierLow),
	}
}

func (e *Engine) matchTier(lt string, t lexicon.Tier) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, kw := range e.lex.Severity.Keywords(t) {
		if _, dup := seen[kw]; dup {
			continue
		}
		if e.match.Contains(lt, kw) {
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// CategorizeRisks returns the categories with at least one hit, in lexicon
// order.  Hits are the literal keywords that matched; they are not
// de-duplicated beyond what the lexicon itself contains.
func (e *Engine) CategorizeRisks(text string) []CategoryMatch {
	lt := lower(text)
	out := []CategoryMatch{}
	for _, c := range e.lex.Categories {
		var hits []string
		for _, kw := range c.Keywords {
			if e.match.Contains(lt, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			out = append(out, CategoryMatch{Category: c.Label, Hits: hits})
		}
	}
	return out
}
