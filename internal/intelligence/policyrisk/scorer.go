package policyrisk

import "github.com/turtacn/PriviQ/internal/intelligence/lexicon"

// ScoreDensity returns the occurrence-weighted keyword density of text in
// [0, 1]: Σ count×weight over Σ len(tier)×weight.  Repeated keywords can push
// the raw ratio above 1; it is capped there.  Empty text scores 0.
func (e *Engine) ScoreDensity(text string) float64 {
	return min(e.density(lower(text)), 1)
}

// density is the unclamped ratio.
func (e *Engine) density(lt string) float64 {
	if e.densityCeiling == 0 || lt == "" {
		return 0
	}
	score := 0
	for _, t := range lexicon.Tiers {
		count := 0
		for _, kw := range e.lex.Severity.Keywords(t) {
			count += e.match.Count(lt, kw)
		}
		score += count * t.Weight()
	}
	return float64(score) / float64(e.densityCeiling)
}

// ScoreUniqueWeighted scores a match set by presence: each distinct matched
// keyword contributes its tier weight once.
func (e *Engine) ScoreUniqueWeighted(m KeywordMatchSet) RiskScore {
	score := 0
	for _, t := range lexicon.Tiers {
		seen := make(map[string]struct{}, len(m.Tier(t)))
		for _, kw := range m.Tier(t) {
			seen[kw] = struct{}{}
		}
		score += len(seen) * t.Weight()
	}
	return RiskScore{Score: score, Level: e.levelFor(score)}
}

func (e *Engine) levelFor(score int) Level {
	switch {
	case score >= e.thresholds.High:
		return LevelHigh
	case score >= e.thresholds.Moderate:
		return LevelModerate
	default:
		return LevelLow
	}
}
