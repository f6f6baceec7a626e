package policyrisk

import "github.com/turtacn/PriviQ/internal/intelligence/lexicon"

// Level is the overall risk level derived from the unique-weighted score.
type Level string

const (
	LevelHigh     Level = "High"
	LevelModerate Level = "Moderate"
	LevelLow      Level = "Low"
)

// Bucket is the display band of a highlighted sentence.
type Bucket string

const (
	BucketHigh     Bucket = "high"
	BucketModerate Bucket = "moderate"
	BucketLow      Bucket = "low"
)

// Bucket boundaries on the normalized sentence score.
const (
	highBucketFloor     = 0.7
	moderateBucketFloor = 0.4
)

// NoRiskyContent is returned by SummarizeRisky when no sentence contains a
// keyword.
const NoRiskyContent = "No risky content found."

// KeywordMatchSet holds, per tier, the distinct lexicon keywords found in a
// document, in lexicon order.
type KeywordMatchSet struct {
	High     []string `json:"high"`
	Moderate []string `json:"moderate"`
	Low      []string `json:"low"`
}

// Tier returns the matches of tier t.
func (m KeywordMatchSet) Tier(t lexicon.Tier) []string {
	switch t {
	case lexicon.TierHigh:
		return m.High
	case lexicon.TierModerate:
		return m.Moderate
	case lexicon.TierLow:
		return m.Low
	default:
		return nil
	}
}

// Total is the number of matched keywords across all tiers.
func (m KeywordMatchSet) Total() int {
	return len(m.High) + len(m.Moderate) + len(m.Low)
}

// RiskScore is the unique-weighted score and its level.
type RiskScore struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

// CategoryMatch lists the keywords of one category found in a document.
type CategoryMatch struct {
	Category string   `json:"category"`
	Hits     []string `json:"hits"`
}

// CategoryShare is one slice of the category distribution.
type CategoryShare struct {
	Category string  `json:"category"`
	Hits     int     `json:"hits"`
	Share    float64 `json:"share"`
}

// Distribution converts category matches into shares of the total hit count,
// preserving order.  An empty input yields an empty distribution.
func Distribution(matches []CategoryMatch) []CategoryShare {
	total := 0
	for _, m := range matches {
		total += len(m.Hits)
	}
	out := make([]CategoryShare, 0, len(matches))
	if total == 0 {
		return out
	}
	for _, m := range matches {
		out = append(out, CategoryShare{
			Category: m.Category,
			Hits:     len(m.Hits),
			Share:    float64(len(m.Hits)) / float64(total),
		})
	}
	return out
}

// HighlightedSentence is a sentence with its normalized score and bucket.
type HighlightedSentence struct {
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Bucket Bucket  `json:"bucket"`
}

// bucketFor maps a normalized score to its bucket.
func bucketFor(score float64) Bucket {
	switch {
	case score >= highBucketFloor:
		return BucketHigh
	case score >= moderateBucketFloor:
		return BucketModerate
	default:
		return BucketLow
	}
}
