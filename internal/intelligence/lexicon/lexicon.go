// Package lexicon holds the keyword tables that drive policy risk analysis:
// the severity tiers, the risk categories and the compliance clauses.
//
// A Lexicon is a value.  Callers receive copies from Default, Parse and Load,
// and consumers such as the risk engine take their own copy at construction,
// so no table is ever mutated after it is built.
package lexicon

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Severity tiers
// ---------------------------------------------------------------------------

// Tier is a severity band of the SeverityLexicon.
type Tier int

const (
	TierHigh Tier = iota
	TierModerate
	TierLow
)

// Tiers lists every tier from most to least severe.
var Tiers = []Tier{TierHigh, TierModerate, TierLow}

// Weight returns the scoring weight of the tier: High 3, Moderate 2, Low 1.
func (t Tier) Weight() int {
	switch t {
	case TierHigh:
		return 3
	case TierModerate:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierModerate:
		return "moderate"
	case TierLow:
		return "low"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// SeverityLexicon maps each tier to its ordered keyword list.
type SeverityLexicon struct {
	High     []string `yaml:"high" json:"high" validate:"required,min=1,dive,required"`
	Moderate []string `yaml:"moderate" json:"moderate" validate:"required,min=1,dive,required"`
	Low      []string `yaml:"low" json:"low" validate:"required,min=1,dive,required"`
}

// Keywords returns the keyword list of tier t.
func (s SeverityLexicon) Keywords(t Tier) []string {
	switch t {
	case TierHigh:
		return s.High
	case TierModerate:
		return s.Moderate
	case TierLow:
		return s.Low
	default:
		return nil
	}
}

// Flatten returns every severity keyword, High tier first, without
// duplicates.
func (s SeverityLexicon) Flatten() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(s.High)+len(s.Moderate)+len(s.Low))
	for _, t := range Tiers {
		for _, kw := range s.Keywords(t) {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Categories and clauses
// ---------------------------------------------------------------------------

// Category is a labelled group of keywords or phrases.
type Category struct {
	Label    string   `yaml:"label" json:"label" validate:"required"`
	Keywords []string `yaml:"keywords" json:"keywords" validate:"required,min=1,dive,required"`
}

// Clause is a compliance requirement: when Trigger is absent from a document
// the clause is reported with Message.
type Clause struct {
	ID      string `yaml:"id" json:"id" validate:"required"`
	Trigger string `yaml:"trigger" json:"trigger" validate:"required"`
	Message string `yaml:"message" json:"message" validate:"required"`
}

// Lexicon bundles the three tables.  Categories and Clauses are ordered;
// reports follow that order.
type Lexicon struct {
	Severity   SeverityLexicon `yaml:"severity" json:"severity"`
	Categories []Category      `yaml:"categories" json:"categories" validate:"required,min=1,unique=Label,dive"`
	Clauses    []Clause        `yaml:"clauses" json:"clauses" validate:"required,min=1,unique=ID,dive"`
}

// Clone returns a deep copy of l.
func (l Lexicon) Clone() Lexicon {
	out := Lexicon{
		Severity: SeverityLexicon{
			High:     cloneStrings(l.Severity.High),
			Moderate: cloneStrings(l.Severity.Moderate),
			Low:      cloneStrings(l.Severity.Low),
		},
		Categories: make([]Category, len(l.Categories)),
		Clauses:    make([]Clause, len(l.Clauses)),
	}
	for i, c := range l.Categories {
		out.Categories[i] = Category{Label: c.Label, Keywords: cloneStrings(c.Keywords)}
	}
	copy(out.Clauses, l.Clauses)
	return out
}

// Normalized returns a copy of l with every keyword and trigger lower-cased
// and trimmed.  Labels, ids and messages keep their case.
func (l Lexicon) Normalized() Lexicon {
	out := l.Clone()
	lowerAll(out.Severity.High)
	lowerAll(out.Severity.Moderate)
	lowerAll(out.Severity.Low)
	for i := range out.Categories {
		lowerAll(out.Categories[i].Keywords)
	}
	for i := range out.Clauses {
		out.Clauses[i].Trigger = strings.ToLower(strings.TrimSpace(out.Clauses[i].Trigger))
	}
	return out
}

// CategoryLabels returns the category labels in lexicon order.
func (l Lexicon) CategoryLabels() []string {
	out := make([]string, len(l.Categories))
	for i, c := range l.Categories {
		out[i] = c.Label
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func lowerAll(s []string) {
	for i := range s {
		s[i] = strings.ToLower(strings.TrimSpace(s[i]))
	}
}
