package analysis

import (
	"time"

	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/internal/intelligence/policyrisk"
)

// Section names a part of the full report. Each section is computed
// independently of the others.
type Section string

const (
	SectionKeywords     Section = "keywords"
	SectionCategories   Section = "categories"
	SectionHighlights   Section = "highlights"
	SectionRiskySummary Section = "risky_summary"
	SectionSummary      Section = "summary"
	SectionCompliance   Section = "compliance"
	SectionTranslation  Section = "translation"
)

// AllSections lists the report sections in display order.
var AllSections = []Section{
	SectionKeywords,
	SectionCategories,
	SectionHighlights,
	SectionRiskySummary,
	SectionSummary,
	SectionCompliance,
}

// AnalyzeRequest asks for a full report.
type AnalyzeRequest struct {
	Input source.Input `json:"input"`
	// Language selects a translation of both summaries. Empty or English
	// skips translation.
	Language string `json:"language,omitempty"`
	// Sentences overrides the extractive summary length when positive.
	Sentences int `json:"sentences,omitempty"`
}

// SectionError records a section that could not be produced.
type SectionError struct {
	Section Section `json:"section"`
	Message string  `json:"message"`
}

// DocumentInfo describes the analyzed document without repeating its text.
type DocumentInfo struct {
	Kind       source.Kind `json:"kind"`
	Origin     string      `json:"origin,omitempty"`
	Characters int         `json:"characters"`
	Sentences  int         `json:"sentences"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// Translation holds both summaries rendered in another language. A failed
// translation carries the failure message in place of the text.
type Translation struct {
	Language     string `json:"language"`
	RiskySummary string `json:"risky_summary"`
	Summary      string `json:"summary"`
}

// Report is the combined result of every analysis over one document.
type Report struct {
	Document       DocumentInfo                     `json:"document"`
	Keywords       policyrisk.KeywordMatchSet       `json:"keywords"`
	Risk           policyrisk.RiskScore             `json:"risk"`
	Density        float64                          `json:"density"`
	Categories     []policyrisk.CategoryMatch       `json:"categories"`
	Distribution   []policyrisk.CategoryShare       `json:"distribution"`
	Highlights     []policyrisk.HighlightedSentence `json:"highlights"`
	RiskySummary   string                           `json:"risky_summary"`
	Summary        string                           `json:"summary"`
	MissingClauses []string                         `json:"missing_clauses"`
	Compliant      bool                             `json:"compliant"`
	Translation    *Translation                     `json:"translation,omitempty"`
	Errors         []SectionError                   `json:"errors,omitempty"`
	GeneratedAt    time.Time                        `json:"generated_at"`
	DurationMs     int64                            `json:"duration_ms"`
}

// Failed reports whether section s recorded an error.
func (r *Report) Failed(s Section) bool {
	for _, e := range r.Errors {
		if e.Section == s {
			return true
		}
	}
	return false
}

// ClassifyResult pairs tiered matches with their score.
type ClassifyResult struct {
	Keywords policyrisk.KeywordMatchSet `json:"keywords"`
	Risk     policyrisk.RiskScore       `json:"risk"`
}

// CategorizeResult pairs category hits with their distribution.
type CategorizeResult struct {
	Categories   []policyrisk.CategoryMatch `json:"categories"`
	Distribution []policyrisk.CategoryShare `json:"distribution"`
}

// ComplianceResult lists missing clauses in lexicon order.
type ComplianceResult struct {
	Missing   []string `json:"missing"`
	Compliant bool     `json:"compliant"`
}
