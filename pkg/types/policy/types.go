// Package policy holds the wire types of the PriviQ HTTP API. They mirror
// the JSON bodies served under /api/v1 and carry no behavior beyond small
// helpers.
package policy

import "time"

// Level is the overall risk band of a document.
type Level string

const (
	LevelHigh     Level = "High"
	LevelModerate Level = "Moderate"
	LevelLow      Level = "Low"
)

// Bucket is the highlight band of a single sentence.
type Bucket string

const (
	BucketHigh     Bucket = "high"
	BucketModerate Bucket = "moderate"
	BucketLow      Bucket = "low"
)

// Report sections, in display order.
const (
	SectionKeywords     = "keywords"
	SectionCategories   = "categories"
	SectionHighlights   = "highlights"
	SectionRiskySummary = "risky_summary"
	SectionSummary      = "summary"
	SectionCompliance   = "compliance"
	SectionTranslation  = "translation"
)

// Request is the body of every document endpoint. Fill one of Text, URL,
// FileContent or Object; when several are set the server prefers URL, then
// Text, then the file, then the object.
type Request struct {
	Text        string   `json:"text,omitempty"`
	URL         string   `json:"url,omitempty"`
	FileContent []byte   `json:"file_content,omitempty"`
	FileName    string   `json:"file_name,omitempty"`
	Object      string   `json:"object,omitempty"`
	Language    string   `json:"language,omitempty"`
	Sentences   int      `json:"sentences,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// TextRequest is the body of /translate and /speech.
type TextRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type KeywordMatchSet struct {
	High     []string `json:"high"`
	Moderate []string `json:"moderate"`
	Low      []string `json:"low"`
}

// Total is the number of matched keywords across tiers.
func (m KeywordMatchSet) Total() int { return len(m.High) + len(m.Moderate) + len(m.Low) }

type RiskScore struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

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

type HighlightedSentence struct {
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Bucket Bucket  `json:"bucket"`
}

type DocumentInfo struct {
	Kind       string   `json:"kind"`
	Origin     string   `json:"origin,omitempty"`
	Characters int      `json:"characters"`
	Sentences  int      `json:"sentences"`
	Warnings   []string `json:"warnings,omitempty"`
}

type Translation struct {
	Language     string `json:"language"`
	RiskySummary string `json:"risky_summary"`
	Summary      string `json:"summary"`
}

type SectionError struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// Report is the body of /analyze and of completed jobs.
type Report struct {
	Document       DocumentInfo          `json:"document"`
	Keywords       KeywordMatchSet       `json:"keywords"`
	Risk           RiskScore             `json:"risk"`
	Density        float64               `json:"density"`
	Categories     []CategoryMatch       `json:"categories"`
	Distribution   []CategoryShare       `json:"distribution"`
	Highlights     []HighlightedSentence `json:"highlights"`
	RiskySummary   string                `json:"risky_summary"`
	Summary        string                `json:"summary"`
	MissingClauses []string              `json:"missing_clauses"`
	Compliant      bool                  `json:"compliant"`
	Translation    *Translation          `json:"translation,omitempty"`
	Errors         []SectionError        `json:"errors,omitempty"`
	GeneratedAt    time.Time             `json:"generated_at"`
	DurationMs     int64                 `json:"duration_ms"`
}

// Failed reports whether section recorded an error.
func (r *Report) Failed(section string) bool {
	for _, e := range r.Errors {
		if e.Section == section {
			return true
		}
	}
	return false
}

type ClassifyResult struct {
	Keywords KeywordMatchSet `json:"keywords"`
	Risk     RiskScore       `json:"risk"`
}

type DensityResult struct {
	Density  float64  `json:"density"`
	Warnings []string `json:"warnings,omitempty"`
}

type CategorizeResult struct {
	Categories   []CategoryMatch `json:"categories"`
	Distribution []CategoryShare `json:"distribution"`
}

type HighlightResult struct {
	Highlights []HighlightedSentence `json:"highlights"`
	Warnings   []string              `json:"warnings,omitempty"`
}

type SummaryResult struct {
	Summary  string   `json:"summary"`
	Warnings []string `json:"warnings,omitempty"`
}

type ComplianceResult struct {
	Missing   []string `json:"missing"`
	Compliant bool     `json:"compliant"`
}

type TranslateResult struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ErrorBody is the payload under "error" in every failed response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
