// Package policyrisk scores privacy-policy text against a keyword lexicon.
//
// The Engine exposes eight pure operations: ClassifyKeywords, ScoreDensity,
// ScoreUniqueWeighted, CategorizeRisks, HighlightSentences, SummarizeRisky,
// SummarizeExtractive and CheckCompliance.  An Engine holds only immutable
// data and is safe for concurrent use; every operation is deterministic for
// identical input.
package policyrisk

import (
	"fmt"
	"strings"

	"github.com/turtacn/PriviQ/internal/intelligence/lexicon"
	"github.com/turtacn/PriviQ/internal/intelligence/nlp"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// Defaults for the unique-weighted level thresholds and summary lengths.
const (
	DefaultHighThreshold         = 15
	DefaultModerateThreshold     = 7
	DefaultSummarySentences      = 3
	DefaultRiskySummarySentences = 3
)

// Thresholds bound the unique-weighted score levels: a score ≥ High is
// LevelHigh, ≥ Moderate is LevelModerate, anything lower is LevelLow.
type Thresholds struct {
	High     int
	Moderate int
}

type options struct {
	mode             MatchMode
	thresholds       Thresholds
	summarySentences int
	riskySentences   int
}

// Option configures an Engine.
type Option func(*options)

// WithMatchMode selects substring (default) or word-bounded matching.
func WithMatchMode(m MatchMode) Option {
	return func(o *options) { o.mode = m }
}

// WithThresholds overrides the unique-weighted level thresholds.
func WithThresholds(high, moderate int) Option {
	return func(o *options) { o.thresholds = Thresholds{High: high, Moderate: moderate} }
}

// WithSummarySentences sets the default length of SummarizeExtractive.
func WithSummarySentences(n int) Option {
	return func(o *options) { o.summarySentences = n }
}

// WithRiskySummarySentences sets the length of SummarizeRisky.
func WithRiskySummarySentences(n int) Option {
	return func(o *options) { o.riskySentences = n }
}

// Engine runs the risk operations over a fixed lexicon.
type Engine struct {
	lex        lexicon.Lexicon
	keywords   []string
	seg        nlp.Segmenter
	match      Matcher
	mode       MatchMode
	thresholds Thresholds

	summarySentences int
	riskySentences   int

	// densityCeiling is Σ len(tier) × weight, the density denominator.
	densityCeiling int
}

// New builds an Engine.  The lexicon is validated and copied; seg defaults
// to nlp.NewPunktSegmenter when nil.
func New(lex lexicon.Lexicon, seg nlp.Segmenter, opts ...Option) (*Engine, error) {
	o := options{
		mode:             MatchSubstring,
		thresholds:       Thresholds{High: DefaultHighThreshold, Moderate: DefaultModerateThreshold},
		summarySentences: DefaultSummarySentences,
		riskySentences:   DefaultRiskySummarySentences,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := ParseMatchMode(string(o.mode)); err != nil {
		return nil, errors.InvalidParam(err.Error())
	}
	if o.thresholds.Moderate < 1 || o.thresholds.High <= o.thresholds.Moderate {
		return nil, errors.InvalidParam(fmt.Sprintf(
			"invalid thresholds: high=%d moderate=%d", o.thresholds.High, o.thresholds.Moderate))
	}
	if o.summarySentences < 1 || o.riskySentences < 1 {
		return nil, errors.InvalidParam("summary sentence counts must be positive")
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	if seg == nil {
		punkt, err := nlp.NewPunktSegmenter()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "load sentence model")
		}
		seg = punkt
	}

	norm := lex.Normalized()
	e := &Engine{
		lex:              norm,
		keywords:         norm.Severity.Flatten(),
		seg:              seg,
		match:            NewMatcher(o.mode),
		mode:             o.mode,
		thresholds:       o.thresholds,
		summarySentences: o.summarySentences,
		riskySentences:   o.riskySentences,
	}
	for _, t := range lexicon.Tiers {
		e.densityCeiling += len(norm.Severity.Keywords(t)) * t.Weight()
	}
	return e, nil
}

// Lexicon returns a copy of the normalized lexicon in use.
func (e *Engine) Lexicon() lexicon.Lexicon { return e.lex.Clone() }

// Keywords returns every severity keyword, High tier first.
func (e *Engine) Keywords() []string {
	out := make([]string, len(e.keywords))
	copy(out, e.keywords)
	return out
}

// MatchMode reports the active matching strategy.
func (e *Engine) MatchMode() MatchMode { return e.mode }

// Thresholds reports the active level thresholds.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// SummarySentences reports the default extractive summary length.
func (e *Engine) SummarySentences() int { return e.summarySentences }

// Segment exposes the underlying segmentation.
func (e *Engine) Segment(text string) []nlp.Sentence { return e.seg.Segment(text) }

func lower(text string) string { return strings.ToLower(text) }
