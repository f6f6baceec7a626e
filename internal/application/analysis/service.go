// Package analysis is the application service that turns a policy input into
// risk reports, summaries, translations and audio.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/internal/infrastructure/speech"
	"github.com/turtacn/PriviQ/internal/intelligence/policyrisk"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// DefaultTimeout bounds a full report when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Service defines the analysis operations exposed to HTTP, gRPC, CLI and the
// job worker.
type Service interface {
	Resolve(ctx context.Context, in source.Input) (source.Document, error)
	Analyze(ctx context.Context, req *AnalyzeRequest) (*Report, error)

	Classify(ctx context.Context, doc source.Document) (*ClassifyResult, error)
	ScoreDensity(ctx context.Context, doc source.Document) (float64, error)
	Categorize(ctx context.Context, doc source.Document) (*CategorizeResult, error)
	Highlight(ctx context.Context, doc source.Document) ([]policyrisk.HighlightedSentence, error)
	SummarizeRisky(ctx context.Context, doc source.Document, keywords []string) (string, error)
	SummarizeExtractive(ctx context.Context, doc source.Document, sentences int) (string, error)
	CheckCompliance(ctx context.Context, doc source.Document) (*ComplianceResult, error)

	Translate(ctx context.Context, text, language string) (*Translation, error)
	Speak(ctx context.Context, text, language string) ([]byte, error)
	Languages() []speech.Language
}

// DocumentResolver turns caller input into a document.
type DocumentResolver interface {
	Resolve(ctx context.Context, in source.Input) (source.Document, error)
}

// Deps are the collaborators of the service. Translator and Synthesizer are
// optional.
type Deps struct {
	Engine      *policyrisk.Engine
	Resolver    DocumentResolver
	Translator  speech.Translator
	Synthesizer speech.Synthesizer
	Metrics     *prometheus.AppMetrics
	Logger      logging.Logger
	Timeout     time.Duration
}

type service struct {
	engine      *policyrisk.Engine
	resolver    DocumentResolver
	translator  speech.Translator
	synthesizer speech.Synthesizer
	metrics     *prometheus.AppMetrics
	logger      logging.Logger
	timeout     time.Duration
}

// NewService validates deps and returns a Service.
func NewService(deps Deps) (Service, error) {
	if deps.Engine == nil {
		return nil, errors.New(errors.ErrCodeValidation, "analysis engine is required")
	}
	if deps.Resolver == nil {
		deps.Resolver = source.NewResolver(nil, nil, deps.Metrics, deps.Logger)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	return &service{
		engine:      deps.Engine,
		resolver:    deps.Resolver,
		translator:  deps.Translator,
		synthesizer: deps.Synthesizer,
		metrics:     deps.Metrics,
		logger:      deps.Logger.Named("analysis"),
		timeout:     deps.Timeout,
	}, nil
}

func (s *service) Resolve(ctx context.Context, in source.Input) (source.Document, error) {
	return s.resolver.Resolve(ctx, in)
}

// -----------------------------------------------------------------------
// Full report
// -----------------------------------------------------------------------

func (s *service) Analyze(ctx context.Context, req *AnalyzeRequest) (*Report, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "analyze request is required")
	}
	start := time.Now()

	var lang speech.Language
	translate := false
	if strings.TrimSpace(req.Language) != "" {
		l, err := speech.ParseLanguage(req.Language)
		if err != nil {
			return nil, err
		}
		lang, translate = l, !l.IsEnglish()
	}

	doc, err := s.resolver.Resolve(ctx, req.Input)
	if err != nil {
		prometheus.RecordOperation(s.metrics, "analyze", time.Since(start), err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report := s.buildReport(ctx, doc, req.Sentences)
	if translate {
		report.Translation = s.translateSummaries(ctx, report, lang)
	}

	report.GeneratedAt = time.Now().UTC()
	report.DurationMs = time.Since(start).Milliseconds()

	prometheus.RecordOperation(s.metrics, "analyze", time.Since(start), nil)
	prometheus.RecordDocument(s.metrics, string(doc.Kind), len(doc.Text), string(report.Risk.Level))
	s.logger.Info("analysis completed",
		logging.String("source", string(doc.Kind)),
		logging.Int("chars", len(doc.Text)),
		logging.Int("score", report.Risk.Score),
		logging.String("level", string(report.Risk.Level)),
		logging.Int("section_errors", len(report.Errors)),
		logging.Duration("took", time.Since(start)))
	return report, nil
}

// buildReport runs every section concurrently. A section that panics or
// observes cancellation is recorded in Report.Errors; the others still fill
// their fields.
func (s *service) buildReport(ctx context.Context, doc source.Document, sentences int) *Report {
	text := doc.Text
	r := &Report{
		Document: DocumentInfo{
			Kind:       doc.Kind,
			Origin:     doc.Origin,
			Characters: len([]rune(text)),
			Warnings:   doc.Warnings,
		},
		Categories:     []policyrisk.CategoryMatch{},
		Distribution:   []policyrisk.CategoryShare{},
		Highlights:     []policyrisk.HighlightedSentence{},
		MissingClauses: []string{},
	}
	if sentences <= 0 {
		sentences = s.engine.SummarySentences()
	}

	var mu sync.Mutex
	fail := func(sec Section, err error) {
		mu.Lock()
		defer mu.Unlock()
		r.Errors = append(r.Errors, SectionError{Section: sec, Message: err.Error()})
		prometheus.RecordSectionFailure(s.metrics, string(sec))
		s.logger.Warn("report section failed", logging.String("section", string(sec)), logging.Err(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	run := func(sec Section, fn func()) {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					fail(sec, fmt.Errorf("panic: %v", p))
				}
			}()
			if err := gctx.Err(); err != nil {
				fail(sec, err)
				return nil
			}
			started := time.Now()
			fn()
			prometheus.RecordOperation(s.metrics, string(sec), time.Since(started), nil)
			return nil
		})
	}

	run(SectionKeywords, func() {
		r.Keywords = s.engine.ClassifyKeywords(text)
		r.Risk = s.engine.ScoreUniqueWeighted(r.Keywords)
		r.Density = s.engine.ScoreDensity(text)
	})
	run(SectionCategories, func() {
		r.Categories = s.engine.CategorizeRisks(text)
		r.Distribution = policyrisk.Distribution(r.Categories)
	})
	run(SectionHighlights, func() {
		r.Highlights = s.engine.HighlightSentences(text)
		r.Document.Sentences = len(r.Highlights)
	})
	run(SectionRiskySummary, func() {
		r.RiskySummary = s.engine.SummarizeRisky(text, nil)
	})
	run(SectionSummary, func() {
		r.Summary = s.engine.SummarizeExtractive(text, sentences)
	})
	run(SectionCompliance, func() {
		r.MissingClauses = s.engine.CheckCompliance(text)
		r.Compliant = len(r.MissingClauses) == 0
	})
	_ = g.Wait()

	sortSectionErrors(r.Errors)
	return r
}

func sortSectionErrors(errs []SectionError) {
	rank := make(map[Section]int, len(AllSections))
	for i, s := range AllSections {
		rank[s] = i
	}
	sort.SliceStable(errs, func(i, j int) bool { return rank[errs[i].Section] < rank[errs[j].Section] })
}

func (s *service) translateSummaries(ctx context.Context, r *Report, lang speech.Language) *Translation {
	t := &Translation{Language: lang.Code}
	if s.translator == nil {
		msg := translationFailed(errors.New(errors.ErrCodeFeatureDisabled, "translation is not configured"))
		t.RiskySummary, t.Summary = msg, msg
		r.Errors = append(r.Errors, SectionError{Section: SectionTranslation, Message: msg})
		return t
	}
	var failed error
	t.RiskySummary, failed = s.translateText(ctx, r.RiskySummary, lang)
	var err error
	if t.Summary, err = s.translateText(ctx, r.Summary, lang); err != nil && failed == nil {
		failed = err
	}
	if failed != nil {
		r.Errors = append(r.Errors, SectionError{Section: SectionTranslation, Message: translationFailed(failed)})
		prometheus.RecordSectionFailure(s.metrics, string(SectionTranslation))
	}
	return t
}

// translateText returns the translation, or the user-visible failure
// message together with the error.
func (s *service) translateText(ctx context.Context, text string, lang speech.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	out, err := s.translator.Translate(ctx, text, lang)
	prometheus.RecordSpeechCall(s.metrics, "translate", err)
	if err != nil {
		return translationFailed(err), err
	}
	return out, nil
}

func translationFailed(err error) string {
	return "Translation failed: " + err.Error()
}

// -----------------------------------------------------------------------
// Single operations
// -----------------------------------------------------------------------

// observe runs fn as a named operation on a non-empty document.
func (s *service) observe(ctx context.Context, op string, doc source.Document, fn func(text string)) error {
	start := time.Now()
	err := checkDocument(ctx, doc)
	if err == nil {
		fn(doc.Text)
	}
	prometheus.RecordOperation(s.metrics, op, time.Since(start), err)
	return err
}

func checkDocument(ctx context.Context, doc source.Document) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeTimeout, "request cancelled")
	}
	if strings.TrimSpace(doc.Text) == "" {
		return source.ErrEmptyDocument
	}
	return nil
}

func (s *service) Classify(ctx context.Context, doc source.Document) (*ClassifyResult, error) {
	var res ClassifyResult
	err := s.observe(ctx, "classify", doc, func(text string) {
		res.Keywords = s.engine.ClassifyKeywords(text)
		res.Risk = s.engine.ScoreUniqueWeighted(res.Keywords)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *service) ScoreDensity(ctx context.Context, doc source.Document) (float64, error) {
	var d float64
	err := s.observe(ctx, "density", doc, func(text string) { d = s.engine.ScoreDensity(text) })
	return d, err
}

func (s *service) Categorize(ctx context.Context, doc source.Document) (*CategorizeResult, error) {
	var res CategorizeResult
	err := s.observe(ctx, "categorize", doc, func(text string) {
		res.Categories = s.engine.CategorizeRisks(text)
		res.Distribution = policyrisk.Distribution(res.Categories)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *service) Highlight(ctx context.Context, doc source.Document) ([]policyrisk.HighlightedSentence, error) {
	var out []policyrisk.HighlightedSentence
	err := s.observe(ctx, "highlight", doc, func(text string) { out = s.engine.HighlightSentences(text) })
	return out, err
}

// SummarizeRisky uses the engine's flattened lexicon when keywords is nil.
func (s *service) SummarizeRisky(ctx context.Context, doc source.Document, keywords []string) (string, error) {
	var out string
	err := s.observe(ctx, "summarize_risky", doc, func(text string) { out = s.engine.SummarizeRisky(text, keywords) })
	return out, err
}

func (s *service) SummarizeExtractive(ctx context.Context, doc source.Document, sentences int) (string, error) {
	var out string
	err := s.observe(ctx, "summarize_extractive", doc, func(text string) {
		out = s.engine.SummarizeExtractive(text, sentences)
	})
	return out, err
}

func (s *service) CheckCompliance(ctx context.Context, doc source.Document) (*ComplianceResult, error) {
	var res ComplianceResult
	err := s.observe(ctx, "compliance", doc, func(text string) {
		res.Missing = s.engine.CheckCompliance(text)
		res.Compliant = len(res.Missing) == 0
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// -----------------------------------------------------------------------
// Collaborators
// -----------------------------------------------------------------------

// Translate renders text in language. A failing backend is reported in the
// returned text, not as an error.
func (s *service) Translate(ctx context.Context, text, language string) (*Translation, error) {
	lang, err := speech.ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "text is required")
	}
	if lang.IsEnglish() {
		return &Translation{Language: lang.Code, Summary: text}, nil
	}
	if s.translator == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "translation is not configured")
	}
	out, _ := s.translateText(ctx, text, lang)
	return &Translation{Language: lang.Code, Summary: out}, nil
}

func (s *service) Speak(ctx context.Context, text, language string) ([]byte, error) {
	lang, err := speech.ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "text is required")
	}
	if s.synthesizer == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "speech synthesis is not configured")
	}
	audio, err := s.synthesizer.Synthesize(ctx, text, lang)
	prometheus.RecordSpeechCall(s.metrics, "speak", err)
	if err != nil {
		s.logger.Warn("speech synthesis failed", logging.String("language", lang.Code), logging.Err(err))
		if errors.IsCode(err, errors.ErrCodeSpeechFailed) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeSpeechFailed, "speech synthesis failed")
	}
	return audio, nil
}

func (s *service) Languages() []speech.Language {
	out := make([]speech.Language, len(speech.SupportedLanguages))
	copy(out, speech.SupportedLanguages)
	return out
}
