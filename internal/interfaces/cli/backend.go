package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/internal/intelligence/policyrisk"
	"github.com/turtacn/PriviQ/pkg/client"
	"github.com/turtacn/PriviQ/pkg/errors"
	"github.com/turtacn/PriviQ/pkg/types/policy"
)

// Input names one policy document. When several fields are set the URL wins,
// then the text, then the file, then the stored object.
type Input struct {
	Text   string
	URL    string
	File   string
	Object string
}

func (in Input) empty() bool {
	return in.Text == "" && in.URL == "" && in.File == "" && in.Object == ""
}

// Request is what a document command asks of the backend.
type Request struct {
	Input     Input
	Language  string
	Sentences int
	Keywords  []string
}

// Backend runs analyses either in-process or against a PriviQ server.
type Backend interface {
	Analyze(ctx context.Context, req *Request) (*policy.Report, error)
	Classify(ctx context.Context, req *Request) (*policy.ClassifyResult, error)
	ScoreDensity(ctx context.Context, req *Request) (*policy.DensityResult, error)
	Categorize(ctx context.Context, req *Request) (*policy.CategorizeResult, error)
	Highlight(ctx context.Context, req *Request) (*policy.HighlightResult, error)
	SummarizeRisky(ctx context.Context, req *Request) (*policy.SummaryResult, error)
	SummarizeExtractive(ctx context.Context, req *Request) (*policy.SummaryResult, error)
	CheckCompliance(ctx context.Context, req *Request) (*policy.ComplianceResult, error)
	Translate(ctx context.Context, text, language string) (*policy.TranslateResult, error)
	Speak(ctx context.Context, text, language string) ([]byte, error)
	Languages(ctx context.Context) ([]policy.Language, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Local backend
// ─────────────────────────────────────────────────────────────────────────────

type localBackend struct {
	svc analysis.Service
}

// NewLocalBackend runs every command through svc. Files are read from the
// local filesystem by path.
func NewLocalBackend(svc analysis.Service) Backend {
	return &localBackend{svc: svc}
}

func (b *localBackend) resolve(ctx context.Context, req *Request) (source.Document, error) {
	return b.svc.Resolve(ctx, localInput(req.Input))
}

func localInput(in Input) source.Input {
	return source.Input{URL: in.URL, Text: in.Text, FilePath: in.File, Object: in.Object}
}

func (b *localBackend) Analyze(ctx context.Context, req *Request) (*policy.Report, error) {
	r, err := b.svc.Analyze(ctx, &analysis.AnalyzeRequest{
		Input:     localInput(req.Input),
		Language:  req.Language,
		Sentences: req.Sentences,
	})
	if err != nil {
		return nil, err
	}
	return toReport(r), nil
}

func (b *localBackend) Classify(ctx context.Context, req *Request) (*policy.ClassifyResult, error) {
	doc, err := b.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := b.svc.Classify(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &policy.ClassifyResult{Keywords: toMatches(res.Keywords), Risk: toRisk(res.Risk)}, nil
}

func (b *localBackend) ScoreDensity(ctx context.Context, req *Request) (*policy.DensityResult, error) {
	doc, err := b.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	d, err := b.svc.ScoreDensity(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &policy.DensityResult{Density: d, Warnings: doc.Warnings}, nil
}

func (b *localBackend) Categorize(ctx context.Context, req *Request) (*policy.CategorizeResult, error) {
	doc, err := b.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := b.svc.Categorize(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &policy.CategorizeResult{
		Categories:   toCategories(res.Categories),
		Distribution: toShares(res.Distribution),
	}, nil
}

func (b *localBackend) Highlight(ctx context.Context, req *Request) (*policy.HighlightResult, error) {
	doc, err := b.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	hs, err := b.svc.Highlight(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &policy.HighlightResult{Highlights: toHighlights(hs), Warnings: doc.Warnings}, nil
}

func (b *localBackend) SummarizeRisky(ctx context.Context, req *Request) (*policy.SummaryResult, error) {
	doc, err := b.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	var keywords []string
	if len(req.Keywords) > 0 {
		keywords = req.Keywords
	}
	s, err := b.svc.SummarizeRisky(ctx, doc, keywords)
	if err != nil {
		return nil, err
	}
	return &policy.SummaryResult{Summary: s, Warnings: doc.Warnings}, nil
}

func (b *localBackend) SummarizeExtractive(ctx context.Context, req *Request) (*policy.SummaryResult, error) {
	doc, err := b.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	s, err := b.svc.SummarizeExtractive(ctx, doc, req.Sentences)
	if err != nil {
		return nil, err
	}
	return &policy.SummaryResult{Summary: s, Warnings: doc.Warnings}, nil
}

func (b *localBackend) CheckCompliance(ctx context.Context, req *Request) (*policy.ComplianceResult, error) {
	doc, err := b.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := b.svc.CheckCompliance(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &policy.ComplianceResult{Missing: res.Missing, Compliant: res.Compliant}, nil
}

func (b *localBackend) Translate(ctx context.Context, text, language string) (*policy.TranslateResult, error) {
	t, err := b.svc.Translate(ctx, text, language)
	if err != nil {
		return nil, err
	}
	return &policy.TranslateResult{Language: t.Language, Text: t.Summary}, nil
}

func (b *localBackend) Speak(ctx context.Context, text, language string) ([]byte, error) {
	return b.svc.Speak(ctx, text, language)
}

func (b *localBackend) Languages(context.Context) ([]policy.Language, error) {
	langs := b.svc.Languages()
	out := make([]policy.Language, len(langs))
	for i, l := range langs {
		out[i] = policy.Language{Code: l.Code, Name: l.Name}
	}
	return out, nil
}

func toMatches(m policyrisk.KeywordMatchSet) policy.KeywordMatchSet {
	return policy.KeywordMatchSet{High: m.High, Moderate: m.Moderate, Low: m.Low}
}

func toRisk(r policyrisk.RiskScore) policy.RiskScore {
	return policy.RiskScore{Score: r.Score, Level: policy.Level(r.Level)}
}

func toCategories(in []policyrisk.CategoryMatch) []policy.CategoryMatch {
	out := make([]policy.CategoryMatch, len(in))
	for i, c := range in {
		out[i] = policy.CategoryMatch{Category: c.Category, Hits: c.Hits}
	}
	return out
}

func toShares(in []policyrisk.CategoryShare) []policy.CategoryShare {
	out := make([]policy.CategoryShare, len(in))
	for i, s := range in {
		out[i] = policy.CategoryShare{Category: s.Category, Hits: s.Hits, Share: s.Share}
	}
	return out
}

func toHighlights(in []policyrisk.HighlightedSentence) []policy.HighlightedSentence {
	out := make([]policy.HighlightedSentence, len(in))
	for i, h := range in {
		out[i] = policy.HighlightedSentence{Index: h.Index, Text: h.Text, Score: h.Score, Bucket: policy.Bucket(h.Bucket)}
	}
	return out
}

func toReport(r *analysis.Report) *policy.Report {
	out := &policy.Report{
		Document: policy.DocumentInfo{
			Kind:       string(r.Document.Kind),
			Origin:     r.Document.Origin,
			Characters: r.Document.Characters,
			Sentences:  r.Document.Sentences,
			Warnings:   r.Document.Warnings,
		},
		Keywords:       toMatches(r.Keywords),
		Risk:           toRisk(r.Risk),
		Density:        r.Density,
		Categories:     toCategories(r.Categories),
		Distribution:   toShares(r.Distribution),
		Highlights:     toHighlights(r.Highlights),
		RiskySummary:   r.RiskySummary,
		Summary:        r.Summary,
		MissingClauses: r.MissingClauses,
		Compliant:      r.Compliant,
		GeneratedAt:    r.GeneratedAt,
		DurationMs:     r.DurationMs,
	}
	if r.Translation != nil {
		out.Translation = &policy.Translation{
			Language:     r.Translation.Language,
			RiskySummary: r.Translation.RiskySummary,
			Summary:      r.Translation.Summary,
		}
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, policy.SectionError{Section: string(e.Section), Message: e.Message})
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Remote backend
// ─────────────────────────────────────────────────────────────────────────────

type remoteBackend struct {
	c *client.Client
}

// NewRemoteBackend sends every command to a PriviQ server. Local files are
// uploaded inline.
func NewRemoteBackend(c *client.Client) Backend {
	return &remoteBackend{c: c}
}

func (b *remoteBackend) request(req *Request) (*policy.Request, error) {
	out := &policy.Request{
		Text:      req.Input.Text,
		URL:       req.Input.URL,
		Object:    req.Input.Object,
		Language:  req.Language,
		Sentences: req.Sentences,
		Keywords:  req.Keywords,
	}
	if req.Input.File != "" {
		data, err := os.ReadFile(req.Input.File)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read file").WithDetail("path=" + req.Input.File)
		}
		out.FileContent = data
		out.FileName = filepath.Base(req.Input.File)
	}
	return out, nil
}

func (b *remoteBackend) Analyze(ctx context.Context, req *Request) (*policy.Report, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.Analyze(ctx, r)
}

func (b *remoteBackend) Classify(ctx context.Context, req *Request) (*policy.ClassifyResult, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.Classify(ctx, r)
}

func (b *remoteBackend) ScoreDensity(ctx context.Context, req *Request) (*policy.DensityResult, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.ScoreDensity(ctx, r)
}

func (b *remoteBackend) Categorize(ctx context.Context, req *Request) (*policy.CategorizeResult, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.Categorize(ctx, r)
}

func (b *remoteBackend) Highlight(ctx context.Context, req *Request) (*policy.HighlightResult, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.Highlight(ctx, r)
}

func (b *remoteBackend) SummarizeRisky(ctx context.Context, req *Request) (*policy.SummaryResult, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.SummarizeRisky(ctx, r)
}

func (b *remoteBackend) SummarizeExtractive(ctx context.Context, req *Request) (*policy.SummaryResult, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.SummarizeExtractive(ctx, r)
}

func (b *remoteBackend) CheckCompliance(ctx context.Context, req *Request) (*policy.ComplianceResult, error) {
	r, err := b.request(req)
	if err != nil {
		return nil, err
	}
	return b.c.CheckCompliance(ctx, r)
}

func (b *remoteBackend) Translate(ctx context.Context, text, language string) (*policy.TranslateResult, error) {
	return b.c.Translate(ctx, text, language)
}

func (b *remoteBackend) Speak(ctx context.Context, text, language string) ([]byte, error) {
	return b.c.Speak(ctx, text, language)
}

func (b *remoteBackend) Languages(ctx context.Context) ([]policy.Language, error) {
	return b.c.Languages(ctx)
}
