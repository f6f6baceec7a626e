package analysis

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/internal/infrastructure/speech"
	"github.com/turtacn/PriviQ/internal/intelligence/lexicon"
	"github.com/turtacn/PriviQ/internal/intelligence/nlp"
	"github.com/turtacn/PriviQ/internal/intelligence/policyrisk"
	"github.com/turtacn/PriviQ/pkg/errors"
)

const samplePolicy = "We track your location and share data with third-party advertising partners. We encrypt your data."

type mockTranslator struct{ mock.Mock }

func (m *mockTranslator) Translate(ctx context.Context, text string, lang speech.Language) (string, error) {
	args := m.Called(ctx, text, lang.Code)
	return args.String(0), args.Error(1)
}

type mockSynthesizer struct{ mock.Mock }

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string, lang speech.Language) ([]byte, error) {
	args := m.Called(ctx, text, lang.Code)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

type panicSegmenter struct{}

func (panicSegmenter) Segment(string) []nlp.Sentence { panic("segmenter exploded") }

type cancellingResolver struct {
	cancel context.CancelFunc
}

func (r cancellingResolver) Resolve(ctx context.Context, in source.Input) (source.Document, error) {
	r.cancel()
	return source.Document{Text: in.Text, Kind: source.KindText}, nil
}

func newEngine(t *testing.T, seg nlp.Segmenter) *policyrisk.Engine {
	t.Helper()
	e, err := policyrisk.New(lexicon.Default(), seg)
	require.NoError(t, err)
	return e
}

func newTestService(t *testing.T, deps Deps) Service {
	t.Helper()
	if deps.Engine == nil {
		deps.Engine = newEngine(t, nil)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	svc, err := NewService(deps)
	require.NoError(t, err)
	return svc
}

func textDoc(text string) source.Document {
	return source.Document{Text: text, Kind: source.KindText}
}

func TestNewService_RequiresEngine(t *testing.T) {
	_, err := NewService(Deps{})
	assert.True(t, errors.IsValidation(err))
}

func TestAnalyze_FullReport(t *testing.T) {
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "t"}, logging.NewNopLogger())
	require.NoError(t, err)
	svc := newTestService(t, Deps{Metrics: prometheus.NewAppMetrics(c)})

	r, err := svc.Analyze(context.Background(), &AnalyzeRequest{Input: source.Input{Text: samplePolicy}})
	require.NoError(t, err)

	assert.Empty(t, r.Errors)
	assert.Equal(t, []string{"share", "third-party", "advertising"}, r.Keywords.High)
	assert.Equal(t, []string{"track"}, r.Keywords.Moderate)
	assert.Equal(t, []string{"encrypt"}, r.Keywords.Low)
	assert.Equal(t, 12, r.Risk.Score)
	assert.Equal(t, policyrisk.LevelModerate, r.Risk.Level)
	assert.InDelta(t, 12.0/42.0, r.Density, 1e-9)

	require.Len(t, r.Categories, 3)
	require.Len(t, r.Distribution, 3)
	assert.InDelta(t, 0.5, r.Distribution[0].Share, 1e-9)

	require.Len(t, r.Highlights, 2)
	assert.Equal(t, policyrisk.BucketHigh, r.Highlights[0].Bucket)
	assert.Equal(t, 2, r.Document.Sentences)
	assert.Equal(t, source.KindText, r.Document.Kind)

	assert.NotEqual(t, policyrisk.NoRiskyContent, r.RiskySummary)
	assert.NotEmpty(t, r.Summary)
	assert.False(t, r.Compliant)
	assert.NotEmpty(t, r.MissingClauses)
	assert.Nil(t, r.Translation)
	assert.False(t, r.GeneratedAt.IsZero())
}

func TestAnalyze_EmptyInput(t *testing.T) {
	svc := newTestService(t, Deps{})
	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{Input: source.Input{Text: "   "}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyDocument))

	_, err = svc.Analyze(context.Background(), nil)
	assert.True(t, errors.IsValidation(err))
}

func TestAnalyze_UnsupportedLanguage(t *testing.T) {
	svc := newTestService(t, Deps{})
	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{Input: source.Input{Text: samplePolicy}, Language: "pt"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeLanguageUnsupported))
}

func TestAnalyze_PanickingSectionsAreIsolated(t *testing.T) {
	svc := newTestService(t, Deps{Engine: newEngine(t, panicSegmenter{})})

	r, err := svc.Analyze(context.Background(), &AnalyzeRequest{Input: source.Input{Text: samplePolicy}})
	require.NoError(t, err)

	assert.True(t, r.Failed(SectionHighlights))
	assert.True(t, r.Failed(SectionRiskySummary))
	assert.True(t, r.Failed(SectionSummary))
	assert.False(t, r.Failed(SectionKeywords))
	assert.False(t, r.Failed(SectionCompliance))
	assert.Equal(t, 12, r.Risk.Score)

	require.Len(t, r.Errors, 3)
	assert.Equal(t, SectionHighlights, r.Errors[0].Section)
	assert.Equal(t, SectionRiskySummary, r.Errors[1].Section)
	assert.Equal(t, SectionSummary, r.Errors[2].Section)
	assert.True(t, strings.HasPrefix(r.Errors[0].Message, "panic: "))
}

func TestAnalyze_CancelledContextFailsEverySection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newTestService(t, Deps{Resolver: cancellingResolver{cancel: cancel}})

	r, err := svc.Analyze(ctx, &AnalyzeRequest{Input: source.Input{Text: samplePolicy}})
	require.NoError(t, err)
	assert.Len(t, r.Errors, len(AllSections))
}

func TestAnalyze_Translation(t *testing.T) {
	tr := &mockTranslator{}
	tr.On("Translate", mock.Anything, mock.Anything, "fr").Return("traduit", nil)
	svc := newTestService(t, Deps{Translator: tr})

	r, err := svc.Analyze(context.Background(), &AnalyzeRequest{Input: source.Input{Text: samplePolicy}, Language: "French"})
	require.NoError(t, err)
	require.NotNil(t, r.Translation)
	assert.Equal(t, "fr", r.Translation.Language)
	assert.Equal(t, "traduit", r.Translation.RiskySummary)
	assert.Equal(t, "traduit", r.Translation.Summary)
	assert.Empty(t, r.Errors)
	tr.AssertNumberOfCalls(t, "Translate", 2)
}

func TestAnalyze_TranslationFailureIsReported(t *testing.T) {
	tr := &mockTranslator{}
	tr.On("Translate", mock.Anything, mock.Anything, "de").Return("", stderrors.New("quota exceeded"))
	svc := newTestService(t, Deps{Translator: tr})

	r, err := svc.Analyze(context.Background(), &AnalyzeRequest{Input: source.Input{Text: samplePolicy}, Language: "de"})
	require.NoError(t, err)
	require.NotNil(t, r.Translation)
	assert.Equal(t, "Translation failed: quota exceeded", r.Translation.Summary)
	assert.True(t, r.Failed(SectionTranslation))
	assert.NotEmpty(t, r.Summary)
}

func TestAnalyze_EnglishSkipsTranslation(t *testing.T) {
	tr := &mockTranslator{}
	svc := newTestService(t, Deps{Translator: tr})

	r, err := svc.Analyze(context.Background(), &AnalyzeRequest{Input: source.Input{Text: samplePolicy}, Language: "en"})
	require.NoError(t, err)
	assert.Nil(t, r.Translation)
	tr.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
}

func TestSingleOperations(t *testing.T) {
	svc := newTestService(t, Deps{})
	ctx := context.Background()
	doc := textDoc(samplePolicy)

	cls, err := svc.Classify(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 12, cls.Risk.Score)

	d, err := svc.ScoreDensity(ctx, doc)
	require.NoError(t, err)
	assert.InDelta(t, 12.0/42.0, d, 1e-9)

	cat, err := svc.Categorize(ctx, doc)
	require.NoError(t, err)
	assert.Len(t, cat.Categories, 3)

	hl, err := svc.Highlight(ctx, doc)
	require.NoError(t, err)
	assert.Len(t, hl, 2)

	risky, err := svc.SummarizeRisky(ctx, textDoc("The weather is nice. We sell data."), nil)
	require.NoError(t, err)
	assert.Equal(t, "We sell data.", risky)

	risky, err = svc.SummarizeRisky(ctx, textDoc("The weather is nice."), nil)
	require.NoError(t, err)
	assert.Equal(t, policyrisk.NoRiskyContent, risky)

	sum, err := svc.SummarizeExtractive(ctx, textDoc("Cookies track visitors. Cookies track cookies daily. The end."), 1)
	require.NoError(t, err)
	assert.Equal(t, "Cookies track cookies daily.", sum)

	comp, err := svc.CheckCompliance(ctx, doc)
	require.NoError(t, err)
	assert.False(t, comp.Compliant)
}

func TestSingleOperations_RejectEmptyAndCancelled(t *testing.T) {
	svc := newTestService(t, Deps{})

	_, err := svc.Classify(context.Background(), textDoc(" "))
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyDocument))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.CheckCompliance(ctx, textDoc(samplePolicy))
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestTranslate(t *testing.T) {
	tr := &mockTranslator{}
	tr.On("Translate", mock.Anything, "hello", "es").Return("hola", nil).Once()
	tr.On("Translate", mock.Anything, "broken", "es").Return("", stderrors.New("down")).Once()
	svc := newTestService(t, Deps{Translator: tr})
	ctx := context.Background()

	out, err := svc.Translate(ctx, "hello", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", out.Summary)

	out, err = svc.Translate(ctx, "broken", "es")
	require.NoError(t, err)
	assert.Equal(t, "Translation failed: down", out.Summary)

	out, err = svc.Translate(ctx, "same", "English")
	require.NoError(t, err)
	assert.Equal(t, "same", out.Summary)

	_, err = svc.Translate(ctx, "x", "pt")
	assert.True(t, errors.IsCode(err, errors.ErrCodeLanguageUnsupported))
	tr.AssertExpectations(t)
}

func TestTranslate_Disabled(t *testing.T) {
	svc := newTestService(t, Deps{})
	_, err := svc.Translate(context.Background(), "hello", "fr")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestSpeak(t *testing.T) {
	syn := &mockSynthesizer{}
	syn.On("Synthesize", mock.Anything, "ok", "en").Return([]byte("mp3"), nil)
	syn.On("Synthesize", mock.Anything, "bad", "en").Return(nil, stderrors.New("tts down"))
	svc := newTestService(t, Deps{Synthesizer: syn})
	ctx := context.Background()

	audio, err := svc.Speak(ctx, "ok", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), audio)

	_, err = svc.Speak(ctx, "bad", "en")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSpeechFailed))

	_, err = svc.Speak(ctx, " ", "en")
	assert.True(t, errors.IsValidation(err))
}

func TestSpeak_Disabled(t *testing.T) {
	svc := newTestService(t, Deps{})
	_, err := svc.Speak(context.Background(), "hello", "en")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestLanguages(t *testing.T) {
	svc := newTestService(t, Deps{})
	langs := svc.Languages()
	require.Len(t, langs, 8)
	langs[0].Name = "mutated"
	assert.Equal(t, "English", svc.Languages()[0].Name)
}
