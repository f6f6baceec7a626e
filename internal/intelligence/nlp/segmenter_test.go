package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(sents []Sentence) []string {
	out := make([]string, len(sents))
	for i, s := range sents {
		out[i] = s.Text
	}
	return out
}

func newSegmenter(t *testing.T, opts ...Option) *PunktSegmenter {
	t.Helper()
	seg, err := NewPunktSegmenter(opts...)
	require.NoError(t, err)
	return seg
}

func TestSegment_BasicPunctuation(t *testing.T) {
	seg := newSegmenter(t)
	got := seg.Segment("We collect data. We share it!  Do we sell it? No.")

	assert.Equal(t, []string{"We collect data.", "We share it!", "Do we sell it?", "No."}, texts(got))
	for i, s := range got {
		assert.Equal(t, i, s.Index)
	}
}

func TestSegment_EmptyAndWhitespace(t *testing.T) {
	seg := newSegmenter(t)
	assert.Empty(t, seg.Segment(""))
	assert.Empty(t, seg.Segment("   \n\t  "))
	assert.Empty(t, seg.Segment("... !!"))
}

func TestSegment_Abbreviations(t *testing.T) {
	seg := newSegmenter(t)
	got := seg.Segment("We share data with vendors, e.g. analytics firms. See Art. 6 GDPR. Contact us at Acme Inc. today.")

	assert.Equal(t, []string{
		"We share data with vendors, e.g. analytics firms.",
		"See Art. 6 GDPR.",
		"Contact us at Acme Inc. today.",
	}, texts(got))
}

func TestSegment_WrappedLinesJoin(t *testing.T) {
	seg := newSegmenter(t)
	got := seg.Segment("We may share your personal information with\nthird-party advertising partners for marketing purposes.\nWe encrypt data at rest.")

	assert.Equal(t, []string{
		"We may share your personal information with third-party advertising partners for marketing purposes.",
		"We encrypt data at rest.",
	}, texts(got))
}

func TestSegment_BlankLinesAndBulletsAreBoundaries(t *testing.T) {
	seg := newSegmenter(t)
	got := seg.Segment("Data Retention\r\n\r\nWe retain logs\nfor 30 days.\n- Email address\n- Phone number")
	assert.Equal(t, []string{"Data Retention", "We retain logs for 30 days.", "- Email address", "- Phone number"}, texts(got))
}

func TestSegment_CustomAbbreviation(t *testing.T) {
	assert.Len(t, newSegmenter(t).Segment("See Appx. for details."), 2)
	assert.Len(t, newSegmenter(t, WithAbbreviations("Appx.")).Segment("See Appx. for details."), 1)
}

func TestSegment_Deterministic(t *testing.T) {
	seg := newSegmenter(t)
	text := "We track you. We sell data to partners. Privacy matters."
	assert.Equal(t, seg.Segment(text), seg.Segment(text))
}

func TestSegment_LowerForm(t *testing.T) {
	got := newSegmenter(t).Segment("We SHARE Data.")
	require.Len(t, got, 1)
	assert.Equal(t, "we share data.", got[0].Lower)
}

func TestTokenize_Flags(t *testing.T) {
	seg := newSegmenter(t)
	toks := seg.Tokenize("We share user's data with third-party vendors in 2024.")

	var words []string
	for _, tk := range toks {
		words = append(words, tk.Text)
	}
	assert.Equal(t, []string{"We", "share", "user", "'s", "data", "with", "third", "-", "party", "vendors", "in", "2024", "."}, words)

	byText := map[string]Token{}
	for _, tk := range toks {
		byText[tk.Text] = tk
	}
	assert.True(t, byText["We"].IsStop)
	assert.True(t, byText["We"].IsAlpha)
	assert.Equal(t, "we", byText["We"].Lower)
	assert.False(t, byText["share"].IsStop)
	assert.True(t, byText["'s"].IsStop)
	assert.False(t, byText["'s"].IsAlpha)
	assert.False(t, byText["2024"].IsAlpha)
	assert.True(t, byText["."].IsPunct)
	assert.True(t, byText["-"].IsPunct)
}

func TestWithStopWords_Replaces(t *testing.T) {
	seg := newSegmenter(t, WithStopWords("data"))
	toks := seg.Tokenize("We store data")
	assert.False(t, toks[0].IsStop)
	assert.True(t, toks[2].IsStop)
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("The"))
	assert.True(t, IsStopWord("whereas"))
	assert.False(t, IsStopWord("privacy"))
}

var _ Segmenter = (*PunktSegmenter)(nil)
