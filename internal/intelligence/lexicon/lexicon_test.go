package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PriviQ/pkg/errors"
)

func TestTier_Weight(t *testing.T) {
	assert.Equal(t, 3, TierHigh.Weight())
	assert.Equal(t, 2, TierModerate.Weight())
	assert.Equal(t, 1, TierLow.Weight())
	assert.Equal(t, 0, Tier(9).Weight())
	assert.Equal(t, "moderate", TierModerate.String())
}

func TestDefault_Shape(t *testing.T) {
	lex := Default()
	require.NoError(t, lex.Validate())

	for _, tier := range Tiers {
		assert.Len(t, lex.Severity.Keywords(tier), 7, tier.String())
	}
	assert.Equal(t, []string{
		"Tracking", "Third Party Sharing", "Data Retention", "User Data", "Advertising", "Cookies",
	}, lex.CategoryLabels())
	require.Len(t, lex.Clauses, 8)
	assert.Equal(t, "grievance", lex.Clauses[0].ID)
	assert.Equal(t, "No data retention period mentioned.", lex.Clauses[2].Message)
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Severity.High[0] = "mutated"
	a.Categories[0].Label = "mutated"

	b := Default()
	assert.Equal(t, "share", b.Severity.High[0])
	assert.Equal(t, "Tracking", b.Categories[0].Label)
}

func TestClone_IsDeep(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.Categories[0].Keywords[0] = "changed"
	b.Clauses[0].Message = "changed"

	assert.Equal(t, "track", a.Categories[0].Keywords[0])
	assert.Equal(t, "No grievance redressal clause found.", a.Clauses[0].Message)
}

func TestNormalized_LowercasesKeywordsOnly(t *testing.T) {
	lex := Default()
	lex.Severity.High = []string{" Share "}
	lex.Categories[0].Keywords = []string{"GPS"}
	lex.Clauses[0].Trigger = "Grievance"

	n := lex.Normalized()
	assert.Equal(t, []string{"share"}, n.Severity.High)
	assert.Equal(t, []string{"gps"}, n.Categories[0].Keywords)
	assert.Equal(t, "grievance", n.Clauses[0].Trigger)
	assert.Equal(t, "Tracking", n.Categories[0].Label)
	assert.Equal(t, " Share ", lex.Severity.High[0], "receiver must not change")
}

func TestFlatten_TierOrderWithoutDuplicates(t *testing.T) {
	s := SeverityLexicon{
		High:     []string{"share", "sell"},
		Moderate: []string{"store", "share"},
		Low:      []string{"consent"},
	}
	assert.Equal(t, []string{"share", "sell", "store", "consent"}, s.Flatten())
	assert.Len(t, Default().Severity.Flatten(), 21)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Lexicon){
		"empty tier":         func(l *Lexicon) { l.Severity.Low = nil },
		"blank keyword":      func(l *Lexicon) { l.Severity.High = []string{"share", "  "} },
		"empty keyword":      func(l *Lexicon) { l.Categories[1].Keywords = []string{""} },
		"no categories":      func(l *Lexicon) { l.Categories = nil },
		"duplicate category": func(l *Lexicon) { l.Categories[1].Label = l.Categories[0].Label },
		"duplicate clause":   func(l *Lexicon) { l.Clauses[1].ID = l.Clauses[0].ID },
		"missing message":    func(l *Lexicon) { l.Clauses[3].Message = "" },
		"blank trigger":      func(l *Lexicon) { l.Clauses[0].Trigger = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			lex := Default()
			mutate(&lex)
			err := lex.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeLexiconInvalid))
		})
	}
}

func TestParse_PartialDocumentInheritsDefaults(t *testing.T) {
	data := []byte(`
clauses:
  - id: grievance
    trigger: grievance officer
    message: No grievance officer named.
  - id: children
    trigger: children
    message: No clause on children's data.
`)
	lex, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, lex.Clauses, 2)
	assert.Equal(t, "grievance officer", lex.Clauses[0].Trigger)
	assert.Equal(t, Default().Severity, lex.Severity)
	assert.Len(t, lex.Categories, 6)
}

func TestParse_FullDocument(t *testing.T) {
	data := []byte(`
severity:
  high: [sell]
  moderate: [collect]
  low: [encrypt]
categories:
  - label: Biometrics
    keywords: [fingerprint, face]
clauses:
  - id: officer
    trigger: officer
    message: No officer.
`)
	lex, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"sell"}, lex.Severity.High)
	assert.Equal(t, []string{"Biometrics"}, lex.CategoryLabels())
	assert.Equal(t, "officer", lex.Clauses[0].ID)
}

func TestParse_EmptyDocumentIsDefault(t *testing.T) {
	lex, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), lex)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("severity: ["))
	assert.True(t, errors.IsCode(err, errors.ErrCodeLexiconInvalid))

	_, err = Parse([]byte("unknown_section: 1\n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeLexiconInvalid))

	_, err = Parse([]byte("severity:\n  high: [sell]\n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeLexiconInvalid), "moderate and low tiers missing")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("severity:\n  high: [sell]\n  moderate: [store]\n  low: [secure]\n"), 0o644))

	lex, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"store"}, lex.Severity.Moderate)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLexiconInvalid))

	def, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), def)
}
