package lexicon

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/PriviQ/pkg/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// document is the on-disk YAML shape.  Absent sections inherit the built-in
// tables so a file may override only the clauses, for instance.
type document struct {
	Severity   *SeverityLexicon `yaml:"severity"`
	Categories []Category       `yaml:"categories"`
	Clauses    []Clause         `yaml:"clauses"`
}

// Parse decodes a YAML lexicon.  Unknown keys are rejected.
func Parse(data []byte) (Lexicon, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !stderrors.Is(err, io.EOF) {
		return Lexicon{}, errors.Wrap(err, errors.ErrCodeLexiconInvalid, "failed to decode lexicon yaml")
	}

	lex := Default()
	if doc.Severity != nil {
		lex.Severity = *doc.Severity
	}
	if doc.Categories != nil {
		lex.Categories = doc.Categories
	}
	if doc.Clauses != nil {
		lex.Clauses = doc.Clauses
	}

	if err := lex.Validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

// Load reads and parses the YAML lexicon at path.
func Load(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, errors.Wrap(err, errors.ErrCodeLexiconInvalid, "failed to read lexicon file").
			WithDetail("path=" + path)
	}
	lex, err := Parse(data)
	if err != nil {
		return Lexicon{}, errors.Wrap(err, errors.CodeUnknown, "invalid lexicon file").WithDetail("path=" + path)
	}
	return lex, nil
}

// LoadOrDefault loads path when it is non-empty and returns Default otherwise.
func LoadOrDefault(path string) (Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks that every table is populated, that category labels and
// clause ids are unique, and that no keyword is blank.
func (l Lexicon) Validate() error {
	if err := validatorInstance().Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(errors.ErrCodeLexiconInvalid, "lexicon validation failed").
				WithDetail(strings.Join(msgs, "; "))
		}
		return errors.Wrap(err, errors.ErrCodeLexiconInvalid, "lexicon validation failed")
	}

	for _, t := range Tiers {
		if err := checkBlank(t.String(), l.Severity.Keywords(t)); err != nil {
			return err
		}
	}
	for _, c := range l.Categories {
		if err := checkBlank("category "+c.Label, c.Keywords); err != nil {
			return err
		}
	}
	for _, c := range l.Clauses {
		if strings.TrimSpace(c.Trigger) == "" {
			return errors.New(errors.ErrCodeLexiconInvalid, "blank clause trigger").WithDetail("clause=" + c.ID)
		}
	}
	return nil
}

func checkBlank(scope string, keywords []string) error {
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return errors.New(errors.ErrCodeLexiconInvalid, "blank keyword").
				WithDetail(fmt.Sprintf("%s[%d]", scope, i))
		}
	}
	return nil
}
