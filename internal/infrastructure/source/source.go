// Package source loads privacy-policy text from the places a user can point
// at: pasted text, an uploaded .txt file, a web page or a stored object.
package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/PriviQ/pkg/errors"
)

// Kind names where a document came from.
type Kind string

const (
	KindText   Kind = "text"
	KindFile   Kind = "file"
	KindURL    Kind = "url"
	KindObject Kind = "object"
)

// Document is loaded policy text plus its provenance.
type Document struct {
	Text   string `json:"text"`
	Kind   Kind   `json:"kind"`
	Origin string `json:"origin,omitempty"`
	// Warnings carries user-visible messages about inputs that were skipped.
	Warnings []string `json:"warnings,omitempty"`
}

// Source yields a single document.
type Source interface {
	Kind() Kind
	Load(ctx context.Context) (Document, error)
}

// TextSource wraps text supplied inline.
type TextSource struct {
	Text string
}

func (s TextSource) Kind() Kind { return KindText }

func (s TextSource) Load(ctx context.Context) (Document, error) {
	return Document{Text: s.Text, Kind: KindText}, nil
}

// FileSource reads an uploaded or local .txt file. Data wins over Path.
type FileSource struct {
	Name string
	Data []byte
	Path string
}

func (s FileSource) Kind() Kind { return KindFile }

func (s FileSource) Load(ctx context.Context) (Document, error) {
	name := s.Name
	if name == "" {
		name = filepath.Base(s.Path)
	}
	if !strings.EqualFold(filepath.Ext(name), ".txt") {
		return Document{}, errors.New(errors.ErrCodeSourceUnsupported, "only .txt files are supported").
			WithDetail("file=" + name)
	}
	data := s.Data
	if data == nil {
		if s.Path == "" {
			return Document{}, errors.New(errors.ErrCodeValidation, "file has neither content nor path")
		}
		var err error
		if data, err = os.ReadFile(s.Path); err != nil {
			return Document{}, errors.Wrap(err, errors.ErrCodeSourceFetchFailed, "failed to read file").
				WithDetail("file=" + s.Path)
		}
	}
	if !utf8.Valid(data) {
		return Document{}, errors.New(errors.ErrCodeSourceUnsupported, "file is not valid UTF-8").
			WithDetail("file=" + name)
	}
	return Document{
		Text:   strings.TrimPrefix(string(data), "\ufeff"),
		Kind:   KindFile,
		Origin: name,
	}, nil
}

// ObjectReader fetches stored text by "bucket/object" reference.
type ObjectReader interface {
	GetText(ctx context.Context, ref string) (string, error)
}

// ObjectSource loads a document kept in object storage.
type ObjectSource struct {
	Ref    string
	Reader ObjectReader
}

func (s ObjectSource) Kind() Kind { return KindObject }

func (s ObjectSource) Load(ctx context.Context) (Document, error) {
	if s.Reader == nil {
		return Document{}, errors.New(errors.ErrCodeFeatureDisabled, "object storage is not configured")
	}
	text, err := s.Reader.GetText(ctx, s.Ref)
	if err != nil {
		return Document{}, fetchError(err, "failed to load object", s.Ref)
	}
	return Document{Text: text, Kind: KindObject, Origin: s.Ref}, nil
}

// fetchError keeps the code of an *AppError cause and otherwise reports a
// fetch failure.
func fetchError(err error, msg, origin string) error {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeSourceFetchFailed
	}
	return errors.Wrap(err, code, msg).WithDetail("origin=" + origin)
}
