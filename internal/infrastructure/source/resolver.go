package source

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// Input is the set of places a caller may supply a policy from. Any subset
// may be filled.
type Input struct {
	URL         string `json:"url,omitempty"`
	Text        string `json:"text,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	FileContent []byte `json:"file_content,omitempty"`
	// FilePath is read from local disk and never crosses the wire.
	FilePath string `json:"-"`
	Object   string `json:"object,omitempty"`
}

// IsEmpty reports whether no input was supplied at all.
func (in Input) IsEmpty() bool {
	return strings.TrimSpace(in.URL) == "" &&
		strings.TrimSpace(in.Text) == "" &&
		len(in.FileContent) == 0 &&
		strings.TrimSpace(in.FilePath) == "" &&
		strings.TrimSpace(in.Object) == ""
}

// ErrEmptyDocument is returned when no input yields any text.
var ErrEmptyDocument = errors.New(errors.ErrCodeEmptyDocument, "Please upload a file, paste text, or enter a URL.")

// Resolver picks one document out of an Input.
type Resolver struct {
	fetcher *Fetcher
	objects ObjectReader
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewResolver builds a Resolver. fetcher and objects may be nil, which
// disables the corresponding inputs.
func NewResolver(fetcher *Fetcher, objects ObjectReader, metrics *prometheus.AppMetrics, log logging.Logger) *Resolver {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Resolver{fetcher: fetcher, objects: objects, metrics: metrics, logger: log}
}

// Sources lists the candidate sources of in, highest precedence first:
// URL, then pasted text, then file, then stored object.
func (r *Resolver) Sources(in Input) []Source {
	var out []Source
	if u := strings.TrimSpace(in.URL); u != "" {
		out = append(out, URLSource{URL: u, Fetcher: r.fetcher})
	}
	if strings.TrimSpace(in.Text) != "" {
		out = append(out, TextSource{Text: in.Text})
	}
	if len(in.FileContent) > 0 || strings.TrimSpace(in.FilePath) != "" {
		name := in.FileName
		if name == "" && len(in.FileContent) > 0 && in.FilePath == "" {
			name = "upload.txt"
		}
		out = append(out, FileSource{Name: name, Data: in.FileContent, Path: strings.TrimSpace(in.FilePath)})
	}
	if o := strings.TrimSpace(in.Object); o != "" {
		out = append(out, ObjectSource{Ref: o, Reader: r.objects})
	}
	return out
}

// Resolve returns the first candidate that loads to non-blank text. A
// candidate that fails or is blank is skipped with a warning when a
// lower-precedence input remains. The returned text is trimmed.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Document, error) {
	sources := r.Sources(in)
	if len(sources) == 0 {
		return Document{}, ErrEmptyDocument
	}

	var warnings []string
	var lastErr error
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return Document{}, errors.Wrap(err, errors.ErrCodeTimeout, "document resolution cancelled")
		}
		start := time.Now()
		doc, err := s.Load(ctx)
		if s.Kind() != KindURL {
			prometheus.RecordSourceFetch(r.metrics, string(s.Kind()), time.Since(start), err)
		}
		if err != nil {
			lastErr = err
			warnings = append(warnings, failureMessage(s.Kind(), err))
			r.logger.Warn("document source failed",
				logging.String("source", string(s.Kind())),
				logging.Err(err))
			continue
		}
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			continue
		}
		doc.Text = text
		doc.Warnings = warnings
		return doc, nil
	}
	if lastErr != nil {
		return Document{}, lastErr
	}
	return Document{}, ErrEmptyDocument
}

func failureMessage(kind Kind, err error) string {
	switch kind {
	case KindURL:
		return "Failed to extract text from URL: " + err.Error()
	case KindFile:
		return "Failed to read file: " + err.Error()
	case KindObject:
		return "Failed to load stored document: " + err.Error()
	}
	return err.Error()
}
