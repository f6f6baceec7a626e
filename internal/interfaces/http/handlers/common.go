// Package handlers implements the REST endpoints of the API server.
package handlers

import (
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/internal/interfaces/http/middleware"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// PolicyRequest is the body accepted by every document endpoint. At most
// one document input is used; see source.Resolver for precedence.
// file_content is base64 in JSON.
type PolicyRequest struct {
	Text        string   `json:"text"`
	URL         string   `json:"url"`
	FileContent []byte   `json:"file_content"`
	FileName    string   `json:"file_name"`
	Object      string   `json:"object"`
	Language    string   `json:"language"`
	Sentences   int      `json:"sentences" binding:"gte=0,lte=100"`
	Keywords    []string `json:"keywords"`
}

// Input maps the request onto source inputs. Server-side file paths are
// never taken from a request.
func (r *PolicyRequest) Input() source.Input {
	return source.Input{
		URL:         strings.TrimSpace(r.URL),
		Text:        r.Text,
		FileName:    r.FileName,
		FileContent: r.FileContent,
		Object:      strings.TrimSpace(r.Object),
	}
}

// TextRequest is the body of /translate and /speech.
type TextRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(c *gin.Context, status int, v interface{}) {
	c.JSON(status, v)
}

// writeError maps err onto its HTTP status and logs server-side failures.
func writeError(c *gin.Context, log logging.Logger, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown || code == errors.CodeOK {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	body := ErrorBody{
		Code:      code.String(),
		Message:   errors.DefaultMessageForCode(code),
		RequestID: middleware.GetRequestID(c),
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		body.Message = appErr.Message
		if status < http.StatusInternalServerError {
			body.Detail = appErr.Detail
		}
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), log).Error("request failed",
			logging.String("path", c.FullPath()),
			logging.String("code", code.String()),
			logging.Err(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorEnvelope{Error: body})
}

// bindJSON decodes the body into v, translating decode failures into
// validation errors.
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.New(errors.ErrCodeValidation, "request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeValidation, "request body is required")
		default:
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid request body").WithDetail(err.Error())
		}
	}
	return nil
}
