package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"empty document", errors.ErrCodeEmptyDocument, "policy text is empty"},
		{"invalid param", errors.CodeInvalidParam, "sentences must be positive"},
		{"rate limit", errors.CodeRateLimit, "too many requests"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("dial tcp: connection refused")
	wrapped := errors.Wrap(root, errors.ErrCodeSourceFetchFailed, "fetch policy page")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeSourceFetchFailed, wrapped.Code)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeLexiconInvalid, "tier has no keywords")
	outer := errors.Wrap(inner, errors.CodeUnknown, "loading lexicon")

	assert.Equal(t, errors.ErrCodeLexiconInvalid, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeLexiconInvalid, "bad lexicon")
	outer := errors.Wrap(inner, errors.CodeInternal, "engine init")

	assert.Equal(t, errors.CodeInternal, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Error() / builders
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeEmptyDocument, "no policy text")
	assert.Equal(t, "[POL_001] no policy text", ae.Error())

	detailed := ae.WithDetail("source=file")
	assert.Equal(t, "[POL_001] no policy text: source=file", detailed.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestWithCause_AttachesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("timeout")
	ae := errors.Unavailable("kafka unreachable").WithCause(cause)

	assert.Equal(t, cause, ae.Cause)
	assert.Equal(t, errors.CodeUnavailable, ae.Code)
}

func TestBuilders_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()

	inner := errors.NotFound("object missing")
	outer := fmt.Errorf("resolve: %w", errors.Wrap(inner, errors.ErrCodeSourceFetchFailed, "minio"))

	assert.True(t, errors.IsCode(outer, errors.ErrCodeSourceFetchFailed))
	assert.True(t, errors.IsCode(outer, errors.CodeNotFound))
	assert.True(t, errors.IsNotFound(outer))
	assert.False(t, errors.IsCode(outer, errors.CodeInternal))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
}

func TestIsValidation(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsValidation(errors.InvalidParam("bad")))
	assert.True(t, errors.IsValidation(errors.New(errors.ErrCodeEmptyDocument, "empty")))
	assert.True(t, errors.IsValidation(errors.New(errors.ErrCodeLanguageUnsupported, "xx")))
	assert.False(t, errors.IsValidation(errors.Internal("boom")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeSpeechFailed,
		errors.GetCode(fmt.Errorf("wrapped: %w", errors.New(errors.ErrCodeSpeechFailed, "tts"))))
}
