package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
)

// Policy analysis error codes
const (
	ErrCodeEmptyDocument       ErrorCode = "POL_001"
	ErrCodeSourceFetchFailed   ErrorCode = "POL_002"
	ErrCodeSourceUnsupported   ErrorCode = "POL_003"
	ErrCodeLexiconInvalid      ErrorCode = "POL_004"
	ErrCodeAnalysisFailed      ErrorCode = "POL_005"
	ErrCodeTranslationFailed   ErrorCode = "POL_006"
	ErrCodeSpeechFailed        ErrorCode = "POL_007"
	ErrCodeJobEnqueueFailed    ErrorCode = "POL_008"
	ErrCodeLanguageUnsupported ErrorCode = "POL_009"
	ErrCodeSourceForbidden     ErrorCode = "POL_010"
)

// Short aliases used at call sites.
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeUnavailable  = ErrCodeServiceUnavailable
	CodeCacheError   = ErrCodeCacheError
	CodeQueueError   = ErrCodeJobEnqueueFailed
	CodeStorageError = ErrCodeSourceFetchFailed
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeEmptyDocument:       http.StatusBadRequest,
	ErrCodeSourceFetchFailed:   http.StatusBadGateway,
	ErrCodeSourceUnsupported:   http.StatusUnsupportedMediaType,
	ErrCodeLexiconInvalid:      http.StatusUnprocessableEntity,
	ErrCodeAnalysisFailed:      http.StatusInternalServerError,
	ErrCodeTranslationFailed:   http.StatusBadGateway,
	ErrCodeSpeechFailed:        http.StatusBadGateway,
	ErrCodeJobEnqueueFailed:    http.StatusServiceUnavailable,
	ErrCodeLanguageUnsupported: http.StatusBadRequest,
	ErrCodeSourceForbidden:     http.StatusForbidden,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",

	ErrCodeEmptyDocument:       "no policy text to analyze",
	ErrCodeSourceFetchFailed:   "failed to fetch policy document",
	ErrCodeSourceUnsupported:   "unsupported policy source",
	ErrCodeLexiconInvalid:      "invalid lexicon definition",
	ErrCodeAnalysisFailed:      "policy analysis failed",
	ErrCodeTranslationFailed:   "translation failed",
	ErrCodeSpeechFailed:        "speech synthesis failed",
	ErrCodeJobEnqueueFailed:    "failed to enqueue analysis job",
	ErrCodeLanguageUnsupported: "unsupported language",
	ErrCodeSourceForbidden:     "policy source host not allowed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
