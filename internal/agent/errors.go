package agent

import "strings"

// ErrorCode classifies a failed turn.
type ErrorCode string

const (
	CodeAuthError       ErrorCode = "AUTH_ERROR"
	CodeConnectionError ErrorCode = "CONNECTION_ERROR"
	CodeRateLimit       ErrorCode = "RATE_LIMIT"
	CodeContextOverflow ErrorCode = "CONTEXT_OVERFLOW"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	CodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"
	CodeUnknownError    ErrorCode = "UNKNOWN_ERROR"
)

// classifyPatterns maps known backend and transport error phrases to
// codes. Matching is first-hit substring search over the lowercased
// message: a best-effort heuristic, not a contract with the backend.
var classifyPatterns = []struct {
	substr string
	code   ErrorCode
}{
	{"unauthorized", CodeAuthError},
	{"invalid token", CodeAuthError},
	{"token expired", CodeAuthError},
	{"not authenticated", CodeAuthError},
	{"401", CodeAuthError},
	{"rate limit", CodeRateLimit},
	{"too many requests", CodeRateLimit},
	{"429", CodeRateLimit},
	{"context length", CodeContextOverflow},
	{"context window", CodeContextOverflow},
	{"maximum context", CodeContextOverflow},
	{"too long", CodeContextOverflow},
	{"connection refused", CodeConnectionError},
	{"connection reset", CodeConnectionError},
	{"no such host", CodeConnectionError},
	{"network is unreachable", CodeConnectionError},
	{"timeout", CodeConnectionError},
	{"eof", CodeConnectionError},
	{"session not found", CodeSessionNotFound},
}

// Classify maps raw error text onto the taxonomy. Unmatched messages
// fall through to CodeUnknownError; callers keep the original text
// verbatim for debugging.
func Classify(msg string) ErrorCode {
	lower := strings.ToLower(msg)
	for _, p := range classifyPatterns {
		if strings.Contains(lower, p.substr) {
			return p.code
		}
	}
	return CodeUnknownError
}

// ExitStatus maps an error code to the process exit status used by the
// CLI for unrecoverable startup failures. Mapped once, centrally.
func ExitStatus(code ErrorCode) int {
	switch code {
	case CodeAuthError:
		return 2
	case CodeConnectionError:
		return 3
	case CodeRateLimit:
		return 4
	case CodeContextOverflow:
		return 5
	case CodeValidationError:
		return 6
	case CodeSessionNotFound:
		return 7
	case CodeIndexOutOfRange:
		return 8
	default:
		return 1
	}
}
