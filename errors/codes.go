package errors

// ErrorCode is the machine readable code carried in every error response.
type ErrorCode string

const (
	ErrorCode_HTTP_OK          ErrorCode = "OK"
	ErrorCode_INTERNAL         ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_INVALID_PAYLOAD  ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_NOT_FOUND        ErrorCode = "NOT_FOUND"
	ErrorCode_CONFLICT         ErrorCode = "CONFLICT"

	// Consensus workflow
	ErrorCode_SESSION_NOT_FOUND       ErrorCode = "SESSION_NOT_FOUND"
	ErrorCode_STAKEHOLDER_NOT_FOUND   ErrorCode = "STAKEHOLDER_NOT_FOUND"
	ErrorCode_SYNTHESIS_NOT_FOUND     ErrorCode = "SYNTHESIS_NOT_FOUND"
	ErrorCode_SYNTHESIS_IN_PROGRESS   ErrorCode = "SYNTHESIS_IN_PROGRESS"
	ErrorCode_SYNTHESIS_FAILED        ErrorCode = "SYNTHESIS_FAILED"
	ErrorCode_NO_SUBMISSIONS          ErrorCode = "NO_SUBMISSIONS"
	ErrorCode_NO_CRITIQUES            ErrorCode = "NO_CRITIQUES"
	ErrorCode_ATTACHMENTS_UNAVAILABLE ErrorCode = "ATTACHMENTS_UNAVAILABLE"

	// Model provider
	ErrorCode_AI_COMPLETION_FAILED    ErrorCode = "AI_COMPLETION_FAILED"
	ErrorCode_AI_STREAM_FAILED        ErrorCode = "AI_STREAM_FAILED"
	ErrorCode_AI_UPSTREAM_TIMEOUT     ErrorCode = "AI_UPSTREAM_TIMEOUT"
	ErrorCode_AI_TRANSCRIPTION_FAILED ErrorCode = "AI_TRANSCRIPTION_FAILED"

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = "INTEGRATION_STORAGE_FAILED"
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = "INTEGRATION_CACHE_FAILED"

	// Database
	ErrorCode_DB_QUERY_FAILED       ErrorCode = "DB_QUERY_FAILED"
	ErrorCode_DB_TRANSACTION_FAILED ErrorCode = "DB_TRANSACTION_FAILED"
)

func (c ErrorCode) String() string {
	return string(c)
}
