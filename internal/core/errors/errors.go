package errors

const (
	HttpInternalError      = "internal_error"
	HttpInvalidJsonError   = "invalid_json"
	HttpEnvelopeError      = "envelope_invalid"
	HttpUnknownKindError   = "unknown_fact_kind"
	HttpDuplicateFactError = "duplicate_fact"
	HttpNotFoundError      = "not_found"
)

// ErrorResponse is the error response body for ingestion and projection errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
