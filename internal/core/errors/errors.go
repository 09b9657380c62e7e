package errors

const (
	HttpInternalError     = "internal_error"
	HttpInvalidJsonError  = "invalid_json"
	HttpNoIdentityError   = "no_identity"
	HttpNotFoundError     = "not_found"
	HttpDuplicateError    = "duplicate"
	HttpRateLimitedError  = "rate_limited"
	HttpInvalidQueryError = "invalid_query"
)

// ErrorResponse is the error response body for all feed API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
