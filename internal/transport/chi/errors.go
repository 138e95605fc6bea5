package chi

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeNotFound           ErrorCode = "not_found"
	CodeMethodNotAllowed   ErrorCode = "method_not_allowed"
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
