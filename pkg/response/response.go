package response

import "aklny/internal/apperror"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps a domain error to its HTTP status and envelope. Unclassified
// errors become a generic 500 and storage details never reach the client.
func FromError(err error) (int, Response) {
	appErr := apperror.From(err)
	res := Error(appErr.Status, appErr.Message)
	res.Kind = string(appErr.Kind)
	if appErr.Kind == apperror.KindExpiredToken {
		// expired and invalid tokens look the same to clients
		res.Kind = string(apperror.KindInvalidToken)
	}
	return appErr.Status, res
}
