package handler

import (
	"net/http"
	"strings"
)

// ErrorResponse is the envelope used for trip and generic errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is a machine-readable code plus a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "trip not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return errorBody("not_found", message)
}

// validationBody returns an ErrorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) ErrorResponse {
	return errorBody("validation_error", unwrapMessage(err))
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return errorBody("validation_error", message)
}

// decodeBody returns the ErrorResponse for a body decodeJSON rejected.
func decodeBody(status int, message string) ErrorResponse {
	if status == http.StatusRequestEntityTooLarge {
		return errorBody("payload_too_large", message)
	}
	return requestBody(message)
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Save: validation error: userId is required" → "userId is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, prefix := range []string{
		"service.TripService.Save: validation error: ",
		"validation error: ",
	} {
		if rest, ok := strings.CutPrefix(msg, prefix); ok && rest != "" {
			return rest
		}
	}
	return msg
}
