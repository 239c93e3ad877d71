package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired is returned when a 401 could not be recovered by a
// token refresh. The session has been cleared when this is returned.
var ErrSessionExpired = errors.New("session expired, please log in again")

// defaultErrorMessage is used when the backend gives no usable message
const defaultErrorMessage = "server error"

// APIError represents a non-2xx response from the backend
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error: %s (status: %d)", e.Message, e.Status)
}

// IsNotFound reports whether the backend answered 404
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsValidation reports whether the backend rejected the payload
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}

// errorBody is the error envelope returned by the backend
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	if b.Error != "" {
		return b.Error
	}
	return defaultErrorMessage
}

// AsAPIError unwraps err into an *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
