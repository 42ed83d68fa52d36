package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmelnick/relaychat/internal/chat"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    lower(http.StatusText(http.StatusForbidden)),
	}
}

func NewMethodNotAllowedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    lower(http.StatusText(http.StatusMethodNotAllowed)),
	}
}

// NewChatError translates a chat service error into its HTTP shape.
func NewChatError(err error) *ApiError {
	status := http.StatusInternalServerError
	message := lower(http.StatusText(http.StatusInternalServerError))

	switch {
	case errors.Is(err, chat.ErrNotFound):
		status, message = http.StatusNotFound, lower(http.StatusText(http.StatusNotFound))
	case errors.Is(err, chat.ErrForbidden):
		status, message = http.StatusForbidden, lower(http.StatusText(http.StatusForbidden))
	case errors.Is(err, chat.ErrBlocked):
		status, message = http.StatusForbidden, "messaging is blocked between these users"
	case errors.Is(err, chat.ErrInvariant):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, chat.ErrConflict):
		status, message = http.StatusConflict, "conflict, try again"
	case errors.Is(err, chat.ErrRateLimited):
		status, message = http.StatusTooManyRequests, lower(http.StatusText(http.StatusTooManyRequests))
	case errors.Is(err, chat.ErrUnavailable):
		status, message = http.StatusServiceUnavailable, lower(http.StatusText(http.StatusServiceUnavailable))
	}

	return &ApiError{
		StatusCode: status,
		Message:    message,
		Err:        err,
	}
}
