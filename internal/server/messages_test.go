package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dmelnick/relaychat/internal/chat"
	"github.com/stretchr/testify/assert"
)

func TestNoErrOk(t *testing.T) {
	expected := &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        1,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data: map[string]any{
				"testkey": "testvalue",
			},
		},
	}

	result := NoErrOK(1, map[string]any{
		"testkey": "testvalue",
	})

	assert.NotNil(t, result, "expected result to be non-nil")
	assert.NotNil(t, result.Response, "expected response to be non-nil")
	assert.Equal(t, expected.Id, result.Id, "expected Id to match")
	assert.WithinDuration(t, expected.Timestamp, result.Timestamp, time.Duration(time.Second), "expected Timestamp to be within 1 second")
	assert.Equal(t, expected.Response.ResponseCode, result.Response.ResponseCode, "expected ResponseCode to match")
	assert.Equal(t, expected.Response.Data, result.Response.Data, "expected Data to match")
}

func TestNoErrAccepted(t *testing.T) {
	expected := &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        1,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}

	result := NoErrAccepted(1)

	assert.NotNil(t, result, "expected result to be non-nil")
	assert.NotNil(t, result.Response, "expected response to be non-nil")
	assert.Equal(t, expected.Id, result.Id, "expected Id to match")
	assert.WithinDuration(t, expected.Timestamp, result.Timestamp, time.Duration(time.Second), "expected Timestamp to be within 1 second")
	assert.Equal(t, expected.Response.ResponseCode, result.Response.ResponseCode, "expected ResponseCode to match")
}

func TestErrRoomNotFound(t *testing.T) {
	expected := &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        1,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}

	result := ErrRoomNotFound(1)

	assert.NotNil(t, result, "expected result to be non-nil")
	assert.NotNil(t, result.Response, "expected response to be non-nil")
	assert.Equal(t, expected.Id, result.Id, "expected Id to match")
	assert.WithinDuration(t, expected.Timestamp, result.Timestamp, time.Duration(time.Second), "expected Timestamp to be within 1 second")
	assert.Equal(t, expected.Response.ResponseCode, result.Response.ResponseCode, "expected ResponseCode to match")
	assert.Equal(t, expected.Response.Error, result.Response.Error, "expected Error message to match")
}

func TestErrInvalidMessage(t *testing.T) {
	result := ErrInvalidMessage(0)
	assert.NotNil(t, result, "expected result to be non-nil")
	assert.NotNil(t, result.Response, "expected response to be non-nil")
	assert.Equal(t, 0, result.Id, "expected Id to be zero")
	assert.Equal(t, http.StatusBadRequest, result.Response.ResponseCode, "expected ResponseCode to match")
	assert.Equal(t, "invalid message format", result.Response.Error, "expected Error message to match")

	resultWithId := ErrInvalidMessage(42)
	assert.Equal(t, 42, resultWithId.Id, "expected Id to be set when positive")
	assert.Equal(t, http.StatusBadRequest, resultWithId.Response.ResponseCode, "expected ResponseCode to match")
}

func TestErrorResponse(t *testing.T) {
	tcases := []struct {
		name         string
		err          error
		expectedCode int
		expectedText string
	}{
		{
			name:         "not found",
			err:          chat.ErrNotFound,
			expectedCode: http.StatusNotFound,
			expectedText: "not found",
		},
		{
			name:         "forbidden",
			err:          chat.ErrForbidden,
			expectedCode: http.StatusForbidden,
			expectedText: "forbidden",
		},
		{
			name:         "blocked",
			err:          chat.ErrBlocked,
			expectedCode: http.StatusForbidden,
			expectedText: "messaging is blocked between these users",
		},
		{
			name:         "invariant carries the reason",
			err:          fmt.Errorf("%w: a message needs text or an attachment", chat.ErrInvariant),
			expectedCode: http.StatusConflict,
			expectedText: "invariant violation: a message needs text or an attachment",
		},
		{
			name:         "conflict",
			err:          chat.ErrConflict,
			expectedCode: http.StatusConflict,
			expectedText: "conflict, try again",
		},
		{
			name:         "rate limited",
			err:          chat.ErrRateLimited,
			expectedCode: http.StatusTooManyRequests,
			expectedText: "slow down",
		},
		{
			name:         "unavailable",
			err:          chat.ErrUnavailable,
			expectedCode: http.StatusServiceUnavailable,
			expectedText: "service unavailable",
		},
		{
			name:         "unknown errors are internal",
			err:          errors.New("db exploded"),
			expectedCode: http.StatusInternalServerError,
			expectedText: "internal server error",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			result := ErrorResponse(7, tc.err)
			assert.NotNil(t, result.Response, "expected response to be non-nil")
			assert.Equal(t, 7, result.Id, "expected Id to match")
			assert.Equal(t, tc.expectedCode, result.Response.ResponseCode, "expected ResponseCode to match")
			assert.Equal(t, tc.expectedText, result.Response.Error, "expected Error message to match")
		})
	}
}
