package apperrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with cause",
			err:  &Error{Type: TypeInvalid, Message: "bad input", Cause: errors.New("boom")},
			want: "invalid: bad input: boom",
		},
		{
			name: "without cause",
			err:  &Error{Type: TypeNotFound, Message: "missing"},
			want: "not_found: missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("underlying")
	err := New(TypeInternal, "msg", cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("x", nil), http.StatusNotFound},
		{NewInvalidError("x", nil), http.StatusBadRequest},
		{NewConflictError("x", nil), http.StatusConflict},
		{NewForbiddenError("x", nil), http.StatusForbidden},
		{NewRateLimitError("x", nil), http.StatusTooManyRequests},
		{NewUpstreamError("x", nil), http.StatusBadGateway},
		{NewTimeoutError("x", nil), http.StatusGatewayTimeout},
		{NewInternalError("x", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err))
	}
}

func TestIs(t *testing.T) {
	t.Parallel()
	err := NewConflictError("dup", nil)
	assert.True(t, Is(err, TypeConflict))
	assert.False(t, Is(err, TypeNotFound))
	assert.False(t, Is(errors.New("plain"), TypeConflict))
}
