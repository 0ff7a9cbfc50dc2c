package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	cases := []struct {
		err    *APIError
		code   ErrorCode
		status int
	}{
		{NotFound("article"), ErrNotFound, http.StatusNotFound},
		{Unauthorized("nope"), ErrUnauthorized, http.StatusUnauthorized},
		{Forbidden("nope"), ErrForbidden, http.StatusForbidden},
		{ValidationError("content", "required"), ErrValidation, http.StatusUnprocessableEntity},
		{BadRequest("bad json"), ErrBadRequest, http.StatusBadRequest},
		{InternalError("boom"), ErrInternalError, http.StatusInternalServerError},
		{Infrastructure("redis", stderrors.New("down")), ErrServiceUnavail, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.Status)
		assert.Equal(t, tc.status, tc.err.Code.StatusCode())
	}
}

func TestErrorStringIncludesField(t *testing.T) {
	err := ValidationError("title", "too long")
	assert.Equal(t, "VALIDATION_ERROR: too long (field: title)", err.Error())

	plain := NotFound("article")
	assert.Equal(t, "NOT_FOUND: article not found", plain.Error())
}

func TestInfrastructureWrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Infrastructure("view counter", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Message, "view counter")
}

func TestAsAPIError(t *testing.T) {
	orig := NotFound("comment")
	wrapped := fmt.Errorf("handler: %w", orig)

	got := AsAPIError(wrapped)
	assert.Equal(t, ErrNotFound, got.Code)

	// Unknown errors become internal, never a panic or a nil.
	got = AsAPIError(stderrors.New("mystery"))
	assert.Equal(t, ErrInternalError, got.Code)
	assert.Equal(t, "mystery", got.Message)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Forbidden("no"))
	assert.True(t, IsCode(err, ErrForbidden))
	assert.False(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(stderrors.New("plain"), ErrForbidden))
	assert.False(t, IsCode(nil, ErrForbidden))
}

func TestUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("WHATEVER").StatusCode())
}
