package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_HTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{InvalidAmount, http.StatusBadRequest},
		{InvalidTransfer, http.StatusBadRequest},
		{AccountInactive, http.StatusBadRequest},
		{InvalidInput, http.StatusBadRequest},
		{InsufficientBalance, http.StatusUnprocessableEntity},
		{InternalError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NewAppError(tc.code, "x").HTTPStatus(), "code %s", tc.code)
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewAppErrorf(NotFound, "account %s not found", "42").WithDetails("gone")
	assert.Equal(t, "not_found: account 42 not found", err.Error())
	assert.Equal(t, "gone", err.Details)
}
