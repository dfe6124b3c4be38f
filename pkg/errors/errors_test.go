package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypePredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("bad input")))
	assert.True(t, IsNotFound(NewNotFoundError("api key 'k-1'")))
	assert.True(t, IsConflict(NewConflictError("already exists")))
	assert.True(t, IsUnauthorized(NewUnauthorizedError("no token")))
	assert.True(t, IsDatabase(NewDatabaseError("get item", errors.New("timeout"))))

	assert.False(t, IsNotFound(NewConflictError("already exists")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewValidationError("x").HTTPStatus)
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("x").HTTPStatus)
	assert.Equal(t, http.StatusConflict, NewConflictError("x").HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, NewUnauthorizedError("x").HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, NewDatabaseError("x", errors.New("y")).HTTPStatus)
}

func TestDatabaseErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDatabaseError("query memberships", cause)

	assert.ErrorIs(t, err, cause)
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewNotFoundError("group 'g-1'"))
	assert.True(t, IsNotFound(err))

	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeNotFound, appErr.Type)
}
