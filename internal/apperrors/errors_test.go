package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("profile %s not found", "x")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", Conflict("dup"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, Is(BadRequest("bad"), KindBadRequest))
	assert.False(t, Is(nil, KindInternal))
}

func TestErrorMessage(t *testing.T) {
	err := Unauthorized("Invalid %s", "token")
	assert.Equal(t, "Invalid token", err.Error())
	assert.Equal(t, "unauthorized", KindOf(err).String())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 404, HTTPStatus(NotFound("x")))
	assert.Equal(t, 409, HTTPStatus(Conflict("x")))
	assert.Equal(t, 400, HTTPStatus(BadRequest("x")))
	assert.Equal(t, 401, HTTPStatus(Unauthorized("x")))
	assert.Equal(t, 403, HTTPStatus(Forbidden("x")))
	assert.Equal(t, 500, HTTPStatus(errors.New("x")))
}
