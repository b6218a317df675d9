package validators

import (
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpdateProfileRequest(t *testing.T) {
	v := NewValidator()

	name := "Ada"
	assert.NoError(t, v.Validate(models.UpdateProfileRequest{FullName: &name}))
	assert.NoError(t, v.Validate(models.UpdateProfileRequest{}))

	long := strings.Repeat("x", 51)
	err := v.Validate(models.UpdateProfileRequest{FullName: &long})
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	age := -1
	assert.Error(t, v.Validate(models.UpdateProfileRequest{Age: &age}))
}

func TestValidateTransferRequest(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.Validate(models.TransferCreditRequest{Amount: 5}))
	assert.NoError(t, v.Validate(models.TransferCreditRequest{RecipientID: "r", Amount: 5}))
}
