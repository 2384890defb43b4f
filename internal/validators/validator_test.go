package validators_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/validators"
)

func TestValidatorReturnsBadRequest(t *testing.T) {
	v := validators.NewValidator()

	require.NoError(t, v.Validate(&models.ToggleLikeRequest{TargetID: "q1", TargetType: "answer"}))

	err := v.Validate(&models.ToggleLikeRequest{TargetID: "q1", TargetType: "post"})
	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
