package serverutils

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordinates struct {
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
}

func ptr(v float64) *float64 { return &v }

func TestValidateRequest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(coordinates{Longitude: ptr(127.0), Latitude: ptr(0)}))
	})

	t.Run("missing field", func(t *testing.T) {
		err := ValidateRequest(coordinates{Longitude: ptr(127.0)})
		require.Error(t, err)

		var fe *fiber.Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, fiber.StatusBadRequest, fe.Code)
		assert.Contains(t, fe.Message, "latitude is required")
	})

	t.Run("out of range", func(t *testing.T) {
		err := ValidateRequest(coordinates{Longitude: ptr(181), Latitude: ptr(-91)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "longitude must satisfy lte=180")
		assert.Contains(t, err.Error(), "latitude must satisfy gte=-90")
	})
}
