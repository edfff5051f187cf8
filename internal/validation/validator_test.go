package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/seedcatalog/seedcatalog-server/internal/errors"
	"github.com/seedcatalog/seedcatalog-server/internal/validation"
)

type lotRequest struct {
	PlantID  string `json:"plant_id" validate:"notblank"`
	LotCode  string `json:"lot_code,omitempty" validate:"max=10"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type photoRequest struct {
	URI  string `json:"uri" validate:"notblank"`
	Type string `json:"type" validate:"phototype"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(lotRequest{PlantID: "plant-1", LotCode: "A1", Quantity: 3}))
	assert.NoError(t, v.Validate(photoRequest{URI: "/tmp/a.jpg", Type: "front"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{"blank plant id", lotRequest{PlantID: "   "}, "plant_id", "is required"},
		{"lot code too long", lotRequest{PlantID: "p", LotCode: "ABCDEFGHIJK"}, "lot_code", "must not exceed 10 characters"},
		{"negative quantity", lotRequest{PlantID: "p", Quantity: -1}, "quantity", "must be greater than or equal to 0"},
		{"unknown photo type", photoRequest{URI: "/a.jpg", Type: "side"}, "type", "must be one of: front back closeup plant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(lotRequest{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "plant_id")
	assert.NotContains(t, err.Error(), "PlantID")
}
