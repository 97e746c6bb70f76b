package validation

import (
	"checkout-builder/internal/apperr"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type carrierForm struct {
	AccountNumber string `json:"account_number" validate:"required,min=8"`
}

type settingsForm struct {
	Email      string      `json:"email" validate:"required,email"`
	Color      string      `json:"theme_color_primary" validate:"omitempty,hexcolor"`
	Chronopost carrierForm `json:"chronopost"`
}

func TestValidate_FieldErrors(t *testing.T) {
	v := New()

	err := v.Validate(&settingsForm{Email: "nope", Color: "blue", Chronopost: carrierForm{AccountNumber: "W29"}})
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Invalid, ae.Kind)
	assert.Equal(t, "Enter a valid email address.", ae.Fields["email"])
	assert.Equal(t, "Must be a hex color such as #4f46e5.", ae.Fields["theme_color_primary"])
	assert.Equal(t, "Must be at least 8.", ae.Fields["chronopost.account_number"])
}

func TestValidate_OK(t *testing.T) {
	v := New()

	err := v.Validate(&settingsForm{Email: "shop@example.com", Chronopost: carrierForm{AccountNumber: "W2961154"}})
	assert.NoError(t, err)
}

func TestVar(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("client@example.com", "required,email"))
	assert.Error(t, v.Var("client@", "required,email"))
}
