// Package validation builds the request validator shared by all handlers.
package validation

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the custom "password" rule registered:
// at least 8 characters containing an upper case letter, a lower case
// letter and a digit. The engine does not rely on this check; it is a
// boundary-layer courtesy to the client.
func New() *validator.Validate {
	validate := validator.New()

	// RegisterValidation only errors on an empty tag name.
	_ = validate.RegisterValidation("password", passwordStrength)

	return validate
}

func passwordStrength(fl validator.FieldLevel) bool {
	pass := fl.Field().String()
	if len(pass) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range pass {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	return hasUpper && hasLower && hasDigit
}
