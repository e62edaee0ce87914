// Package validation wires the shared validator instance and the custom
// rules used by the auth request DTOs.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance.
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("password", validatePassword); err != nil {
		panic(fmt.Sprintf("failed to register password validator: %v", err))
	}
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// validatePassword enforces a minimum length and rejects surrounding
// whitespace, which is almost always a paste accident the user cannot
// reproduce at login.
func validatePassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) < MinPasswordLength {
		return false
	}
	return strings.TrimSpace(value) == value
}

// Fields flattens validator errors into a field → message map suitable
// for a structured error response.
func Fields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fields
	}
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = ruleMessage(fe)
	}
	return fields
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "password":
		return fmt.Sprintf("must be at least %d characters with no surrounding whitespace", MinPasswordLength)
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
