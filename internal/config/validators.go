package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/idelchi/tokenseal/internal/container"
)

// newValidator returns a validator with the custom rules registered and
// field names taken from the label tag.
func newValidator() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.RegisterValidation("exclusive", validateExclusive); err != nil {
		return nil, fmt.Errorf("registering exclusive validation: %w", err)
	}

	if err := validate.RegisterValidation("nodelim", validateNoDelimiter); err != nil {
		return nil, fmt.Errorf("registering nodelim validation: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		const splitSize = 2

		name := strings.SplitN(fld.Tag.Get("label"), ",", splitSize)[0]
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	return validate, nil
}

// validateExclusive checks if two fields are mutually exclusive.
// Returns false if both fields have non-empty values.
func validateExclusive(fl validator.FieldLevel) bool {
	field := fl.Field()
	otherField := fl.Parent().FieldByName(fl.Param())

	if !field.IsValid() || !otherField.IsValid() {
		return true
	}

	if field.Kind() == reflect.String && otherField.Kind() == reflect.String {
		return field.String() == "" || otherField.String() == ""
	}

	return true
}

// validateNoDelimiter rejects tokens containing the legacy delimiter when the
// layout field named by the parameter selects the legacy layout.
func validateNoDelimiter(fl validator.FieldLevel) bool {
	layout := fl.Parent().FieldByName(fl.Param())
	if layout.IsValid() && layout.Kind() == reflect.String && layout.String() != "" && layout.String() != "legacy" {
		return true
	}

	return !strings.Contains(fl.Field().String(), container.Delimiter)
}
