// Package validation checks payloads against their `validate` struct tags
// before anything is sent to the backend. Failures are reported with the
// JSON names of the offending fields.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("balanced_braces", validateBalancedBraces)

	return v
}

// Error lists the fields that failed validation
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return "invalid or missing fields: " + strings.Join(e.Fields, ", ")
}

// Is reports whether err is an *Error
func Is(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Struct validates s and returns an *Error naming every failing field in
// declaration order
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating %T: %w", s, err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return &Error{Fields: fields}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// validateBalancedBraces rejects {{placeholder}} markup left unclosed
func validateBalancedBraces(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.Count(s, "{{") == strings.Count(s, "}}")
}
