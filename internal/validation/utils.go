package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError represents a validation error for a single field.
//
// Field is the dotted config key ("db.port"), Error the message.
type FieldError struct {
	Field string
	Error string
}

// Errors is a list of field errors that satisfies error.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+" "+fe.Error)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates s and returns Errors when any rule fails.
//
// Field names are taken from the koanf tags so messages point at the
// configuration key, not the Go field.
func Struct(v *validator.Validate, s any) error {
	v.RegisterTagNameFunc(koanfTagName)

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	return extractValidationErrors(validationErrors)
}

func koanfTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func extractValidationErrors(validationErrors validator.ValidationErrors) Errors {
	fieldErrors := make(Errors, 0, len(validationErrors))

	for _, err := range validationErrors {
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "numeric":
			msg = "must be numeric"

		case "excludesall":
			msg = fmt.Sprintf("must not contain any of: %s", err.Param())

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s:%s", err.Tag(), err.Param())
			} else {
				msg = err.Tag()
			}
		}

		fieldErrors = append(fieldErrors, FieldError{
			Field: fieldPath(err.Namespace()),
			Error: msg,
		})
	}

	return fieldErrors
}

// fieldPath drops the root struct name: "Config.db.port" -> "db.port".
func fieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}
	return namespace
}
