// Package validation checks submitted product forms and reports problems as
// a list of field errors the form view can show inline.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their form names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// ProductInput is the validated shape of a submitted product form
type ProductInput struct {
	Name       string  `form:"name" validate:"required"`
	Price      float64 `form:"price" validate:"gte=0"`
	CategoryID string  `form:"category_id" validate:"required"`
}

// FieldError represents a field validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is the structured result of a validation run
type FieldErrors []FieldError

// For returns the first message reported for field, or "".
func (fe FieldErrors) For(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Has reports whether field has an error
func (fe FieldErrors) Has(field string) bool {
	return fe.For(field) != ""
}

// Product validates a submitted product. Name is trimmed before the
// required check so a blank name is rejected.
func Product(input ProductInput) FieldErrors {
	input.Name = strings.TrimSpace(input.Name)
	input.CategoryID = strings.TrimSpace(input.CategoryID)
	return FormatValidationErrors(validate.Struct(input))
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) FieldErrors {
	var errs FieldErrors

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errs = append(errs, FieldError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errs
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "no puede estar vacío"
	case "gte":
		return "debe ser mayor o igual a " + e.Param()
	case "lte":
		return "debe ser menor o igual a " + e.Param()
	case "numeric":
		return "debe ser un número"
	default:
		return "valor inválido"
	}
}

// NotANumber is the error reported when a numeric field cannot be parsed
func NotANumber(field string) FieldError {
	return FieldError{Field: field, Message: "debe ser un número"}
}

// Missing is the error reported when a field that must be decoded is absent
func Missing(field string) FieldError {
	return FieldError{Field: field, Message: "no puede estar vacío"}
}
