// Package validation checks submitted product forms before anything is written to the store.
package validation

import (
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ProductForm is the product as submitted by the add and edit forms.
// Quantity stays textual until it has been validated.
type ProductForm struct {
	Title    string   `form:"title"    validate:"required"`
	Category []string `form:"category" validate:"required,min=1,dive,required"`
	Color    string   `form:"color"    validate:"required"`
	Quantity string   `form:"quantity" validate:"required,integer"`
	Etc      string   `form:"etc"`
}

// FieldError describes one violated rule.
type FieldError struct {
	Field   string
	Message string
}

// messages maps a field to the message shown when it fails.
// Category elements have their own message.
var messages = map[string]string{
	"title":      "Title cannot be empty",
	"category":   "Category cannot be empty",
	"category[]": "Fill in all category",
	"color":      "Color cannot be empty",
	"quantity":   "Enter acceptable quantity",
}

// Validator validates product forms.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the product rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("integer", isInteger)
	return &Validator{validate: v}
}

// Validate returns every violated rule in field order, or nil when the form is valid.
func (v *Validator) Validate(form ProductForm) []FieldError {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Field: "form", Message: err.Error()}}
	}
	result := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := fieldErr.Field()
		key := field
		if base, _, isElem := strings.Cut(field, "["); isElem {
			field = base
			key = base + "[]"
		}
		msg, ok := messages[key]
		if !ok {
			msg = "failed on rule: " + fieldErr.Tag()
		}
		result = append(result, FieldError{Field: field, Message: msg})
	}
	return result
}

// FormFromValues extracts a ProductForm from parsed form values.
// Category is collected from both "category" and "category[]" keys.
func FormFromValues(values url.Values) ProductForm {
	category := make([]string, 0, len(values["category"])+len(values["category[]"]))
	category = append(category, values["category"]...)
	category = append(category, values["category[]"]...)
	if len(category) == 0 {
		category = nil
	}
	return ProductForm{
		Title:    values.Get("title"),
		Category: category,
		Color:    values.Get("color"),
		Quantity: values.Get("quantity"),
		Etc:      values.Get("etc"),
	}
}

// isInteger accepts an optional sign followed by decimal digits. Leading zeros are allowed,
// so "007" and "+4" are integers; whitespace, separators, exponents and values outside
// the int range are not.
func isInteger(fl validator.FieldLevel) bool {
	_, err := strconv.Atoi(fl.Field().String())
	return err == nil
}
