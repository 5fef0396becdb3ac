// Package validation checks request structs against their `validate` tags and
// reports failures using JSON field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/geocoder89/worldofhackaton/internal/apperr"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

type Details struct {
	Fields []FieldError `json:"fields"`
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return sf.Name
		}
		return name
	})

	// byte length, bcrypt rejects passwords over 72 bytes
	_ = v.RegisterValidation("maxbytes", maxBytes)

	return &Validator{v: v}
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Struct validates every field of s at once. The returned error is an
// *apperr.Error of kind validation whose details list each failed field.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperr.Internal("Could not validate request", err)
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: Message(fe.Tag(), fe.Param()),
		})
	}

	e := apperr.Validation("Invalid request body", Details{Fields: fields})
	e.Err = err
	return e
}

func Message(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "alphanum":
		return "must contain only letters and digits"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "maxbytes":
		return "must be at most " + param + " bytes"
	case "len":
		return "must be exactly " + param + " characters"
	case "eqfield":
		return "must match " + lowerFirst(param)
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
