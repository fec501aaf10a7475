// Package validation turns struct tags into per-field, user-facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to its first failure message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := fe.Fields()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// First returns the first failing field by name order.
func (fe FieldErrors) First() (field, msg string) {
	keys := fe.Fields()
	if len(keys) == 0 {
		return "", ""
	}
	return keys[0], fe[keys[0]]
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name so messages line up with template inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns nil when every rule passes.
func Struct(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters.", label, fe.Param())
	case "eqfield":
		return "Passwords do not match."
	default:
		return label + " is invalid."
	}
}

// Label turns a form field name such as confirm_password into "Confirm password".
func Label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
