// Package errors derives low-cardinality error classes for metric tags and log fields.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/narrai/narrai-web/internal/errors"
)

// Classify returns an error class for tagging. Application errors report their code;
// anything else reports the innermost concrete type in snake-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
