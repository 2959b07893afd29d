// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// FieldError is one failed constraint on a request parameter.
type FieldError struct {
	Field   string // query parameter name
	Tag     string // failed validate tag, e.g. "admname"
	Param   string // tag parameter, e.g. "100" for max=100
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Errors is the list of field errors of one request. Values are never
// echoed back, so rejected input does not reach responses or logs.
type Errors []FieldError

// Error joins the field messages.
func (errs Errors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}

// Summary returns the client-facing message and details. A single error
// reports its field and tag directly; several are listed under "fields".
func (errs Errors) Summary() (message string, details map[string]interface{}) {
	switch len(errs) {
	case 0:
		return "Validation failed", nil
	case 1:
		e := errs[0]
		return e.Message, map[string]interface{}{"field": e.Field, "tag": e.Tag}
	}

	fields := make([]map[string]interface{}, len(errs))
	messages := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = map[string]interface{}{"field": e.Field, "tag": e.Tag, "message": e.Message}
		messages[i] = e.Field + ": " + e.Message
	}
	return strings.Join(messages, "; "), map[string]interface{}{"fields": fields}
}

// GetValidator returns the shared validator.
//
// Field names in errors come from the `query` struct tag so messages name
// the URL parameter the client sent. Custom tags:
//   - admname: an administrative area name (printable, no SQL quoting needed)
//   - identifier: an unquoted SQL identifier
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(queryTagName)

		// Registration only fails for empty tags or nil functions.
		_ = validate.RegisterValidation("admname", validateAdminName)
		_ = validate.RegisterValidation("identifier", validateIdentifier)
	})
	return validate
}

func queryTagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// validateAdminName accepts names such as "BOGOTÁ, D.C." or
// "SAN ANDRÉS DE TUMACO": letters, digits, spaces and . , ' ( ) -.
func validateAdminName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
		case strings.ContainsRune(" .,'()-", r):
		default:
			return false
		}
	}
	return true
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}

// ValidateStruct checks s against its validate tags and returns Errors,
// or nil when s is valid.
func ValidateStruct(s interface{}) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return out
}

var messages = map[string]string{
	"required":   "%s is required",
	"admname":    "%s must be an administrative area name",
	"identifier": "%s must be a table name (letters, digits and underscores)",
	"oneof":      "%s must be one of: %s",
	"gte":        "%s must be greater than or equal to %s",
	"lte":        "%s must be less than or equal to %s",
	"gt":         "%s must be greater than %s",
	"lt":         "%s must be less than %s",
}

func message(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if tmpl, ok := messages[tag]; ok {
		if strings.Count(tmpl, "%s") == 2 {
			return fmt.Sprintf(tmpl, field, param)
		}
		return fmt.Sprintf(tmpl, field)
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
