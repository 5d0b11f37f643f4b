package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required":    "{field} is required",
	"gte":         "{field} must be greater than or equal to {param}",
	"lte":         "{field} must be less than or equal to {param}",
	"oneof":       "{field} must be one of {param}",
	"max":         "{field} must be at most {param}",
	"min":         "{field} must be at least {param}",
	"email":       "{field} must be a valid email address",
	"url":         "{field} must be a valid URL",
	"nefield":     "{field} must differ from {param}",
	"hhmm":        "{field} must be a time of day formatted as HH:MM",
	"mimetypes":   "{field} must be one of {param}",
	"maxfilesize": "{field} must not exceed {param} MB",
	"bookingdate": "{field} must be a date (YYYY-MM-DD or DD/MM/YYYY) or a range of dates",
}

// message renders the first validation failure that has a template.
func message(err error) string {
	var valErrors val.ValidationErrors
	if !errors.As(err, &valErrors) {
		return err.Error()
	}

	for _, valErr := range valErrors {
		template, ok := messages[valErr.Tag()]
		if !ok {
			continue
		}

		return strings.NewReplacer("{field}", valErr.Field(), "{param}", valErr.Param()).Replace(template)
	}

	return valErrors.Error()
}
