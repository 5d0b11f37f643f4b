package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"lodge/shared/constant"
	"lodge/shared/datetime"
	"lodge/shared/failure"

	val "github.com/go-playground/validator/v10"
)

const megabyte = 1024 * 1024

var validate *val.Validate

// registerMimetypeValidation checks an upload's declared content type,
// falling back to its extension when the part carries none.
func registerMimetypeValidation(field val.FieldLevel) bool {
	file, ok := field.Field().Interface().(multipart.FileHeader)
	if !ok {
		return false
	}

	contentType := file.Header.Get(constant.RequestHeaderContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType, _, _ = strings.Cut(mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Filename))), ";")
	}

	return slices.Contains(strings.Split(field.Param(), " "), contentType)
}

func registerFileSizeValidation(field val.FieldLevel) bool {
	file, ok := field.Field().Interface().(multipart.FileHeader)
	if !ok {
		return false
	}

	maxSizeMB, err := strconv.ParseFloat(field.Param(), 64)
	if err != nil {
		return false
	}

	return float64(file.Size) <= maxSizeMB*megabyte
}

// registerBookingDateValidation accepts a single date or a "D1 - D2" range
// whose end is not before its start.
func registerBookingDateValidation(field val.FieldLevel) bool {
	value := field.Field().String()

	if _, _, ok := datetime.SplitRange(value); ok {
		checkIn, checkOut, ok := datetime.ParseRange(value)

		return ok && !checkOut.Before(checkIn)
	}

	_, ok := datetime.ParseDate(value)

	return ok
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	// Report fields by the name clients send: json for bodies, form for
	// multipart uploads.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return field.Name
	})

	validations := map[string]val.Func{
		"mimetypes":   registerMimetypeValidation,
		"maxfilesize": registerFileSizeValidation,
		"bookingdate": registerBookingDateValidation,
		"hhmm": func(fl val.FieldLevel) bool {
			_, ok := datetime.ParseTimeOfDay(fl.Field().String())

			return ok
		},
	}

	for tag, fn := range validations {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
}

// Validate reads from the given io.Reader into the given struct, and then performs validation
// on the struct using the validator package. If the struct is invalid according to the
// validation rules, an error is returned. Otherwise, nil is returned.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	err := decoder.Decode(data)

	if err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

// ValidateOptional decodes like Validate but accepts an empty body, for
// actions whose payload is entirely optional.
func ValidateOptional[T any](r io.Reader, data *T) error {
	err := json.NewDecoder(r).Decode(data)

	if err != nil && !errors.Is(err, io.EOF) {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	err := validate.Struct(data)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	err := validate.Var(field, tag)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}
