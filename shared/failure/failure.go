// Package failure carries the HTTP status an error should surface as.
// Services return these for caller mistakes; anything else becomes a 500.
package failure

import (
	"errors"
	"net/http"
)

type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var ForbiddenError = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}

func (e *Failure) Error() string {
	return e.Message
}

// BadRequest keeps err's message. A nil err stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return &Failure{Code: http.StatusBadRequest, Message: err.Error()}
}

func BadRequestFromString(msg string) error {
	return &Failure{Code: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) error {
	return &Failure{Code: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Failure{Code: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) error {
	return &Failure{Code: http.StatusNotFound, Message: msg}
}

// Conflict is used for duplicates and for transitions the current status
// does not allow.
func Conflict(msg string) error {
	return &Failure{Code: http.StatusConflict, Message: msg}
}

// GetCode unwraps err looking for a Failure.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}
