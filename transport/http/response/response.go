package response

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"lodge/shared/constant"
	"lodge/shared/failure"
	"lodge/shared/logger"
)

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

type Error struct {
	Error *string `json:"error,omitempty"`
}

type Message struct {
	Message *string `json:"message,omitempty"`
}

func WithMessage(writer http.ResponseWriter, code int, message string) {
	response(writer, code, Message{Message: &message})
}

// WithJSON wraps payload in the {"data": ...} envelope.
func WithJSON(writer http.ResponseWriter, code int, payload any) {
	response(writer, code, Data[any]{Data: &payload})
}

// WithError maps err to its failure code; anything unclassified is a 500.
func WithError(writer http.ResponseWriter, err error) {
	code := failure.GetCode(err)
	errMsg := err.Error()

	response(writer, code, Error{Error: &errMsg})
}

// WithAttachment sends body as a file download named fileName.
func WithAttachment(writer http.ResponseWriter, fileName, contentType string, body io.Reader) {
	writer.Header().Set(constant.RequestHeaderContentType, contentType)
	writer.Header().Set(constant.RequestHeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	writer.WriteHeader(http.StatusOK)

	if _, err := io.Copy(writer, body); err != nil {
		logger.ErrorWithStack(err)
	}
}

// WithRequestLimitExceeded tells the client how long until its window resets.
func WithRequestLimitExceeded(writer http.ResponseWriter, retryAfterSeconds int) {
	writer.Header().Set(constant.RequestHeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func response(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)
		writer.WriteHeader(http.StatusInternalServerError)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err = writer.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
