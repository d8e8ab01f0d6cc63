// Package http serves the household over a JSON API.
//
// This file implements the builder used by every handler to write JSON
// bodies with consistent headers and error shapes.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorBody is the shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
	hasData    bool
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the body. Nil slices encode as [].
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	b.hasData = true
	return b
}

// Write encodes the body before touching w, so an encoding failure still
// produces a well-formed 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if !b.hasData || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.data)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		body, _ = json.Marshal(errorBody{Error: "internal error"})
		b.statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func TooManyRequestsError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// Created is a 201 carrying the new resource.
func Created(v any) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusCreated).Data(v)
}

// NoContent is an empty 204.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}
