package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxRequestBodySize is the maximum allowed chat request body size (1MB).
	MaxRequestBodySize = 1 << 20

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// ChatRequiredFieldsMessage is returned for any chat request that lacks a
	// senior ID or message.
	ChatRequiredFieldsMessage = "seniorId and message are required"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ChatRequest is the body of POST /ai/chat.
type ChatRequest struct {
	// SeniorID identifies the person the companion is talking to
	SeniorID string `json:"seniorId" validate:"required"`

	// Message is the user's utterance
	Message string `json:"message" validate:"required"`
}

// ParseChatRequest decodes and validates a chat request body. Every failure
// (unreadable, oversized, malformed or incomplete body) is a *RequestError.
func ParseChatRequest(r *http.Request) (*ChatRequest, error) {
	if r.Body == nil {
		return nil, &RequestError{Message: ChatRequiredFieldsMessage, Param: "body"}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, &RequestError{Message: ChatRequiredFieldsMessage, Param: "body", Cause: err}
	}
	if len(body) > MaxRequestBodySize {
		return nil, &RequestError{
			Message: ChatRequiredFieldsMessage,
			Param:   "body",
			Cause:   fmt.Errorf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
		}
	}

	var req ChatRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, &RequestError{
				Message: ChatRequiredFieldsMessage,
				Param:   "body",
				Cause:   fmt.Errorf("invalid JSON: %w", err),
			}
		}
	}

	if err := validate.Struct(&req); err != nil {
		param := "body"
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			param = fieldErrs[0].Field()
		}
		return nil, &RequestError{Message: ChatRequiredFieldsMessage, Param: param, Cause: err}
	}

	return &req, nil
}

// RequestError is a client error detected while parsing a request.
type RequestError struct {
	// Message is the caller-facing message
	Message string

	// Param names the offending field, or "body"
	Param string

	// Cause is the underlying error, logged but not returned to the caller
	Cause error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid request (%s): %s: %v", e.Param, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid request (%s): %s", e.Param, e.Message)
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Cause
}
