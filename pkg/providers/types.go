package providers

import (
	"encoding/json"
	"strings"
)

// Input message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// InputMessage is one entry of a response request's input.
type InputMessage struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// ResponseRequest is a streaming response request.
type ResponseRequest struct {
	// Model is the upstream model identifier
	Model string `json:"model"`

	// Input is the ordered conversation sent upstream
	Input []InputMessage `json:"input"`
}

// Validate checks that the request can be sent upstream.
func (r *ResponseRequest) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if len(r.Input) == 0 {
		return &ValidationError{Field: "input", Message: "at least one input message is required"}
	}
	for _, msg := range r.Input {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{Field: "input.role", Message: "unknown role " + msg.Role}
		}
	}
	return nil
}

// StreamEvent is one incremental event of an upstream stream.
//
// Data is the upstream payload, forwarded opaque. An event with a non-nil
// Err is terminal and carries no data; a closed channel without an error
// event means the stream completed normally.
type StreamEvent struct {
	// Type is the upstream event name (e.g. "response.output_text.delta")
	Type string

	// Data is the raw JSON payload of the event
	Data json.RawMessage

	// Err is set on the final event of a failed stream
	Err error
}
