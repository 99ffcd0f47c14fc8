package openai

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dkolkovskiy/qola/pkg/providers"
)

// Upstream event types that end a stream with a failure.
const (
	eventError          = "error"
	eventResponseFailed = "response.failed"
)

// inlineErrorPrefix starts the error the SDK reports for an event whose
// payload carries a top-level "error" object.
const inlineErrorPrefix = "received error while streaming: "

// newEvent wraps one decoded upstream payload. The payload is compacted and
// otherwise forwarded unchanged.
func newEvent(eventType, raw string) (*providers.StreamEvent, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(raw)); err != nil {
		return nil, &providers.ParseError{Provider: ProviderName, RawResponse: raw, Cause: err}
	}

	return &providers.StreamEvent{
		Type: eventType,
		Data: json.RawMessage(compact.Bytes()),
	}, nil
}

// terminalError reports whether ev announces an upstream failure and, if so,
// returns it as a StreamError carrying the upstream's message.
func terminalError(ev *providers.StreamEvent) error {
	switch ev.Type {
	case eventError:
		msg := gjson.GetBytes(ev.Data, "message").String()
		if msg == "" {
			msg = gjson.GetBytes(ev.Data, "error.message").String()
		}
		return &providers.StreamError{Provider: ProviderName, Message: msg}

	case eventResponseFailed:
		msg := gjson.GetBytes(ev.Data, "response.error.message").String()
		return &providers.StreamError{Provider: ProviderName, Message: msg}
	}

	return nil
}

// inlineErrorMessage extracts the upstream message from an inline stream
// error.
func inlineErrorMessage(err error) (string, bool) {
	rest, ok := strings.CutPrefix(err.Error(), inlineErrorPrefix)
	if !ok {
		return "", false
	}
	if msg := gjson.Get(rest, "message").String(); msg != "" {
		return msg, true
	}
	return strings.TrimSpace(rest), true
}
