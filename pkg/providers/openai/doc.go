// Package openai implements providers.ResponseStreamer against the OpenAI
// Responses API using the official openai-go SDK.
//
// A call is a single POST {BaseURL}/responses with "stream": true and no
// retries. Each decoded event's raw JSON payload is compacted and emitted
// unchanged, typed by the payload's "type". A successful response that is not
// an event stream is refused rather than read as an empty stream.
//
// Upstream "error" and "response.failed" events are emitted like any other
// event and then followed by a terminal error event, so a relay shows the
// caller what happened before closing the stream.
//
//	client := openai.NewClient(cfg.Upstream, logger)
//	events, err := client.StreamResponse(ctx, req)
package openai
