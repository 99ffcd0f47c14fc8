// Package providers defines the upstream streaming abstraction used by the
// chat relay.
//
// A ResponseStreamer opens one streaming inference call and exposes it as a
// channel of StreamEvent values. Payloads are kept as raw JSON; the relay
// forwards them without interpreting them.
//
// NewHTTPClient builds the pooled client adapters send through, and
// StatusError maps failed responses to typed errors:
//
//	401, 403  AuthError
//	429       RateLimitError (with Retry-After)
//	other     ProviderError
//
// A successful response that is not text/event-stream is rejected by
// CheckEventStream as a ProviderError.
//
// Transport failures surface as StreamError or TimeoutError, and malformed
// stream payloads as ParseError. Message extracts the caller-facing text from
// any of them.
//
// The openai subpackage implements ResponseStreamer against the OpenAI
// Responses API.
package providers
