// Package handlers provides the HTTP endpoint handlers of the QoLA API.
//
// # Endpoints
//
//   - GET /health: liveness, always {"ok": true}
//   - GET /avatar.html: the avatar page with the streaming avatar key injected
//   - POST /ai/token: a stub session token with a millisecond expiry
//   - POST /ai/chat: the chat relay, streamed as Server-Sent Events
//
// # Chat Relay
//
// ChatHandler validates the request body, opens the event stream, then
// forwards every upstream event as a "chunk" event. The stream ends with
// exactly one terminal event, "done" or "error":
//
//	event: chunk
//	data: {"type":"response.output_text.delta","delta":"Hi"}
//
//	event: done
//	data: {}
//
// An upstream that stays silent longer than the relay idle timeout, or a
// stream that outlives the total stream timeout, ends with an error event.
// When the client disconnects the upstream call is cancelled and nothing
// further is written.
//
// Handlers are plain http.Handler values and carry no routing of their own;
// the server package mounts them and wraps them in middleware.
package handlers
