// Package proxy holds the request and response plumbing shared by the HTTP
// handlers: chat request parsing and validation, JSON responses, and the
// Server-Sent Events writer used by the chat relay.
//
// Every SSE event has the shape
//
//	event: <name>\ndata: <json>\n\n
//
// where name is chunk, done or error. A relay stream carries any number of
// chunk events followed by exactly one done or error event.
package proxy
