package providers

import "context"

// ResponseStreamer opens streaming inference calls against an upstream API.
//
// StreamResponse returns an error when the call cannot be opened (bad request,
// rejected credentials, unreachable upstream). Once it returns a channel, every
// later failure arrives as a final StreamEvent with Err set, after which the
// channel is closed.
//
// The caller must either drain the channel or cancel ctx. Cancelling ctx
// aborts the upstream request and closes the channel promptly.
//
// Example:
//
//	events, err := streamer.StreamResponse(ctx, &ResponseRequest{
//	    Model: "gpt-4.1-mini",
//	    Input: []InputMessage{{Role: RoleUser, Content: "Hello!"}},
//	})
//	if err != nil {
//	    return err
//	}
//	for ev := range events {
//	    if ev.Err != nil {
//	        return ev.Err
//	    }
//	    fmt.Println(string(ev.Data))
//	}
type ResponseStreamer interface {
	// StreamResponse opens a streaming call for req.
	StreamResponse(ctx context.Context, req *ResponseRequest) (<-chan *StreamEvent, error)

	// Name returns the upstream's name, used in logs and errors.
	Name() string
}
