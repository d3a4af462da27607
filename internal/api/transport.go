// Package api talks to the back-office server: it issues requests through a
// Transport, turns every outcome into an Envelope, caches list pages and
// settles each mutation with one invalidation and one notification.
package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport sends one request and returns the decoded response body.
// A non-2xx status is reported as *ResponseError; any other error means no
// response was received.
type Transport interface {
	Do(ctx context.Context, method, path string, body any) (*Response, error)
}

// Response is a successful HTTP response.
type Response struct {
	Status int
	Data   json.RawMessage
}

// ResponseError is an HTTP response with a non-2xx status.
type ResponseError struct {
	Status int
	Data   json.RawMessage
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("api: server returned status %d", e.Status)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, method, path string, body any) (*Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	return f(ctx, method, path, body)
}
