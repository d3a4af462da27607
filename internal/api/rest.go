package api

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"
)

// DefaultTimeout bounds one request when no timeout option is given.
const DefaultTimeout = 15 * time.Second

// RequestIDHeader carries a fresh id on every request.
const RequestIDHeader = "X-Request-ID"

// RestTransport is a Transport backed by a resty client.
type RestTransport struct {
	client *resty.Client
}

// RestOption configures a RestTransport.
type RestOption func(*resty.Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) RestOption {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

// WithToken sends token as a bearer credential.
func WithToken(token string) RestOption {
	return func(c *resty.Client) {
		if token != "" {
			c.SetAuthToken(token)
		}
	}
}

// NewRestTransport creates a transport rooted at baseURL.
func NewRestTransport(baseURL string, opts ...RestOption) *RestTransport {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(client)
	}
	return &RestTransport{client: client}
}

// Close releases the client's idle connections.
func (t *RestTransport) Close() error {
	return t.client.Close()
}

// Do sends the request and reads the whole body.
func (t *RestTransport) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	req := t.client.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, uuid.NewString()).
		SetDoNotParseResponse(true)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	data, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: read body: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &ResponseError{Status: status, Data: data}
	}
	return &Response{Status: status, Data: data}, nil
}

func readBody(resp *resty.Response) ([]byte, error) {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, nil
	}
	defer resp.RawResponse.Body.Close()
	return io.ReadAll(resp.RawResponse.Body)
}
