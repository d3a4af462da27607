package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Status is the outcome carried by an Envelope.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// User-facing messages for failures the server did not describe.
const (
	MsgTryAgain   = "Something went wrong, please try again later."
	MsgUnexpected = "Unexpected response from server."
)

// Envelope is the uniform result of every resource operation.
type Envelope[T any] struct {
	Status  Status
	Message string
	Data    T
}

// OK reports whether the operation succeeded.
func (e Envelope[T]) OK() bool { return e.Status == StatusSuccess }

// Reason classifies a Failure.
type Reason int

const (
	// ReasonTransport means no response reached the caller.
	ReasonTransport Reason = iota
	// ReasonValidation means the server rejected the input field by field.
	ReasonValidation
	// ReasonUnexpected means a success response lacked the expected fields.
	ReasonUnexpected
	// ReasonRejected is any other non-success status.
	ReasonRejected
)

func (r Reason) String() string {
	switch r {
	case ReasonTransport:
		return "transport"
	case ReasonValidation:
		return "validation"
	case ReasonUnexpected:
		return "unexpected"
	case ReasonRejected:
		return "rejected"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// ErrUnexpectedShape indicates a success response missing its payload.
var ErrUnexpectedShape = errors.New("api: unexpected response shape")

// Failure is a classified operation error. Message is safe to show a user.
type Failure struct {
	Reason  Reason
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("api: %s failure: %s", f.Reason, f.Message)
	}
	return fmt.Sprintf("api: %s failure: %s: %v", f.Reason, f.Message, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Classify turns any error from a Transport or a decode step into a Failure.
func Classify(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, ErrUnexpectedShape) {
		return &Failure{Reason: ReasonUnexpected, Message: MsgUnexpected, Err: err}
	}
	var re *ResponseError
	if !errors.As(err, &re) {
		return &Failure{Reason: ReasonTransport, Message: MsgTryAgain, Err: err}
	}
	if first := gjson.GetBytes(re.Data, "errors.0.message"); first.Exists() && first.String() != "" {
		return &Failure{Reason: ReasonValidation, Status: re.Status, Message: first.String(), Err: err}
	}
	msg := strings.TrimSpace(gjson.GetBytes(re.Data, "message").String())
	if msg == "" {
		msg = MsgTryAgain
	}
	return &Failure{Reason: ReasonRejected, Status: re.Status, Message: msg, Err: err}
}

// failed builds the failed envelope for err.
func failed[T any](err error) Envelope[T] {
	return Envelope[T]{Status: StatusFailed, Message: Classify(err).Message}
}

// succeeded reports whether status counts as success. Only 200 and 201 do.
func succeeded(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}

// decodeField decodes the JSON value at path into out. A missing field or
// one of the wrong JSON type is ErrUnexpectedShape.
func decodeField(data []byte, path string, array bool, out any) error {
	res := gjson.GetBytes(data, path)
	if !res.Exists() || (array && !res.IsArray()) || (!array && !res.IsObject()) {
		return fmt.Errorf("%w: missing %q", ErrUnexpectedShape, path)
	}
	if err := json.Unmarshal([]byte(res.Raw), out); err != nil {
		return fmt.Errorf("%w: decode %q: %v", ErrUnexpectedShape, path, err)
	}
	return nil
}

// message returns the server's message field, or fallback.
func message(data []byte, fallback string) string {
	if msg := strings.TrimSpace(gjson.GetBytes(data, "message").String()); msg != "" {
		return msg
	}
	return fallback
}

// gjsonInt returns the integer at path, or fallback when it is absent.
func gjsonInt(data []byte, path string, fallback int64) int64 {
	res := gjson.GetBytes(data, path)
	if !res.Exists() || res.Type != gjson.Number {
		return fallback
	}
	return res.Int()
}
