package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind classifies a failed call
type Kind int

const (
	// KindOther is any failure not listed below
	KindOther Kind = iota
	// KindAlreadyExists means the resource is already registered
	KindAlreadyExists
	// KindNotFound means the resource is not registered
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already exists"
	case KindNotFound:
		return "not found"
	default:
		return "other"
	}
}

// Error is a failure reported by the configuration API
type Error struct {
	Status  int
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	return e.Message
}

// IsAlreadyExists reports whether err, or anything it wraps, is an already exists failure
func IsAlreadyExists(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindAlreadyExists
}

// IsNotFound reports whether err, or anything it wraps, is a not found failure
func IsNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindNotFound
}

// decodeError reads {"errors":[{"message":"..."}]} from an error reply.
// Older gateways answer a duplicate with 400 rather than 409, so the message is checked as well.
func decodeError(status int, body []byte) *Error {

	msg := gjson.GetBytes(body, "errors.0.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	e := &Error{Status: status, Message: msg, Kind: KindOther}
	switch {
	case status == http.StatusConflict, strings.Contains(strings.ToLower(msg), "already exists"):
		e.Kind = KindAlreadyExists
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	}
	return e
}
