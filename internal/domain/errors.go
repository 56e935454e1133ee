package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

const (
	KindBadRequest            Kind = "bad_request"
	KindNotImplemented        Kind = "not_implemented"
	KindCredentialUnavailable Kind = "credential_unavailable"
	KindAuthenticationFailed  Kind = "authentication_failed"
	KindUpstreamUnavailable   Kind = "upstream_unavailable"
	KindUpstreamError         Kind = "upstream_error"
)

// Error is the single error type crossing the app/http boundary.
type Error struct {
	Kind   Kind
	Msg    string
	Status int             // upstream HTTP status, UpstreamError only
	Body   json.RawMessage // upstream error payload, if it was JSON
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, domain.ErrBadRequest).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrBadRequest            = &Error{Kind: KindBadRequest}
	ErrNotImplemented        = &Error{Kind: KindNotImplemented}
	ErrCredentialUnavailable = &Error{Kind: KindCredentialUnavailable}
	ErrAuthenticationFailed  = &Error{Kind: KindAuthenticationFailed}
	ErrUpstreamUnavailable   = &Error{Kind: KindUpstreamUnavailable}
	ErrUpstreamError         = &Error{Kind: KindUpstreamError}
)

func BadRequest(msg string) error { return &Error{Kind: KindBadRequest, Msg: msg} }

func NotImplemented(msg string) error { return &Error{Kind: KindNotImplemented, Msg: msg} }

func CredentialUnavailable(msg string, err error) error {
	return &Error{Kind: KindCredentialUnavailable, Msg: msg, Err: err}
}

func AuthenticationFailed(msg string, err error) error {
	return &Error{Kind: KindAuthenticationFailed, Msg: msg, Err: err}
}

func UpstreamUnavailable(msg string, err error) error {
	return &Error{Kind: KindUpstreamUnavailable, Msg: msg, Err: err}
}

func UpstreamError(status int, body json.RawMessage, msg string) error {
	return &Error{Kind: KindUpstreamError, Status: status, Body: body, Msg: msg}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
