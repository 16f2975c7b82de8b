package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures crossing the orchestrator and aggregator boundary.
type ErrorKind string

const (
	KindNetwork             ErrorKind = "NETWORK"
	KindMalformedResponse   ErrorKind = "MALFORMED_RESPONSE"
	KindStaleRequest        ErrorKind = "STALE_REQUEST"
	KindUnplaceableManeuver ErrorKind = "UNPLACEABLE_MANEUVER"
	KindInvalidRequest      ErrorKind = "INVALID_REQUEST"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInternal            ErrorKind = "INTERNAL"
)

// Side names the collaborator a failure came from.
type Side string

const (
	SideRouting Side = "routing"
	SideBackend Side = "backend"
	SideRender  Side = "render"
	SideSession Side = "session"
	SideStore   Side = "store"
)

type Error struct {
	Kind    ErrorKind
	Side    Side
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s]", e.Kind)
	if e.Side != "" {
		msg += " " + string(e.Side) + ":"
	}
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind, and on Side when the target names one, so callers can
// write errors.Is(err, domain.ErrNetwork).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Side == "" || t.Side == e.Side
}

var (
	ErrNetwork             = &Error{Kind: KindNetwork, Message: "network failure"}
	ErrMalformedResponse   = &Error{Kind: KindMalformedResponse, Message: "malformed response"}
	ErrStaleRequest        = &Error{Kind: KindStaleRequest, Message: "stale request"}
	ErrUnplaceableManeuver = &Error{Kind: KindUnplaceableManeuver, Message: "unplaceable maneuver"}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
)

func NewError(kind ErrorKind, side Side, message string, cause error) *Error {
	return &Error{Kind: kind, Side: side, Message: message, Cause: cause}
}

// KindOf extracts the ErrorKind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// SideOf extracts the failing Side of err, or "" when unknown.
func SideOf(err error) Side {
	var de *Error
	if errors.As(err, &de) {
		return de.Side
	}
	return ""
}
