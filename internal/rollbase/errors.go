package rollbase

import (
	"errors"
	"fmt"
)

// ErrAuthFailure is returned when no usable session token could be obtained.
var ErrAuthFailure = errors.New("rollbase: authentication failed")

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrTransport = errors.New("rollbase: transport failure")
	ErrQuery     = errors.New("rollbase: query failure")
	ErrCreate    = errors.New("rollbase: create failure")
	ErrUpdate    = errors.New("rollbase: update failure")
)

// Kind classifies a failed record store call.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindQuery
	KindCreate
	KindUpdate
)

func (k Kind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindQuery:
		return ErrQuery
	case KindCreate:
		return ErrCreate
	case KindUpdate:
		return ErrUpdate
	}
	return nil
}

// Error describes a failed call to the record store.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := "rollbase: failure"
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	msg += " (" + e.Op + ")"
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}
