package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeTimeout     ErrorType = "TIMEOUT"
	ErrTypeAPI         ErrorType = "API"
	ErrTypeNetwork     ErrorType = "NETWORK"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypePersistence ErrorType = "PERSISTENCE"
	ErrTypeInternal    ErrorType = "INTERNAL"
)

// TimeoutMessage is shown when the client-side deadline fires. It is kept apart
// from network failures so users can tell a slow backend from a dead link.
const TimeoutMessage = "request timed out, check the network connection or whether the backend is running"

type DomainError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
	Stack      []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Timeout(err error) *DomainError {
	return New(ErrTypeTimeout, TimeoutMessage, err)
}

// API reports a failure status from the backend. message is the backend's own
// text when it sent one.
func API(statusCode int, message string, err error) *DomainError {
	e := New(ErrTypeAPI, message, err)
	e.StatusCode = statusCode
	return e
}

func Network(message string, err error) *DomainError {
	return New(ErrTypeNetwork, message, err)
}

func Validation(message string) *DomainError {
	return New(ErrTypeValidation, message, nil)
}

func Persistence(message string, err error) *DomainError {
	return New(ErrTypePersistence, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

// TypeOf classifies err. Bare context deadline errors count as timeouts and
// anything unrecognised as internal.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	return ErrTypeInternal
}

func Is(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// UserMessage returns the text suitable for a transient notice.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Message
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return TimeoutMessage
	}
	return err.Error()
}
