package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrMethodNotFound  = errors.New("method not found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvocation      = errors.New("invocation failed")
	ErrLifecycleMisuse = errors.New("lifecycle misuse")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Code classifies a failed call for the caller.
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeInvalidRequest    Code = "INVALID_REQUEST"
	CodeInvocationFailure Code = "INVOCATION_FAILURE"
	CodeLifecycleMisuse   Code = "LIFECYCLE_MISUSE"
)

// Failure is the structured rejection returned for a failed call.
type Failure struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Is lets callers match a Failure against the sentinel for its code.
func (f *Failure) Is(target error) bool {
	switch f.Code {
	case CodeNotFound:
		return target == ErrMethodNotFound
	case CodeInvalidRequest:
		return target == ErrInvalidRequest
	case CodeLifecycleMisuse:
		return target == ErrLifecycleMisuse
	case CodeInvocationFailure:
		return target == ErrInvocation
	}
	return false
}

// FailureFromError converts any error into a Failure, keeping its message.
func FailureFromError(err error) *Failure {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	code := CodeInvocationFailure
	switch {
	case errors.Is(err, ErrMethodNotFound):
		code = CodeNotFound
	case errors.Is(err, ErrInvalidRequest):
		code = CodeInvalidRequest
	case errors.Is(err, ErrLifecycleMisuse):
		code = CodeLifecycleMisuse
	}
	return &Failure{Code: code, Message: err.Error()}
}

// Result is the outcome of one call. Exactly one of Value or Failure is meaningful:
// Failure is nil on success.
type Result struct {
	Value   any
	Failure *Failure
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

func success(value any) Result {
	return Result{Value: value}
}

func failure(err error) Result {
	return Result{Failure: FailureFromError(err)}
}

func panicFailure(method string, recovered any) Result {
	return Result{Failure: &Failure{
		Code:    CodeInvocationFailure,
		Message: fmt.Sprintf("%s: panic: %v", method, recovered),
	}}
}
