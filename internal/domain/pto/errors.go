package pto

import (
	"context"
	"errors"

	"ptoinfo/internal/domain/leave"
)

type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindService ErrorKind = "service"
	KindUnknown ErrorKind = "unknown"
)

const (
	SourceLeaveRecords   = "leave_records"
	SourceLeaveSummaries = "leave_summaries"
)

const (
	errorMessagePrefix  = "Error loading PTO information: "
	unknownErrorMessage = "Unknown error occurred"
)

// LoadError is the failure kept by a Controller after a load fails.
type LoadError struct {
	Kind    ErrorKind
	Message string
	Source  string
	Err     error
}

func (e *LoadError) Error() string {
	return e.Source + ": " + string(e.Kind) + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Detail is the user-facing part of the error message.
func (e *LoadError) Detail() string {
	if e.Kind == KindUnknown || e.Message == "" {
		return unknownErrorMessage
	}
	return e.Message
}

// ErrorMessage renders err for display. A nil error renders as "".
func ErrorMessage(err *LoadError) string {
	if err == nil {
		return ""
	}
	return errorMessagePrefix + err.Detail()
}

func newLoadError(source string, err error) *LoadError {
	out := &LoadError{Kind: KindUnknown, Source: source, Err: err}

	var fetchErr *leave.FetchError
	switch {
	case errors.As(err, &fetchErr):
		out.Message = fetchErr.Message
		switch fetchErr.Kind {
		case leave.KindNetwork:
			out.Kind = KindNetwork
		case leave.KindService:
			out.Kind = KindService
		}
	case errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindNetwork
		out.Message = "timeout"
	case errors.Is(err, context.Canceled):
		out.Kind = KindNetwork
		out.Message = "request cancelled"
	}
	return out
}
