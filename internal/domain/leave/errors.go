package leave

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrLeaveTypeNotFound = errors.New("leave type not found")
	ErrInvalidRequest    = errors.New("invalid leave request")
)

type FetchKind string

const (
	KindNetwork FetchKind = "network"
	KindService FetchKind = "service"
	KindUnknown FetchKind = "unknown"
)

// FetchError is the only error shape returned by the read operations of
// Tenant. Message is safe to show to end users.
type FetchError struct {
	Kind    FetchKind
	Message string
	Op      string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": " + e.Message + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func classifyFetchError(op string, err error) error {
	if err == nil {
		return nil
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	out := &FetchError{Kind: KindUnknown, Op: op, Err: err}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err):
		out.Kind = KindNetwork
		out.Message = "timeout"
	case errors.Is(err, context.Canceled):
		out.Kind = KindNetwork
		out.Message = "request cancelled"
	case errors.As(err, &connectErr) || errors.As(err, &netErr):
		out.Kind = KindNetwork
		out.Message = "leave service unavailable"
	case errors.As(err, &pgErr):
		out.Kind = KindService
		out.Message = "leave service rejected the request"
	}
	return out
}
