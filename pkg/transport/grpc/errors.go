// Package grpc exposes orchestrator.Engine's Query/Ingest operations over
// a gRPC transport (§1, SPEC_FULL.md DOMAIN STACK — "optional gRPC façade
// over the orchestrator"). It is adapted from pkg/grpc's client dialer
// and error-mapping utilities; pkg/middleware/remote/grpc's service layer
// could not be adapted because it depends on a generated protobuf package
// (calquepb) absent from this codebase (see DESIGN.md).
package grpc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iamabhishek-n/vectra-go/pkg/calque"
	"github.com/iamabhishek-n/vectra-go/pkg/helpers"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error wraps gRPC errors with additional context and status codes. It
// embeds calque.Error to provide trace_id and request_id automatically.
type Error struct {
	calqueErr *calque.Error
	Code      codes.Code
	Details   []interface{}
}

func (e *Error) Error() string {
	msg := e.calqueErr.Message()
	if e.calqueErr.Cause() != nil {
		return fmt.Sprintf("grpc error [%s]: %s: %v", e.Code, msg, e.calqueErr.Cause())
	}
	return fmt.Sprintf("grpc error [%s]: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.calqueErr.Unwrap() }

func (e *Error) TraceID() string { return e.calqueErr.TraceID() }

func (e *Error) RequestID() string { return e.calqueErr.RequestID() }

// IsRetryable reports whether the gRPC code is one the client should retry.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// LogAttrs returns attributes including the gRPC code, trace_id and
// request_id for structured logging.
func (e *Error) LogAttrs() []slog.Attr {
	attrs := e.calqueErr.LogAttrs()
	attrs = append(attrs, slog.String("grpc_code", e.Code.String()))
	if len(e.Details) > 0 {
		attrs = append(attrs, slog.Any("grpc_details", e.Details))
	}
	return attrs
}

// WrapError wraps a gRPC error with trace/request metadata via calque,
// through the shared helpers.WrapError so trace propagation stays
// consistent with the rest of the codebase's context-aware error wrapping.
func WrapError(ctx context.Context, err error, message string, details ...interface{}) *Error {
	if err == nil {
		return nil
	}
	calqueErr, _ := helpers.WrapError(ctx, err, message).(*calque.Error)
	code := codes.Unknown
	if st, ok := status.FromError(err); ok {
		code = st.Code()
	}
	return &Error{calqueErr: calqueErr, Code: code, Details: details}
}

// IsGRPCError reports whether err carries a gRPC status.
func IsGRPCError(err error) bool {
	_, ok := status.FromError(err)
	return ok
}

// GetGRPCCode returns the gRPC status code carried by err.
func GetGRPCCode(err error) codes.Code {
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Unknown
}

// NewUnavailableError reports the store or backend could not be reached.
func NewUnavailableError(ctx context.Context, message string, err error) *Error {
	return &Error{calqueErr: calque.WrapErr(ctx, err, message), Code: codes.Unavailable}
}

// NewDeadlineExceededError reports ctx expired before the pipeline finished.
func NewDeadlineExceededError(ctx context.Context, message string, err error) *Error {
	return &Error{calqueErr: calque.WrapErr(ctx, err, message), Code: codes.DeadlineExceeded}
}

// NewInvalidArgumentError reports a malformed QueryRequest/ingest path.
func NewInvalidArgumentError(ctx context.Context, message string, err error) *Error {
	return &Error{calqueErr: calque.WrapErr(ctx, err, message), Code: codes.InvalidArgument}
}

// NewInternalError reports an unexpected orchestrator failure.
func NewInternalError(ctx context.Context, message string, err error) *Error {
	return &Error{calqueErr: calque.WrapErr(ctx, err, message), Code: codes.Internal}
}

// toStatusError maps an orchestrator error into a *status.Status error
// the client can inspect with status.FromError, preserving the message.
func toStatusError(ctx context.Context, err error, fallback codes.Code) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(fallback, err.Error())
}
