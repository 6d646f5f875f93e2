// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const errorDomain = "intromatch.v1"

// Map converts engine/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	code, reason := classify(err)
	st := status.New(code, err.Error())
	if reason == "" {
		return st.Err()
	}
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// Reason extracts the ErrorInfo reason attached by Map, if any.
func Reason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

// HTTPStatus returns the HTTP status code for err.
// Status errors produced by Map keep their gRPC code.
func HTTPStatus(err error) int {
	code, _ := classify(err)
	if st, ok := status.FromError(err); ok && err != nil {
		code = st.Code()
	}
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func classify(err error) (codes.Code, string) {
	switch {
	case err == nil:
		return codes.OK, ""
	case errors.Is(err, ErrSelfDecision):
		return codes.InvalidArgument, "SELF_DECISION"
	case errors.Is(err, ErrInvalidPair):
		return codes.InvalidArgument, "INVALID_PAIR"
	case errors.Is(err, ErrInvalidArgument):
		return codes.InvalidArgument, "INVALID_ARGUMENT"
	case errors.Is(err, ErrProfileIncomplete):
		return codes.FailedPrecondition, "PROFILE_INCOMPLETE"
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return codes.NotFound, "NOT_FOUND"
	case errors.Is(err, ErrInvariantViolation):
		return codes.Internal, "INVARIANT_VIOLATION"
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded, ""
	case errors.Is(err, context.Canceled):
		return codes.Canceled, ""
	case errors.Is(err, ErrPersistence):
		return codes.Unavailable, "PERSISTENCE"
	default:
		return codes.Internal, ""
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
