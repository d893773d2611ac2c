package errors

import (
	"context"
	"database/sql/driver"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts repo/infra errors into status errors with a stable code.
// Keeps the service layer clean by centralizing error classification.
//
// Codes:
//   - NotFound: the row for an external identity does not exist.
//   - Aborted: a uniqueness-constraint race the upsert path could not
//     merge; transient, worth a single caller retry.
//   - Unavailable: the store cannot be reached.
func Map(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		// already classified by a lower layer
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return status.Error(codes.Aborted, "concurrent write conflict")

	case errors.Is(err, driver.ErrBadConn):
		return status.Error(codes.Unavailable, "database unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates an InvalidArgument error for bad input.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// NotFound creates a NotFound error for a missing external identity.
func NotFound(msg string) error {
	return status.Error(codes.NotFound, msg)
}

// IsNotFound reports whether err carries the NotFound code.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
