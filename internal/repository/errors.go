package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

const pqQueryCanceled = "57014"

// classify wraps a driver error with its error kind. Errors that fit no kind
// are wrapped with the operation name only.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if kind := kindOf(ctx, err); kind != nil {
		return fmt.Errorf("%s: %w: %w", op, kind, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func kindOf(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqQueryCanceled:
			return ErrTimeout
		case pqErr.Code.Class() == "23":
			return ErrConstraintViolation
		case pqErr.Code.Class() == "08":
			return ErrConnectionFailure
		case pqErr.Code.Class() == "22":
			return ErrInvalidValue
		}
		return nil
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return ErrConnectionFailure
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrConnectionFailure
	}
	return nil
}
