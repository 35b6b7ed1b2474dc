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

var (
	// ErrNotFound the record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable the store could not be reached
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnknownSensor a reading references a sensor that is not in the catalog
	ErrUnknownSensor = errors.New("unknown sensor")
)

const (
	pqForeignKeyViolation = "23503"
	pqClassConnection     = "08"
	pqClassOperator       = "57"
)

// classify maps driver errors onto the repository sentinels, keeping the cause
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqForeignKeyViolation:
			return fmt.Errorf("%s: %w: %w", op, ErrUnknownSensor, err)
		case pqErr.Code.Class() == pqClassConnection, pqErr.Code.Class() == pqClassOperator:
			return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
