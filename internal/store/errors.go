package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no asset has the requested id.
var ErrNotFound = errors.New("asset not found")

// ErrDuplicateSerial is matched by every DuplicateSerialError.
var ErrDuplicateSerial = errors.New("duplicate serial number")

// DuplicateSerialError reports a serial number already used by another asset.
type DuplicateSerialError struct {
	SerialNumber string
}

func (e *DuplicateSerialError) Error() string {
	return fmt.Sprintf("Asset with serial number '%s' already exists", e.SerialNumber)
}

func (e *DuplicateSerialError) Is(target error) bool {
	return target == ErrDuplicateSerial
}

const uniqueViolation = "23505"

// mapWriteError turns a unique violation into a DuplicateSerialError.
func mapWriteError(err error, serial string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateSerialError{SerialNumber: serial}
	}
	return err
}
