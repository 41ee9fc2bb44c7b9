package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrTrainerNotFound        = errors.New("trainer not found")
	ErrTrainerProfileNotFound = errors.New("trainer profile not found")
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidState           = errors.New("invalid state")
	ErrImmutableState         = errors.New("session can no longer be edited")
	ErrTooEarly               = errors.New("too early to check in")
	ErrStaleVersion           = errors.New("session was modified concurrently")
)

// InvalidStateError reports an action attempted against a session in the
// wrong lifecycle status.
type InvalidStateError struct {
	Action string
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s session in status %s", e.Action, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFoundAs(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// translateWriteError maps constraint violations raised by postgres onto
// service errors.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.ExclusionViolation, pgerrcode.UniqueViolation:
		return ErrConflict
	case pgerrcode.CheckViolation, pgerrcode.InvalidDatetimeFormat, pgerrcode.DatetimeFieldOverflow:
		return ErrInvalidInput
	case pgerrcode.ForeignKeyViolation:
		return ErrNotFound
	default:
		return err
	}
}

// translateInsertError maps a failed session insert. A foreign key failure
// there means the trainer or the creating user vanished after the lookup.
func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		if pgErr.ConstraintName == "sessions_created_by_fkey" {
			return ErrUserNotFound
		}
		return ErrTrainerNotFound
	}
	return translateWriteError(err)
}
