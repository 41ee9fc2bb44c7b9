package services

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateInsertErrorNamesMissingParent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "trainer removed",
			err:  &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "sessions_trainer_id_fkey"},
			want: ErrTrainerNotFound,
		},
		{
			name: "creator removed",
			err:  &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "sessions_created_by_fkey"},
			want: ErrUserNotFound,
		},
		{
			name: "overlap",
			err:  &pgconn.PgError{Code: pgerrcode.ExclusionViolation, ConstraintName: "sessions_no_overlap"},
			want: ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translateInsertError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTranslateWriteErrorPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection reset")
	if got := translateWriteError(plain); got != plain {
		t.Fatalf("expected error to pass through, got %v", got)
	}
}
