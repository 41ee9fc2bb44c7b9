package repository

import "context"

type CodeCounterRepository struct {
	db DBTX
}

func NewCodeCounterRepository(db DBTX) *CodeCounterRepository {
	return &CodeCounterRepository{db: db}
}

// NextSessionSequence increments and returns the per-day session counter.
// The row lock taken by the upsert serialises concurrent callers on the same day.
func (r *CodeCounterRepository) NextSessionSequence(ctx context.Context, day string) (int, error) {
	query := `
		INSERT INTO session_code_counters (day, value)
		VALUES ($1::text::date, 1)
		ON CONFLICT (day) DO UPDATE
		SET value = session_code_counters.value + 1
		RETURNING value
	`
	var value int
	if err := r.db.QueryRow(ctx, query, day).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
