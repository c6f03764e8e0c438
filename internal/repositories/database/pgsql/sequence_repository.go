package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
)

type PgxSequenceRepository struct {
	BaseRepository
}

// newPgxSequenceRepository creates a new repository issuing SACCO-scoped
// sequence values.
func newPgxSequenceRepository(pool *pgxpool.Pool) *PgxSequenceRepository {
	return &PgxSequenceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceSource = (*PgxSequenceRepository)(nil)

// Next atomically increments and returns the named sequence for the SACCO.
// The upsert creates the row on first use; the row lock taken by the UPDATE
// serializes concurrent callers, so no two receive the same value.
func (r *PgxSequenceRepository) Next(ctx context.Context, saccoID, name string) (int64, error) {
	query := `
		INSERT INTO sequences (sacco_id, name, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (sacco_id, name)
		DO UPDATE SET value = sequences.value + 1
		RETURNING value;
	`
	var value int64
	if err := r.Pool.QueryRow(ctx, query, saccoID, name).Scan(&value); err != nil {
		// Flag transient so the number generator retries.
		return 0, fmt.Errorf("%w: failed to advance sequence %s: %v", apperrors.ErrTransient, name, err)
	}
	return value, nil
}
