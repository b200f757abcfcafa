package postgres

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores por tenant y nombre.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa con un upsert atómico. La fila queda bloqueada hasta el fin de la
// transacción, así que los emisores concurrentes del mismo tenant se serializan y un
// rollback devuelve el valor.
func (r *SequenceRepo) Next(ctx context.Context, tenantID, name string) (int64, error) {
	var value int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO sequences (tenant_id, name, last_value, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (tenant_id, name)
		DO UPDATE SET last_value = sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`, tenantID, name).Scan(&value)
	if err != nil {
		return 0, classify(err, "next sequence")
	}
	return value, nil
}

// Peek último valor confirmado; 0 si el contador no existe.
func (r *SequenceRepo) Peek(ctx context.Context, tenantID, name string) (int64, error) {
	var value int64
	err := r.q.QueryRow(ctx, `SELECT last_value FROM sequences WHERE tenant_id = $1 AND name = $2`, tenantID, name).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, classify(err, "peek sequence")
	}
	return value, nil
}
