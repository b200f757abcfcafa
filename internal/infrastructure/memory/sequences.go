package memory

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type sequenceRepo struct {
	s  *Store
	tx *state
}

var _ repository.SequenceRepository = (*sequenceRepo)(nil)

// Next el incremento vive en la copia de la unidad: si esta se revierte, el valor no se consume.
func (r *sequenceRepo) Next(ctx context.Context, tenantID, name string) (int64, error) {
	var value int64
	err := r.s.apply(ctx, r.tx, func(st *state) error {
		k := key(tenantID, name)
		value = st.sequences[k] + 1
		st.sequences[k] = value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (r *sequenceRepo) Peek(_ context.Context, tenantID, name string) (int64, error) {
	return r.s.view(r.tx).sequences[key(tenantID, name)], nil
}
