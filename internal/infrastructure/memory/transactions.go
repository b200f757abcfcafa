package memory

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type transactionRepo struct {
	s  *Store
	tx *state
}

var _ repository.TransactionRepository = (*transactionRepo)(nil)

func (r *transactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, dup := st.transactions[t.ID]; dup {
			return domain.Duplicatef("movimiento %s duplicado", t.ID)
		}
		st.transactions[t.ID] = *cloneTransaction(*t)
		st.txByAccount[t.AccountID] = append(st.txByAccount[t.AccountID], t.ID)
		return nil
	})
}

func (r *transactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	t, ok := r.s.view(r.tx).transactions[id]
	if !ok {
		return nil, nil
	}
	return cloneTransaction(t), nil
}

func (r *transactionRepo) ListByAccount(_ context.Context, accountID string) ([]*entity.Transaction, error) {
	st := r.s.view(r.tx)
	ids := st.txByAccount[accountID]
	out := make([]*entity.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneTransaction(st.transactions[id]))
	}
	return out, nil
}

func (r *transactionRepo) ListByTenant(_ context.Context, tenantID string, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	st := r.s.view(r.tx)
	all := lo.Filter(lo.Values(st.transactions), func(t entity.Transaction, _ int) bool {
		switch {
		case t.TenantID != tenantID:
			return false
		case f.AccountID != "" && t.AccountID != f.AccountID:
			return false
		case f.Reference != "" && t.Reference != f.Reference:
			return false
		case f.From != nil && t.EffectiveDate.Before(*f.From):
			return false
		case f.To != nil && t.EffectiveDate.After(*f.To):
			return false
		}
		return true
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return lo.Map(page(all, f.Limit, f.Offset), func(t entity.Transaction, _ int) *entity.Transaction {
		return cloneTransaction(t)
	}), nil
}

func (r *transactionRepo) CountByAccount(_ context.Context, accountID string) (int, error) {
	return len(r.s.view(r.tx).txByAccount[accountID]), nil
}

func (r *transactionRepo) MarkReconciled(ctx context.Context, accountID string, at time.Time) (int, error) {
	n := 0
	err := r.s.apply(ctx, r.tx, func(st *state) error {
		for _, id := range st.txByAccount[accountID] {
			t := st.transactions[id]
			if t.Reconciled {
				continue
			}
			t.Reconciled = true
			t.ReconciledAt = &at
			st.transactions[id] = t
			n++
		}
		return nil
	})
	return n, err
}

func (r *transactionRepo) SetReversedBy(ctx context.Context, id, reversalID string) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		t, ok := st.transactions[id]
		if !ok {
			return domain.NotFoundf("movimiento %s no encontrado", id)
		}
		if t.ReversedBy != "" {
			return domain.Statef("el movimiento %s ya fue revertido", id)
		}
		t.ReversedBy = reversalID
		st.transactions[id] = t
		return nil
	})
}
