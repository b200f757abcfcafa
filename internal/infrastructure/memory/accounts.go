package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type accountRepo struct {
	s  *Store
	tx *state
}

var _ repository.AccountRepository = (*accountRepo)(nil)

func (r *accountRepo) Create(ctx context.Context, a *entity.Account) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		code := key(a.TenantID, a.Code)
		if _, dup := st.accountCodes[code]; dup {
			return domain.Duplicatef("ya existe una cuenta con código %s", a.Code)
		}
		if _, dup := st.accounts[a.ID]; dup {
			return domain.Duplicatef("cuenta %s duplicada", a.ID)
		}
		st.accounts[a.ID] = *cloneAccount(*a)
		st.accountCodes[code] = a.ID
		return nil
	})
}

func (r *accountRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	a, ok := r.s.view(r.tx).accounts[id]
	if !ok {
		return nil, nil
	}
	return cloneAccount(a), nil
}

// GetForUpdate los escritores ya están serializados por el mutex del store.
func (r *accountRepo) GetForUpdate(ctx context.Context, id string) (*entity.Account, error) {
	return r.GetByID(ctx, id)
}

// LockHierarchy no-op: el mutex del store ya serializa a los escritores.
func (r *accountRepo) LockHierarchy(context.Context, string) error { return nil }

func (r *accountRepo) GetByCode(_ context.Context, tenantID, code string) (*entity.Account, error) {
	st := r.s.view(r.tx)
	id, ok := st.accountCodes[key(tenantID, code)]
	if !ok {
		return nil, nil
	}
	return cloneAccount(st.accounts[id]), nil
}

func (r *accountRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.Account, error) {
	st := r.s.view(r.tx)
	out := make([]*entity.Account, 0)
	for _, a := range st.accounts {
		if a.TenantID == tenantID {
			out = append(out, cloneAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *accountRepo) Update(ctx context.Context, a *entity.Account) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		cur, ok := st.accounts[a.ID]
		if !ok {
			return domain.NotFoundf("cuenta %s no encontrada", a.ID)
		}
		next := *cloneAccount(*a)
		// saldo y versión solo cambian por UpdateBalance
		next.Balance, next.Version, next.TypeLocked = cur.Balance, cur.Version, cur.TypeLocked
		next.Code, next.TenantID, next.CreatedAt = cur.Code, cur.TenantID, cur.CreatedAt
		next.UpdatedAt = time.Now().UTC()
		st.accounts[a.ID] = next
		a.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (r *accountRepo) UpdateBalance(ctx context.Context, a *entity.Account, expectedVersion int64) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		cur, ok := st.accounts[a.ID]
		if !ok {
			return domain.NotFoundf("cuenta %s no encontrada", a.ID)
		}
		if cur.Version != expectedVersion {
			return domain.Conflictf("cuenta %s: versión %d, esperada %d", a.ID, cur.Version, expectedVersion)
		}
		cur.Balance = a.Balance
		cur.TypeLocked = cur.TypeLocked || a.TypeLocked
		cur.Version = expectedVersion + 1
		cur.UpdatedAt = time.Now().UTC()
		st.accounts[a.ID] = cur
		a.Version, a.TypeLocked, a.UpdatedAt = cur.Version, cur.TypeLocked, cur.UpdatedAt
		return nil
	})
}

func (r *accountRepo) CountChildren(_ context.Context, id string) (int, error) {
	n := 0
	for _, a := range r.s.view(r.tx).accounts {
		if a.ParentID != nil && *a.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r *accountRepo) Delete(ctx context.Context, id string) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return domain.NotFoundf("cuenta %s no encontrada", id)
		}
		delete(st.accounts, id)
		delete(st.accountCodes, key(a.TenantID, a.Code))
		return nil
	})
}
