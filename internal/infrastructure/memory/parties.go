package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type customerRepo struct {
	s  *Store
	tx *state
}

var _ repository.CustomerRepository = (*customerRepo)(nil)

func (r *customerRepo) Create(ctx context.Context, c *entity.Customer) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, dup := st.customers[c.ID]; dup {
			return domain.Duplicatef("cliente %s duplicado", c.ID)
		}
		st.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.s.view(r.tx).customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *customerRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.Customer, error) {
	var all []entity.Customer
	for _, c := range r.s.view(r.tx).customers {
		if c.TenantID == tenantID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	out := make([]*entity.Customer, 0)
	for _, c := range page(all, limit, offset) {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

func (r *customerRepo) Update(ctx context.Context, c *entity.Customer) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, ok := st.customers[c.ID]; !ok {
			return domain.NotFoundf("cliente %s no encontrado", c.ID)
		}
		st.customers[c.ID] = *c
		return nil
	})
}

type companyRepo struct {
	s  *Store
	tx *state
}

var _ repository.CompanyRepository = (*companyRepo)(nil)

func (r *companyRepo) Create(ctx context.Context, c *entity.Company) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, dup := st.companies[c.ID]; dup {
			return domain.Duplicatef("empresa %s duplicada", c.ID)
		}
		st.companies[c.ID] = *c
		return nil
	})
}

func (r *companyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r.s.view(r.tx).companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *companyRepo) Update(ctx context.Context, c *entity.Company) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, ok := st.companies[c.ID]; !ok {
			return domain.NotFoundf("empresa %s no encontrada", c.ID)
		}
		st.companies[c.ID] = *c
		return nil
	})
}
