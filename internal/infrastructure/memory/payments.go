package memory

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type paymentRepo struct {
	s  *Store
	tx *state
}

var _ repository.PaymentRepository = (*paymentRepo)(nil)

func (r *paymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, dup := st.payments[p.ID]; dup {
			return domain.Duplicatef("pago %s duplicado", p.ID)
		}
		st.payments[p.ID] = *clonePayment(*p)
		st.paysByInvoice[p.InvoiceID] = append(st.paysByInvoice[p.InvoiceID], p.ID)
		return nil
	})
}

func (r *paymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	p, ok := r.s.view(r.tx).payments[id]
	if !ok {
		return nil, nil
	}
	return clonePayment(p), nil
}

func (r *paymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, ok := st.payments[p.ID]; !ok {
			return domain.NotFoundf("pago %s no encontrado", p.ID)
		}
		st.payments[p.ID] = *clonePayment(*p)
		return nil
	})
}

func (r *paymentRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.Payment, error) {
	st := r.s.view(r.tx)
	out := make([]*entity.Payment, 0)
	for _, id := range st.paysByInvoice[invoiceID] {
		out = append(out, clonePayment(st.payments[id]))
	}
	return out, nil
}
