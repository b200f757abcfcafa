package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/samber/lo"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type invoiceRepo struct {
	s  *Store
	tx *state
}

var _ repository.InvoiceRepository = (*invoiceRepo)(nil)

func (r *invoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, dup := st.invoices[inv.ID]; dup {
			return domain.Duplicatef("factura %s duplicada", inv.ID)
		}
		st.invoices[inv.ID] = cloneInvoiceHeader(*inv)
		items := make([]entity.InvoiceItem, 0, len(inv.Items))
		for _, it := range inv.Items {
			items = append(items, *it)
		}
		st.items[inv.ID] = items
		return nil
	})
}

func (r *invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	st := r.s.view(r.tx)
	h, ok := st.invoices[id]
	if !ok {
		return nil, nil
	}
	return assemble(st, h), nil
}

func (r *invoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

// assemble cabecera + ítems por posición + pagos en orden de registro.
func assemble(st *state, h entity.Invoice) *entity.Invoice {
	inv := cloneInvoiceHeader(h)
	items := slices.Clone(st.items[h.ID])
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	inv.Items = make([]*entity.InvoiceItem, len(items))
	for i := range items {
		inv.Items[i] = &items[i]
	}
	for _, pid := range st.paysByInvoice[h.ID] {
		inv.Payments = append(inv.Payments, clonePayment(st.payments[pid]))
	}
	return &inv
}

func (r *invoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, ok := st.invoices[inv.ID]; !ok {
			return domain.NotFoundf("factura %s no encontrada", inv.ID)
		}
		st.invoices[inv.ID] = cloneInvoiceHeader(*inv)
		return nil
	})
}

func (r *invoiceRepo) List(_ context.Context, tenantID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	st := r.s.view(r.tx)
	headers := lo.Filter(lo.Values(st.invoices), func(h entity.Invoice, _ int) bool {
		return h.TenantID == tenantID &&
			(f.Status == "" || h.Status == f.Status) &&
			(f.CustomerID == "" || h.CustomerID == f.CustomerID)
	})
	sort.Slice(headers, func(i, j int) bool {
		if !headers[i].CreatedAt.Equal(headers[j].CreatedAt) {
			return headers[i].CreatedAt.After(headers[j].CreatedAt)
		}
		return headers[i].ID > headers[j].ID
	})
	return lo.Map(page(headers, f.Limit, f.Offset), func(h entity.Invoice, _ int) *entity.Invoice {
		return assemble(st, h)
	}), nil
}

func (r *invoiceRepo) CreateItem(ctx context.Context, it *entity.InvoiceItem) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		if _, ok := st.invoices[it.InvoiceID]; !ok {
			return domain.NotFoundf("factura %s no encontrada", it.InvoiceID)
		}
		st.items[it.InvoiceID] = append(st.items[it.InvoiceID], *it)
		return nil
	})
}

func (r *invoiceRepo) UpdateItem(ctx context.Context, it *entity.InvoiceItem) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		items := slices.Clone(st.items[it.InvoiceID])
		idx := slices.IndexFunc(items, func(x entity.InvoiceItem) bool { return x.ID == it.ID })
		if idx < 0 {
			return domain.NotFoundf("ítem %s no encontrado", it.ID)
		}
		items[idx] = *it
		st.items[it.InvoiceID] = items
		return nil
	})
}

func (r *invoiceRepo) DeleteItem(ctx context.Context, invoiceID, itemID string) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		items := st.items[invoiceID]
		idx := slices.IndexFunc(items, func(x entity.InvoiceItem) bool { return x.ID == itemID })
		if idx < 0 {
			return domain.NotFoundf("ítem %s no encontrado", itemID)
		}
		st.items[invoiceID] = slices.Delete(slices.Clone(items), idx, idx+1)
		return nil
	})
}
