// Package billing casos de uso de facturación: borradores, líneas, emisión con
// consecutivo y asientos, anulación, duplicado y pagos. Incluye clientes y perfil de empresa.
package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/invoicing"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
	"github.com/jhoicas/Ledger-api/pkg/retry"
)

// Config parámetros de facturación.
type Config struct {
	SequenceName     string
	PaymentTermsDays int
	DefaultCurrency  string
}

// InvoiceUseCase motor de facturas.
type InvoiceUseCase struct {
	store   repository.Store
	poster  LedgerPoster
	numbers NumberIssuer
	audit   *audit.Service
	retry   *retry.Retrier
	log     zerolog.Logger
	cfg     Config
	now     func() time.Time
}

// Option configura el caso de uso.
type Option func(*InvoiceUseCase)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(uc *InvoiceUseCase) { uc.now = now }
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	store repository.Store,
	poster LedgerPoster,
	numbers NumberIssuer,
	auditSvc *audit.Service,
	retrier *retry.Retrier,
	log zerolog.Logger,
	cfg Config,
	opts ...Option,
) *InvoiceUseCase {
	if cfg.SequenceName == "" {
		cfg.SequenceName = "invoice"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	uc := &InvoiceUseCase{
		store:   store,
		poster:  poster,
		numbers: numbers,
		audit:   auditSvc,
		retry:   retrier,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// InvoiceView factura con su estado efectivo (OVERDUE incluido) y el monto pagado.
type InvoiceView struct {
	Invoice *entity.Invoice
	Status  entity.InvoiceStatus
	Paid    money.Money
}

func (uc *InvoiceUseCase) atomic(ctx context.Context, name string, fn func(ctx context.Context, r repository.Repos) error) error {
	return uc.retry.Do(ctx, name, func(ctx context.Context) error {
		return uc.store.Run(ctx, fn)
	})
}

func (uc *InvoiceUseCase) failed(ctx context.Context, ev audit.Event, err error) error {
	if err != nil {
		uc.audit.RecordFailure(ctx, ev, err)
	}
	return err
}

func (uc *InvoiceUseCase) timestamp() time.Time { return uc.now().UTC() }

func loadInvoice(ctx context.Context, r repository.Repos, tenantID, id string, forUpdate bool) (*entity.Invoice, error) {
	var (
		inv *entity.Invoice
		err error
	)
	if forUpdate {
		inv, err = r.Invoices.GetForUpdate(ctx, id)
	} else {
		inv, err = r.Invoices.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NotFoundf("factura %s no encontrada", id)
	}
	if inv.TenantID != tenantID {
		return nil, domain.Forbiddenf("la factura %s no pertenece a la empresa", id)
	}
	return inv, nil
}

func loadCustomer(ctx context.Context, r repository.Repos, tenantID, id string) (*entity.Customer, error) {
	c, err := r.Customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFoundf("cliente %s no encontrado", id)
	}
	if c.TenantID != tenantID {
		return nil, domain.Forbiddenf("el cliente %s no pertenece a la empresa", id)
	}
	return c, nil
}

// provisionalNumber número visible del borrador; el definitivo se asigna al emitir.
func provisionalNumber(id string) string {
	return "DRAFT-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}

// newItem arma una línea desde la solicitud. El precio se interpreta en la moneda de la factura.
func newItem(invoiceID, currency string, position int, in dto.InvoiceItemRequest) (*entity.InvoiceItem, error) {
	price, err := money.Parse(in.UnitPrice, currency)
	if err != nil {
		return nil, err
	}
	it := &entity.InvoiceItem{
		ID:          uuid.New().String(),
		InvoiceID:   invoiceID,
		Position:    position,
		Description: strings.TrimSpace(in.Description),
		Quantity:    in.Quantity,
		UnitPrice:   price,
		TaxRate:     in.TaxRate,
		VATRate:     in.VATRate,
	}
	if err := invoicing.ValidateItem(it, currency); err != nil {
		return nil, err
	}
	return it, nil
}

// CreateDraft crea una factura en DRAFT con número provisional y totales calculados.
func (uc *InvoiceUseCase) CreateDraft(ctx context.Context, tenantID, actorID string, in dto.CreateInvoiceRequest) (*entity.Invoice, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate, EntityType: entity.AuditEntityInvoice, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	var inv *entity.Invoice
	err := uc.atomic(ctx, "create_invoice", func(ctx context.Context, r repository.Repos) error {
		if _, err := loadCustomer(ctx, r, tenantID, in.CustomerID); err != nil {
			return err
		}
		currency, err := uc.currencyFor(ctx, r, tenantID, in.Currency)
		if err != nil {
			return err
		}
		now := uc.timestamp()
		id := uuid.New().String()
		inv = &entity.Invoice{
			ID:         id,
			TenantID:   tenantID,
			CustomerID: in.CustomerID,
			Number:     provisionalNumber(id),
			Status:     entity.InvoiceStatusDraft,
			Currency:   currency,
			Notes:      strings.TrimSpace(in.Notes),
			CreatedBy:  actorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for i, req := range in.Items {
			it, err := newItem(id, currency, i+1, req)
			if err != nil {
				return err
			}
			inv.Items = append(inv.Items, it)
		}
		totals, err := invoicing.ComputeTotals(currency, inv.Items)
		if err != nil {
			return err
		}
		totals.Apply(inv)
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate,
			EntityType: entity.AuditEntityInvoice, EntityID: inv.ID, New: dto.NewInvoiceHeaderAudit(inv),
		})
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return inv, nil
}

// currencyFor moneda pedida, la funcional de la empresa o la de configuración, en ese orden.
func (uc *InvoiceUseCase) currencyFor(ctx context.Context, r repository.Repos, tenantID, requested string) (string, error) {
	if requested != "" {
		return money.NormalizeCurrency(requested)
	}
	company, err := r.Companies.GetByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if company != nil && company.Currency != "" {
		return money.NormalizeCurrency(company.Currency)
	}
	return money.NormalizeCurrency(uc.cfg.DefaultCurrency)
}

// Duplicate nueva factura DRAFT con copia de las líneas; sin número definitivo,
// snapshot ni pagos.
func (uc *InvoiceUseCase) Duplicate(ctx context.Context, tenantID, actorID, invoiceID string) (*entity.Invoice, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate, EntityType: entity.AuditEntityInvoice, EntityID: invoiceID}
	var dup *entity.Invoice
	err := uc.atomic(ctx, "duplicate_invoice", func(ctx context.Context, r repository.Repos) error {
		src, err := loadInvoice(ctx, r, tenantID, invoiceID, false)
		if err != nil {
			return err
		}
		now := uc.timestamp()
		id := uuid.New().String()
		dup = &entity.Invoice{
			ID:             id,
			TenantID:       tenantID,
			CustomerID:     src.CustomerID,
			Number:         provisionalNumber(id),
			Status:         entity.InvoiceStatusDraft,
			Currency:       src.Currency,
			Notes:          src.Notes,
			DuplicatedFrom: src.ID,
			CreatedBy:      actorID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, it := range src.Items {
			cp := *it
			cp.ID = uuid.New().String()
			cp.InvoiceID = id
			dup.Items = append(dup.Items, &cp)
		}
		totals, err := invoicing.ComputeTotals(dup.Currency, dup.Items)
		if err != nil {
			return err
		}
		totals.Apply(dup)
		if err := r.Invoices.Create(ctx, dup); err != nil {
			return err
		}
		return uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate,
			EntityType: entity.AuditEntityInvoice, EntityID: dup.ID,
			New: map[string]any{"duplicated_from": src.ID, "header": dto.NewInvoiceHeaderAudit(dup)},
		})
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return dup, nil
}

// ── lecturas ──────────────────────────────────────────────────────────────────

func (uc *InvoiceUseCase) view(inv *entity.Invoice) (*InvoiceView, error) {
	paid, err := invoicing.PaidAmount(inv)
	if err != nil {
		return nil, err
	}
	return &InvoiceView{Invoice: inv, Status: invoicing.EffectiveStatus(inv, paid, uc.now()), Paid: paid}, nil
}

// GetInvoice factura con ítems, pagos y estado efectivo.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, tenantID, id string) (*InvoiceView, error) {
	inv, err := loadInvoice(ctx, uc.store.Reader(), tenantID, id, false)
	if err != nil {
		return nil, err
	}
	return uc.view(inv)
}

// ListInvoices facturas del tenant, más recientes primero. El filtro OVERDUE se resuelve
// sobre las SENT con el estado efectivo.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, tenantID string, q dto.InvoiceQuery) ([]*InvoiceView, error) {
	if err := dto.Validate(q); err != nil {
		return nil, err
	}
	q.DefaultPage()
	status := entity.InvoiceStatus(q.Status)
	filter := repository.InvoiceFilter{Status: status, CustomerID: q.CustomerID, Limit: q.Limit, Offset: q.Offset}
	overdue := status == entity.InvoiceStatusOverdue
	if overdue {
		filter.Status, filter.Limit, filter.Offset = entity.InvoiceStatusSent, 0, 0
	}
	list, err := uc.store.Reader().Invoices.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*InvoiceView, 0, len(list))
	for _, inv := range list {
		v, err := uc.view(inv)
		if err != nil {
			return nil, err
		}
		if overdue && v.Status != entity.InvoiceStatusOverdue {
			continue
		}
		out = append(out, v)
	}
	if overdue {
		out = lo.Subset(out, q.Offset, uint(q.Limit))
	}
	return out, nil
}
