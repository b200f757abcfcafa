package billing_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/billing"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/application/sequence"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ledger-api/pkg/retry"
)

const (
	tenant = "t1"
	actor  = "u1"
)

// faultyStore hace fallar la inserción de movimientos mientras fail esté activo.
type faultyStore struct {
	*memory.Store
	fail atomic.Bool
}

func (s *faultyStore) Run(ctx context.Context, fn func(ctx context.Context, r repository.Repos) error) error {
	return s.Store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		if s.fail.Load() {
			r.Transactions = failingTransactions{r.Transactions}
		}
		return fn(ctx, r)
	})
}

type failingTransactions struct {
	repository.TransactionRepository
}

func (failingTransactions) Create(context.Context, *entity.Transaction) error {
	return errors.New("disco lleno")
}

type fixture struct {
	store     *faultyStore
	ledger    *ledger.Service
	numbers   *sequence.Generator
	invoices  *billing.InvoiceUseCase
	customers *billing.CustomerUseCase
	now       time.Time

	customer   *entity.Customer
	receivable *entity.Account
	revenue    *entity.Account
	tax        *entity.Account
	cash       *entity.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: &faultyStore{Store: memory.New()}, now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	log := zerolog.Nop()
	rt := retry.New(retry.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}, log)
	auditSvc := audit.NewService(f.store, log)

	f.ledger = ledger.NewService(f.store, auditSvc, rt, log, ledger.WithClock(clock))
	f.numbers = sequence.NewGenerator(f.store, rt, sequence.Config{Prefix: "INV", Padding: 6}).WithClock(clock)
	f.invoices = billing.NewInvoiceUseCase(f.store, f.ledger, f.numbers, auditSvc, rt, log,
		billing.Config{SequenceName: "invoice", PaymentTermsDays: 30, DefaultCurrency: "USD"},
		billing.WithClock(clock))
	f.customers = billing.NewCustomerUseCase(f.store)

	_, err := billing.NewCompanyUseCase(f.store).Upsert(ctx, tenant, dto.UpsertCompanyRequest{
		Name: "Acme SAS", TaxID: "900123456", Address: "Calle 1", Currency: "USD",
	})
	require.NoError(t, err)
	f.customer, err = f.customers.Create(ctx, tenant, dto.CreateCustomerRequest{Name: "Cliente Uno", TaxID: "800-1", Address: "Av 2"})
	require.NoError(t, err)

	f.receivable = f.account(t, "1300", "ASSET", "ACCOUNTS_RECEIVABLE")
	f.revenue = f.account(t, "4100", "REVENUE", "OPERATING_REVENUE")
	f.tax = f.account(t, "2400", "LIABILITY", "TAX_PAYABLE")
	f.cash = f.account(t, "1100", "ASSET", "CASH")
	return f
}

func (f *fixture) account(t *testing.T, code, typ, category string) *entity.Account {
	t.Helper()
	acc, err := f.ledger.CreateAccount(context.Background(), tenant, actor, dto.CreateAccountRequest{
		Code: code, Name: code, Type: typ, Category: category, Currency: "USD",
	})
	require.NoError(t, err)
	return acc
}

func (f *fixture) balance(t *testing.T, acc *entity.Account) money.Money {
	t.Helper()
	got, err := f.ledger.GetAccount(context.Background(), tenant, acc.ID)
	require.NoError(t, err)
	calc, err := f.ledger.GetCalculatedBalance(context.Background(), tenant, acc.ID)
	require.NoError(t, err)
	require.Equal(t, calc, got.Balance)
	return got.Balance
}

func item(qty, price, taxRate string) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{
		Description: "servicio",
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   price,
		TaxRate:     decimal.RequireFromString(taxRate),
	}
}

// draft125 dos líneas: 2 × 50.00 al 5 % y 1 × 20.00 sin impuesto.
func (f *fixture) draft125(t *testing.T) *entity.Invoice {
	t.Helper()
	inv, err := f.invoices.CreateDraft(context.Background(), tenant, actor, dto.CreateInvoiceRequest{
		CustomerID: f.customer.ID,
		Items:      []dto.InvoiceItemRequest{item("2", "50.00", "0.05"), item("1", "20.00", "0")},
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) finalizeRequest() dto.FinalizeInvoiceRequest {
	return dto.FinalizeInvoiceRequest{
		ReceivableAccountID: f.receivable.ID,
		RevenueAccountID:    f.revenue.ID,
		TaxAccountID:        f.tax.ID,
	}
}

func usd(s string) money.Money { return money.MustParse(s, "USD") }

// ── borrador y líneas ─────────────────────────────────────────────────────────

func TestCreateDraft_TotalesDelEscenario(t *testing.T) {
	f := newFixture(t)
	inv := f.draft125(t)

	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Contains(t, inv.Number, "DRAFT-")
	assert.Equal(t, usd("120.00"), inv.Subtotal)
	assert.Equal(t, usd("5.00"), inv.TaxAmount)
	assert.Equal(t, usd("0.00"), inv.VATAmount)
	assert.Equal(t, usd("125.00"), inv.Total)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, 1, inv.Items[0].Position)
}

func TestCreateDraft_ClienteDeOtroTenant(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoices.CreateDraft(context.Background(), "t2", actor, dto.CreateInvoiceRequest{CustomerID: f.customer.ID})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestItems_TotalesSiempreRecalculados(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)

	inv, err := f.invoices.AddItem(ctx, tenant, actor, inv.ID, item("3", "10.00", "0.10"))
	require.NoError(t, err)
	assert.Equal(t, usd("150.00"), inv.Subtotal)
	assert.Equal(t, usd("8.00"), inv.TaxAmount)
	assert.Equal(t, usd("158.00"), inv.Total)
	assert.Equal(t, 3, inv.Items[2].Position)

	qty := decimal.NewFromInt(1)
	inv, err = f.invoices.UpdateItem(ctx, tenant, actor, inv.ID, inv.Items[0].ID, dto.UpdateInvoiceItemRequest{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, usd("100.00"), inv.Subtotal)
	assert.Equal(t, usd("5.50"), inv.TaxAmount)

	inv, err = f.invoices.DeleteItem(ctx, tenant, actor, inv.ID, inv.Items[2].ID)
	require.NoError(t, err)
	assert.Equal(t, usd("70.00"), inv.Subtotal)
	assert.Equal(t, usd("2.50"), inv.TaxAmount)
	assert.Equal(t, usd("72.50"), inv.Total)

	stored, err := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Total, stored.Invoice.Total)
	assert.Len(t, stored.Invoice.Items, 2)
}

func TestUpdateItem_AuditoriaPorCampoMasTotales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	itemID := inv.Items[1].ID

	qty, price := decimal.NewFromInt(2), "25.00"
	_, err := f.invoices.UpdateItem(ctx, tenant, actor, inv.ID, itemID, dto.UpdateInvoiceItemRequest{Quantity: &qty, UnitPrice: &price})
	require.NoError(t, err)

	entries, err := f.store.Reader().Audit.Query(ctx, entity.AuditFilter{TenantID: tenant, EntityID: itemID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "quantity", entries[0].Field)
	assert.Equal(t, "unit_price", entries[1].Field)

	totals, err := f.store.Reader().Audit.Query(ctx, entity.AuditFilter{TenantID: tenant, EntityID: inv.ID, Action: entity.AuditActionUpdate})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "totals", totals[0].Field)
}

func TestItems_SoloEnDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	_, err = f.invoices.AddItem(ctx, tenant, actor, inv.ID, item("1", "1.00", "0"))
	assert.True(t, errors.Is(err, domain.ErrState))
	_, err = f.invoices.DeleteItem(ctx, tenant, actor, inv.ID, inv.Items[0].ID)
	assert.True(t, errors.Is(err, domain.ErrState))
}

// ── emisión ───────────────────────────────────────────────────────────────────

func TestFinalize_NumeroSnapshotYAsientos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)

	sent, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusSent, sent.Status)
	assert.Equal(t, "INV-2026-000001", sent.Number)
	assert.True(t, sent.NumberFinal)
	require.NotNil(t, sent.Snapshot)
	assert.Equal(t, "Cliente Uno", sent.Snapshot.CustomerName)
	assert.Equal(t, "Acme SAS", sent.Snapshot.CompanyName)
	assert.Equal(t, f.now.AddDate(0, 0, 30), *sent.DueDate)
	assert.Len(t, sent.LedgerTransactionIDs, 3)

	assert.Equal(t, usd("125.00"), f.balance(t, f.receivable))
	assert.Equal(t, usd("120.00"), f.balance(t, f.revenue))
	assert.Equal(t, usd("5.00"), f.balance(t, f.tax))

	_, err = f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestFinalize_SinCuentaDeImpuestosIngresosRecibeElTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	req := f.finalizeRequest()
	req.TaxAccountID = ""

	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, req)
	require.NoError(t, err)
	assert.Equal(t, usd("125.00"), f.balance(t, f.revenue))
	assert.True(t, f.balance(t, f.tax).IsZero())
}

func TestFinalize_SnapshotNoCambiaConElCliente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	name := "Cliente Renombrado"
	_, err = f.customers.Update(ctx, tenant, f.customer.ID, dto.UpdateCustomerRequest{Name: &name})
	require.NoError(t, err)

	got, err := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cliente Uno", got.Invoice.Snapshot.CustomerName)
}

func TestFinalize_FallaEnPosteoRevierteTodoYReusaNumero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)

	f.store.fail.Store(true)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.Error(t, err)
	f.store.fail.Store(false)

	got, err := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusDraft, got.Invoice.Status)
	assert.Equal(t, inv.Number, got.Invoice.Number)
	assert.Nil(t, got.Invoice.Snapshot)
	last, err := f.numbers.Peek(ctx, tenant, "invoice")
	require.NoError(t, err)
	assert.Zero(t, last)
	assert.True(t, f.balance(t, f.receivable).IsZero())

	failures, err := f.store.Reader().Audit.Query(ctx, entity.AuditFilter{
		TenantID: tenant, EntityID: inv.ID, Outcome: entity.AuditOutcomeFailure,
	})
	require.NoError(t, err)
	assert.Len(t, failures, 1)

	sent, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000001", sent.Number)
}

func TestFinalize_TotalesAlteradosEsReconciliationFault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)

	require.NoError(t, f.store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		stored, err := r.Invoices.GetForUpdate(ctx, inv.ID)
		if err != nil {
			return err
		}
		stored.Total = usd("999.00")
		return r.Invoices.Update(ctx, stored)
	}))

	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	assert.True(t, errors.Is(err, domain.ErrReconciliation))

	got, _ := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	assert.Equal(t, usd("999.00"), got.Invoice.Total, "nunca se corrige automáticamente")
}

// ── anulación ─────────────────────────────────────────────────────────────────

func TestVoid_RevierteAsientosYRestauraSaldos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	sent, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	voided, err := f.invoices.Void(ctx, tenant, actor, inv.ID, dto.VoidInvoiceRequest{Reason: "error de cliente"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusVoid, voided.Status)
	assert.Equal(t, "INV-2026-000001", voided.Number)

	for _, acc := range []*entity.Account{f.receivable, f.revenue, f.tax} {
		assert.True(t, f.balance(t, acc).IsZero(), acc.Code)
	}
	for _, txID := range sent.LedgerTransactionIDs {
		orig, err := f.ledger.GetTransaction(ctx, tenant, txID)
		require.NoError(t, err)
		require.NotEmpty(t, orig.ReversedBy)
		rev, err := f.ledger.GetTransaction(ctx, tenant, orig.ReversedBy)
		require.NoError(t, err)
		assert.Equal(t, orig.Amount, rev.Amount)
		assert.Equal(t, orig.Direction.Opposite(), rev.Direction)
	}

	_, err = f.invoices.Void(ctx, tenant, actor, inv.ID, dto.VoidInvoiceRequest{Reason: "otra vez"})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestVoid_BorradorSinAsientos(t *testing.T) {
	f := newFixture(t)
	inv := f.draft125(t)
	voided, err := f.invoices.Void(context.Background(), tenant, actor, inv.ID, dto.VoidInvoiceRequest{Reason: "descartada"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusVoid, voided.Status)
}

func TestVoid_ConPagosCompletadosExigeReembolso(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)
	p, err := f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{
		Amount: "10.00", Currency: "USD", DepositAccountID: f.cash.ID,
	})
	require.NoError(t, err)

	_, err = f.invoices.Void(ctx, tenant, actor, inv.ID, dto.VoidInvoiceRequest{Reason: "x"})
	assert.True(t, errors.Is(err, domain.ErrState))

	_, err = f.invoices.UpdatePaymentStatus(ctx, tenant, actor, p.ID, dto.UpdatePaymentStatusRequest{Status: "REFUNDED"})
	require.NoError(t, err)
	assert.True(t, f.balance(t, f.cash).IsZero())

	_, err = f.invoices.Void(ctx, tenant, actor, inv.ID, dto.VoidInvoiceRequest{Reason: "x"})
	require.NoError(t, err)
	assert.True(t, f.balance(t, f.receivable).IsZero())
}

// ── pagos ─────────────────────────────────────────────────────────────────────

func TestRecordPayment_PagosCompletosSaldanLaFactura(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	_, err = f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{
		Amount: "100.00", Currency: "USD", DepositAccountID: f.cash.ID,
	})
	require.NoError(t, err)
	got, _ := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	assert.Equal(t, entity.InvoiceStatusSent, got.Status)
	assert.Equal(t, usd("100.00"), got.Paid)

	_, err = f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{
		Amount: "25.00", Currency: "USD", DepositAccountID: f.cash.ID,
	})
	require.NoError(t, err)
	got, _ = f.invoices.GetInvoice(ctx, tenant, inv.ID)
	assert.Equal(t, entity.InvoiceStatusPaid, got.Status)
	assert.NotNil(t, got.Invoice.PaidAt)
	assert.Len(t, got.Invoice.Payments, 2)

	assert.Equal(t, usd("125.00"), f.balance(t, f.cash))
	assert.True(t, f.balance(t, f.receivable).IsZero())

	_, err = f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{Amount: "1.00", Currency: "USD"})
	assert.True(t, errors.Is(err, domain.ErrState))
}

func TestRecordPayment_Rechazos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)

	_, err := f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{Amount: "10.00", Currency: "USD"})
	assert.True(t, errors.Is(err, domain.ErrState), "un borrador no recibe pagos")

	_, err = f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	_, err = f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{Amount: "10.00", Currency: "EUR"})
	assert.True(t, errors.Is(err, domain.ErrCurrencyMismatch))

	_, err = f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{Amount: "0", Currency: "USD"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdatePaymentStatus_PendienteACompletado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	p, err := f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{
		Amount: "125.00", Currency: "USD", Status: "PENDING", DepositAccountID: f.cash.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, p.LedgerTransactionIDs)
	got, _ := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	assert.Equal(t, entity.InvoiceStatusSent, got.Status)

	p, err = f.invoices.UpdatePaymentStatus(ctx, tenant, actor, p.ID, dto.UpdatePaymentStatusRequest{Status: "COMPLETED"})
	require.NoError(t, err)
	assert.Len(t, p.LedgerTransactionIDs, 2)
	got, _ = f.invoices.GetInvoice(ctx, tenant, inv.ID)
	assert.Equal(t, entity.InvoiceStatusPaid, got.Status)

	_, err = f.invoices.UpdatePaymentStatus(ctx, tenant, actor, p.ID, dto.UpdatePaymentStatusRequest{Status: "FAILED"})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

// ── vencimiento y duplicado ───────────────────────────────────────────────────

func TestEffectiveStatus_VencidaEsVistaCalculada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 31)
	got, err := f.invoices.GetInvoice(ctx, tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusOverdue, got.Status)
	assert.Equal(t, entity.InvoiceStatusSent, got.Invoice.Status)

	overdue, err := f.invoices.ListInvoices(ctx, tenant, dto.InvoiceQuery{Status: "OVERDUE"})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, inv.ID, overdue[0].Invoice.ID)

	_, err = f.invoices.RecordPayment(ctx, tenant, actor, inv.ID, dto.RecordPaymentRequest{Amount: "125.00", Currency: "USD"})
	require.NoError(t, err)
	got, _ = f.invoices.GetInvoice(ctx, tenant, inv.ID)
	assert.Equal(t, entity.InvoiceStatusPaid, got.Status)
}

func TestDuplicate_NuevoBorradorSinNumeroNiPagos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.draft125(t)
	_, err := f.invoices.Finalize(ctx, tenant, actor, inv.ID, f.finalizeRequest())
	require.NoError(t, err)

	dup, err := f.invoices.Duplicate(ctx, tenant, actor, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusDraft, dup.Status)
	assert.Equal(t, inv.ID, dup.DuplicatedFrom)
	assert.Nil(t, dup.Snapshot)
	assert.Empty(t, dup.Payments)
	assert.Equal(t, usd("125.00"), dup.Total)
	require.Len(t, dup.Items, 2)
	assert.NotEqual(t, inv.Items[0].ID, dup.Items[0].ID)

	sent, err := f.invoices.Finalize(ctx, tenant, actor, dup.ID, f.finalizeRequest())
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000002", sent.Number)
}
