package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/memory"
)

func account(id, code string) *entity.Account {
	return &entity.Account{
		ID: id, TenantID: "t1", Code: code, Name: code,
		Type: entity.AccountTypeAsset, Category: entity.CategoryCash, Status: entity.AccountStatusActive,
		Currency: "USD", OpeningBalance: money.Zero("USD"), Balance: money.Zero("USD"),
	}
}

// ── unidad atómica ────────────────────────────────────────────────────────────

func TestRun_RollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	boom := errors.New("boom")

	err := s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		require.NoError(t, r.Accounts.Create(ctx, account("a1", "1000")))
		_, err := r.Sequences.Next(ctx, "t1", "invoice")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Reader().Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, got)
	last, _ := s.Reader().Sequences.Peek(ctx, "t1", "invoice")
	assert.Zero(t, last)
}

func TestRun_LectoresNoVenEscriturasEnCurso(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		require.NoError(t, r.Accounts.Create(ctx, account("a1", "1000")))
		inside, _ := r.Accounts.GetByID(ctx, "a1")
		assert.NotNil(t, inside)
		outside, _ := s.Reader().Accounts.GetByID(ctx, "a1")
		assert.Nil(t, outside)
		return nil
	})
	require.NoError(t, err)

	got, _ := s.Reader().Accounts.GetByID(ctx, "a1")
	assert.NotNil(t, got)
}

func TestGetByID_DevuelveCopia(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Reader().Accounts.Create(ctx, account("a1", "1000")))

	got, _ := s.Reader().Accounts.GetByID(ctx, "a1")
	got.Name = "mutado"

	again, _ := s.Reader().Accounts.GetByID(ctx, "a1")
	assert.Equal(t, "1000", again.Name)
}

// ── cuentas ───────────────────────────────────────────────────────────────────

func TestAccounts_CodigoUnicoPorTenant(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Reader().Accounts.Create(ctx, account("a1", "1000")))

	err := s.Reader().Accounts.Create(ctx, account("a2", "1000"))
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	other := account("a3", "1000")
	other.TenantID = "t2"
	assert.NoError(t, s.Reader().Accounts.Create(ctx, other))
}

func TestAccounts_UpdateBalanceConVersionObsoleta(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	a := account("a1", "1000")
	require.NoError(t, s.Reader().Accounts.Create(ctx, a))

	a.Balance = money.MustParse("10.00", "USD")
	require.NoError(t, s.Reader().Accounts.UpdateBalance(ctx, a, 0))
	assert.Equal(t, int64(1), a.Version)

	err := s.Reader().Accounts.UpdateBalance(ctx, a, 0)
	assert.True(t, errors.Is(err, domain.ErrConcurrency))
}

// ── secuencias ────────────────────────────────────────────────────────────────

func TestSequences_ConcurrentesSinHuecos(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	const n = 100

	var wg sync.WaitGroup
	values := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
				v, err := r.Sequences.Next(ctx, "t1", "invoice")
				values <- v
				return err
			})
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool)
	for v := range values {
		assert.False(t, seen[v], "valor repetido %d", v)
		seen[v] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "falta %d", i)
	}
}

// ── facturas ──────────────────────────────────────────────────────────────────

func TestInvoices_ItemsOrdenadosPorPosicion(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	r := s.Reader()
	require.NoError(t, r.Invoices.Create(ctx, &entity.Invoice{ID: "i1", TenantID: "t1", Currency: "USD"}))
	require.NoError(t, r.Invoices.CreateItem(ctx, &entity.InvoiceItem{ID: "b", InvoiceID: "i1", Position: 2}))
	require.NoError(t, r.Invoices.CreateItem(ctx, &entity.InvoiceItem{ID: "a", InvoiceID: "i1", Position: 1}))

	inv, err := r.Invoices.GetByID(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "a", inv.Items[0].ID)

	require.NoError(t, r.Invoices.DeleteItem(ctx, "i1", "a"))
	inv, _ = r.Invoices.GetByID(ctx, "i1")
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "b", inv.Items[0].ID)
}

// ── ida y vuelta ──────────────────────────────────────────────────────────────

func TestIdaYVuelta_CuentaMovimientoYFactura(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	usd := func(v string) money.Money { return money.MustParse(v, "USD") }
	parent := "a0"

	acc := account("a1", "1105")
	acc.ParentID = &parent
	acc.OpeningBalance, acc.Balance = usd("10.50"), usd("110.57")
	acc.IsReconcilable, acc.IsTaxable, acc.TypeLocked = true, true, true
	acc.Version = 7
	acc.CreatedAt, acc.UpdatedAt = at, at.Add(time.Hour)

	original := &entity.Transaction{
		ID: "tx1", TenantID: "t1", AccountID: "a1", Direction: entity.DirectionDebit, Amount: usd("100.07"),
		Description: "depósito", Reference: "REF-1", Category: "ventas", Tags: []string{"pos", "caja-1"},
		EffectiveDate: at, Reconciled: true, ReconciledAt: &at, CreatedBy: "u1", CreatedAt: at,
	}
	reversal := &entity.Transaction{
		ID: "tx2", TenantID: "t1", AccountID: "a1", Direction: entity.DirectionCredit, Amount: usd("100.07"),
		Description: "reverso", Tags: []string{}, EffectiveDate: at, ReversalOf: "tx1", CreatedBy: "u1", CreatedAt: at,
	}

	issue, due := at, at.AddDate(0, 0, 30)
	inv := &entity.Invoice{
		ID: "inv1", TenantID: "t1", CustomerID: "c1", Number: "INV-2026-000001", NumberFinal: true,
		Status: entity.InvoiceStatusSent, Currency: "USD", IssueDate: &issue, DueDate: &due,
		Subtotal: usd("120.00"), TaxAmount: usd("5.00"), VATAmount: usd("0.00"), Total: usd("125.00"),
		Items: []*entity.InvoiceItem{
			{ID: "it1", InvoiceID: "inv1", Position: 1, Description: "servicio", Quantity: decimal.RequireFromString("2"),
				UnitPrice: usd("50.00"), TaxRate: decimal.RequireFromString("0.05"), VATRate: decimal.Zero, Amount: usd("100.00")},
			{ID: "it2", InvoiceID: "inv1", Position: 2, Description: "insumo", Quantity: decimal.RequireFromString("0.5"),
				UnitPrice: usd("40.00"), TaxRate: decimal.Zero, VATRate: decimal.RequireFromString("0.19"), Amount: usd("20.00")},
		},
		Snapshot: &entity.LegalSnapshot{
			CustomerName: "Cliente", CustomerAddress: "Calle 1", CustomerTaxID: "900-1",
			CompanyName: "Empresa", CompanyAddress: "Calle 2", CompanyTaxID: "800-2", CapturedAt: at,
		},
		ReceivableAccountID: "a1", LedgerTransactionIDs: []string{"tx1"}, Notes: "nota",
		FinalizedAt: &at, Version: 3, CreatedBy: "u1", CreatedAt: at, UpdatedAt: at,
	}
	pay := &entity.Payment{
		ID: "p1", TenantID: "t1", InvoiceID: "inv1", Amount: usd("25.00"), Status: entity.PaymentStatusCompleted,
		Method: "transferencia", Reference: "TRF-9", ReceivedAt: at, DepositAccountID: "a1",
		LedgerTransactionIDs: []string{"tx1"}, CreatedBy: "u1", CreatedAt: at, UpdatedAt: at,
	}

	require.NoError(t, s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		for _, step := range []func() error{
			func() error { return r.Accounts.Create(ctx, acc) },
			func() error { return r.Transactions.Create(ctx, original) },
			func() error { return r.Transactions.Create(ctx, reversal) },
			func() error { return r.Transactions.SetReversedBy(ctx, "tx1", "tx2") },
			func() error { return r.Invoices.Create(ctx, inv) },
			func() error { return r.Payments.Create(ctx, pay) },
		} {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	}))

	reader := s.Reader()
	gotAcc, err := reader.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, acc, gotAcc)

	gotTx, err := reader.Transactions.GetByID(ctx, "tx1")
	require.NoError(t, err)
	want := *original
	want.ReversedBy = "tx2"
	assert.Equal(t, &want, gotTx)

	gotRev, err := reader.Transactions.GetByID(ctx, "tx2")
	require.NoError(t, err)
	assert.Equal(t, reversal, gotRev)

	gotInv, err := reader.Invoices.GetByID(ctx, "inv1")
	require.NoError(t, err)
	wantInv := *inv
	wantInv.Payments = []*entity.Payment{pay}
	assert.Equal(t, &wantInv, gotInv)
	assert.True(t, gotInv.Items[1].Quantity.Equal(decimal.RequireFromString("0.5")))
}
