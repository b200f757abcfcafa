package invoicing_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/invoicing"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

func usd(s string) money.Money { return money.MustParse(s, "USD") }

func item(qty, price, tax, vat string) *entity.InvoiceItem {
	return &entity.InvoiceItem{
		Quantity:  decimal.RequireFromString(qty),
		UnitPrice: usd(price),
		TaxRate:   decimal.RequireFromString(tax),
		VATRate:   decimal.RequireFromString(vat),
	}
}

// ── totales ───────────────────────────────────────────────────────────────────

func TestComputeTotals_DosLineasConImpuesto(t *testing.T) {
	items := []*entity.InvoiceItem{
		item("2", "50.00", "0.05", "0"),
		item("1", "20.00", "0", "0"),
	}
	got, err := invoicing.ComputeTotals("USD", items)
	require.NoError(t, err)

	assert.Equal(t, usd("120.00"), got.Subtotal)
	assert.Equal(t, usd("5.00"), got.TaxAmount)
	assert.Equal(t, usd("0.00"), got.VATAmount)
	assert.Equal(t, usd("125.00"), got.Total)
	assert.Equal(t, usd("100.00"), items[0].Amount)
	assert.Equal(t, usd("20.00"), items[1].Amount)
}

func TestComputeTotals_RedondeoPorLinea(t *testing.T) {
	// 0.50 × 5% = 0.025 → 0.02 (half-even) en cada línea; suma 0.04, no round(0.05)=0.05.
	items := []*entity.InvoiceItem{
		item("1", "0.50", "0.05", "0"),
		item("1", "0.50", "0.05", "0"),
	}
	got, err := invoicing.ComputeTotals("USD", items)
	require.NoError(t, err)
	assert.Equal(t, usd("0.04"), got.TaxAmount)
	assert.Equal(t, usd("1.04"), got.Total)
}

func TestComputeTotals_SinLineas(t *testing.T) {
	got, err := invoicing.ComputeTotals("USD", nil)
	require.NoError(t, err)
	assert.True(t, got.Total.IsZero())
}

func TestComputeTotals_RechazaLineasInvalidas(t *testing.T) {
	_, err := invoicing.ComputeTotals("USD", []*entity.InvoiceItem{item("0", "1.00", "0", "0")})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = invoicing.ComputeTotals("USD", []*entity.InvoiceItem{item("1", "1.00", "1.5", "0")})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	eur := item("1", "1.00", "0", "0")
	eur.UnitPrice = money.MustParse("1.00", "EUR")
	_, err = invoicing.ComputeTotals("USD", []*entity.InvoiceItem{eur})
	assert.True(t, errors.Is(err, domain.ErrCurrencyMismatch))
}

func TestVerifyTotals_DivergenciaEsFallaDeConciliacion(t *testing.T) {
	inv := &entity.Invoice{ID: "i", Currency: "USD", Items: []*entity.InvoiceItem{item("2", "50.00", "0.05", "0")}}
	totals, err := invoicing.ComputeTotals("USD", inv.Items)
	require.NoError(t, err)
	totals.Apply(inv)

	_, err = invoicing.VerifyTotals(inv)
	require.NoError(t, err)

	inv.Total = usd("999.00")
	_, err = invoicing.VerifyTotals(inv)
	assert.True(t, errors.Is(err, domain.ErrReconciliation))
	assert.Equal(t, usd("999.00"), inv.Total, "no se corrige automáticamente")
}

// ── estados ───────────────────────────────────────────────────────────────────

func TestCanTransition(t *testing.T) {
	ok := [][2]entity.InvoiceStatus{
		{entity.InvoiceStatusDraft, entity.InvoiceStatusSent},
		{entity.InvoiceStatusDraft, entity.InvoiceStatusVoid},
		{entity.InvoiceStatusSent, entity.InvoiceStatusPaid},
		{entity.InvoiceStatusSent, entity.InvoiceStatusVoid},
	}
	for _, c := range ok {
		assert.NoError(t, invoicing.CanTransition(c[0], c[1]), "%s -> %s", c[0], c[1])
	}
	bad := [][2]entity.InvoiceStatus{
		{entity.InvoiceStatusDraft, entity.InvoiceStatusPaid},
		{entity.InvoiceStatusSent, entity.InvoiceStatusOverdue},
		{entity.InvoiceStatusPaid, entity.InvoiceStatusVoid},
		{entity.InvoiceStatusVoid, entity.InvoiceStatusDraft},
	}
	for _, c := range bad {
		err := invoicing.CanTransition(c[0], c[1])
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "%s -> %s", c[0], c[1])
	}
}

func TestEffectiveStatus_OverdueEsVista(t *testing.T) {
	due := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{Status: entity.InvoiceStatusSent, Currency: "USD", Total: usd("100.00"), DueDate: &due}

	before := due.Add(-time.Hour)
	after := due.Add(time.Hour)

	assert.Equal(t, entity.InvoiceStatusSent, invoicing.EffectiveStatus(inv, usd("0"), before))
	assert.Equal(t, entity.InvoiceStatusOverdue, invoicing.EffectiveStatus(inv, usd("40.00"), after))
	assert.Equal(t, entity.InvoiceStatusSent, invoicing.EffectiveStatus(inv, usd("100.00"), after))
	assert.Equal(t, entity.InvoiceStatusSent, inv.Status)

	inv.Status = entity.InvoiceStatusDraft
	assert.Equal(t, entity.InvoiceStatusDraft, invoicing.EffectiveStatus(inv, usd("0"), after))
}

func TestCanTransitionPayment(t *testing.T) {
	assert.NoError(t, invoicing.CanTransitionPayment(entity.PaymentStatusPending, entity.PaymentStatusCompleted))
	assert.NoError(t, invoicing.CanTransitionPayment(entity.PaymentStatusCompleted, entity.PaymentStatusRefunded))
	assert.Error(t, invoicing.CanTransitionPayment(entity.PaymentStatusFailed, entity.PaymentStatusCompleted))
	assert.Error(t, invoicing.CanTransitionPayment(entity.PaymentStatusRefunded, entity.PaymentStatusPending))
}

func TestPaidAmount_SoloCompletados(t *testing.T) {
	inv := &entity.Invoice{Currency: "USD", Total: usd("100.00"), Payments: []*entity.Payment{
		{Amount: usd("60.00"), Status: entity.PaymentStatusCompleted},
		{Amount: usd("40.00"), Status: entity.PaymentStatusPending},
	}}
	paid, err := invoicing.PaidAmount(inv)
	require.NoError(t, err)
	assert.Equal(t, usd("60.00"), paid)

	full, err := invoicing.IsFullyPaid(inv)
	require.NoError(t, err)
	assert.False(t, full)

	inv.Payments[1].Status = entity.PaymentStatusCompleted
	full, err = invoicing.IsFullyPaid(inv)
	require.NoError(t, err)
	assert.True(t, full)
}
