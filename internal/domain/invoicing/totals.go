// Package invoicing contiene las reglas puras de la factura: cálculo de totales,
// máquina de estados y el estado efectivo (OVERDUE como vista).
package invoicing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

var one = decimal.NewFromInt(1)

// Totals totales de una factura.
type Totals struct {
	Subtotal  money.Money
	TaxAmount money.Money
	VATAmount money.Money
	Total     money.Money
}

// Equal compara los cuatro totales.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) && t.TaxAmount.Equal(o.TaxAmount) &&
		t.VATAmount.Equal(o.VATAmount) && t.Total.Equal(o.Total)
}

// StoredTotals lee los totales persistidos en la cabecera.
func StoredTotals(inv *entity.Invoice) Totals {
	return Totals{Subtotal: inv.Subtotal, TaxAmount: inv.TaxAmount, VATAmount: inv.VATAmount, Total: inv.Total}
}

// Apply copia los totales a la cabecera.
func (t Totals) Apply(inv *entity.Invoice) {
	inv.Subtotal, inv.TaxAmount, inv.VATAmount, inv.Total = t.Subtotal, t.TaxAmount, t.VATAmount, t.Total
}

// ValidateItem valida cantidad, precio, tasas y moneda de una línea.
func ValidateItem(it *entity.InvoiceItem, currency string) error {
	if !it.Quantity.IsPositive() {
		return domain.Validationf("la cantidad debe ser mayor que cero")
	}
	if it.UnitPrice.IsNegative() {
		return domain.Validationf("el precio unitario no puede ser negativo")
	}
	if it.UnitPrice.Currency != currency {
		return domain.CurrencyMismatch(it.UnitPrice.Currency, currency)
	}
	for _, r := range []decimal.Decimal{it.TaxRate, it.VATRate} {
		if r.IsNegative() || r.GreaterThan(one) {
			return domain.Validationf("tasa fuera de rango [0,1]: %s", r.String())
		}
	}
	return nil
}

// ItemAmount monto de la línea: cantidad × precio unitario, half-even.
func ItemAmount(it *entity.InvoiceItem) (money.Money, error) {
	return it.UnitPrice.MulQuantity(it.Quantity)
}

// ComputeTotals recalcula desde todas las líneas actuales, nunca de forma incremental.
// Impuesto e IVA se redondean por línea y luego se suman.
// Como efecto actualiza Amount de cada línea.
func ComputeTotals(currency string, items []*entity.InvoiceItem) (Totals, error) {
	t := Totals{
		Subtotal:  money.Zero(currency),
		TaxAmount: money.Zero(currency),
		VATAmount: money.Zero(currency),
	}
	for _, it := range items {
		if err := ValidateItem(it, currency); err != nil {
			return Totals{}, err
		}
		amount, err := ItemAmount(it)
		if err != nil {
			return Totals{}, err
		}
		it.Amount = amount
		tax, err := amount.MulRate(it.TaxRate)
		if err != nil {
			return Totals{}, err
		}
		vat, err := amount.MulRate(it.VATRate)
		if err != nil {
			return Totals{}, err
		}
		if t.Subtotal, err = t.Subtotal.Add(amount); err != nil {
			return Totals{}, err
		}
		if t.TaxAmount, err = t.TaxAmount.Add(tax); err != nil {
			return Totals{}, err
		}
		if t.VATAmount, err = t.VATAmount.Add(vat); err != nil {
			return Totals{}, err
		}
	}
	total, err := money.Sum(currency, t.Subtotal, t.TaxAmount, t.VATAmount)
	if err != nil {
		return Totals{}, err
	}
	t.Total = total
	return t, nil
}

// VerifyTotals compara los totales almacenados con los recalculados. Una diferencia
// es una ReconciliationFault; nunca se corrige aquí.
func VerifyTotals(inv *entity.Invoice) (Totals, error) {
	items := make([]*entity.InvoiceItem, len(inv.Items))
	for i, it := range inv.Items {
		cp := *it
		items[i] = &cp
	}
	computed, err := ComputeTotals(inv.Currency, items)
	if err != nil {
		return Totals{}, err
	}
	if stored := StoredTotals(inv); !stored.Equal(computed) {
		return computed, domain.Reconciliationf(
			"factura %s: total almacenado %s, recalculado %s", inv.ID, stored.Total, computed.Total)
	}
	return computed, nil
}

// DueDate fecha de emisión + días de plazo.
func DueDate(issue time.Time, termsDays int) time.Time {
	return issue.AddDate(0, 0, termsDays)
}
