package entity

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// InvoiceItem línea de factura. Amount siempre se deriva de Quantity × UnitPrice;
// las tasas se guardan para mostrar pero no se suman a Amount.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   money.Money
	TaxRate     decimal.Decimal // fracción: 0.05 = 5 %
	VATRate     decimal.Decimal
	Amount      money.Money
}
