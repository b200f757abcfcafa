package entity

import "time"

// Customer cliente de la empresa. Sus datos legales se copian al snapshot de la factura al emitirla.
type Customer struct {
	ID        string
	TenantID  string
	Name      string
	TaxID     string // NIT, RUT, VAT id...
	Address   string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
