package entity

import "time"

// Company organización/tenant del sistema. ID coincide con el tenant id.
type Company struct {
	ID        string
	Name      string
	TaxID     string
	Address   string
	Phone     string
	Email     string
	Currency  string // moneda funcional por defecto para cuentas y facturas
	CreatedAt time.Time
	UpdatedAt time.Time
}
