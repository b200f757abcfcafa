package repository

import "context"

// Repos agrupa los repositorios ligados a una misma unidad atómica.
type Repos struct {
	Accounts     AccountRepository
	Transactions TransactionRepository
	Invoices     InvoiceRepository
	Payments     PaymentRepository
	Sequences    SequenceRepository
	Audit        AuditRepository
	Customers    CustomerRepository
	Companies    CompanyRepository
}

// TxRunner ejecuta fn dentro de una unidad atómica. Si fn devuelve error todo se revierte;
// si no, se confirma. Los repos recibidos solo son válidos dentro de fn.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// Store almacén transaccional: unidades atómicas más repos de lectura fuera de transacción.
type Store interface {
	TxRunner
	// Reader repos de lectura con aislamiento read-committed.
	Reader() Repos
}
