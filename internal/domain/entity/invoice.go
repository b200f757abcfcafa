package entity

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// InvoiceStatus estado persistido de la factura. OVERDUE nunca se persiste:
// es una vista calculada (ver invoicing.EffectiveStatus).
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

// Invoice cabecera de la factura con sus ítems y pagos.
// Number es provisional (DRAFT-…) hasta el paso a SENT, cuando se asigna el consecutivo definitivo.
type Invoice struct {
	ID                   string
	TenantID             string
	CustomerID           string
	Number               string
	NumberFinal          bool
	Status               InvoiceStatus
	Currency             string
	IssueDate            *time.Time
	DueDate              *time.Time
	Subtotal             money.Money
	TaxAmount            money.Money
	VATAmount            money.Money
	Total                money.Money
	Items                []*InvoiceItem
	Payments             []*Payment
	Snapshot             *LegalSnapshot // nil mientras está en DRAFT
	ReceivableAccountID  string         // cuenta por cobrar usada al emitir; los pagos la acreditan
	LedgerTransactionIDs []string       // movimientos de la emisión
	Notes                string
	DuplicatedFrom       string
	VoidReason           string
	FinalizedAt          *time.Time
	VoidedAt             *time.Time
	PaidAt               *time.Time
	Version              int64
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// LegalSnapshot copia de los datos de cliente y empresa congelada al emitir la factura.
type LegalSnapshot struct {
	CustomerName    string    `json:"customer_name"`
	CustomerAddress string    `json:"customer_address"`
	CustomerTaxID   string    `json:"customer_tax_id"`
	CompanyName     string    `json:"company_name"`
	CompanyAddress  string    `json:"company_address"`
	CompanyTaxID    string    `json:"company_tax_id"`
	CapturedAt      time.Time `json:"captured_at"`
}
