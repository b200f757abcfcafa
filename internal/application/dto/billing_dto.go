package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	TaxID   string `json:"tax_id" validate:"required,max=30"`
	Address string `json:"address" validate:"max=300"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
}

// UpdateCustomerRequest body para PATCH /api/customers/:id. No afecta facturas ya emitidas.
type UpdateCustomerRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	TaxID   *string `json:"tax_id" validate:"omitempty,min=1,max=30"`
	Address *string `json:"address" validate:"omitempty,max=300"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
	Address   string    `json:"address,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCustomerResponse mapea la entidad.
func NewCustomerResponse(c *entity.Customer) CustomerResponse {
	return CustomerResponse{
		ID: c.ID, TenantID: c.TenantID, Name: c.Name, TaxID: c.TaxID,
		Address: c.Address, Email: c.Email, Phone: c.Phone, CreatedAt: c.CreatedAt,
	}
}

// InvoiceItemRequest línea de factura. UnitPrice en unidades mayores de la moneda de la factura.
type InvoiceItemRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   string          `json:"unit_price" validate:"required,numeric"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	VATRate     decimal.Decimal `json:"vat_rate"`
}

// UpdateInvoiceItemRequest cambios parciales sobre una línea en DRAFT.
type UpdateInvoiceItemRequest struct {
	Description *string          `json:"description" validate:"omitempty,min=1,max=500"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *string          `json:"unit_price" validate:"omitempty,numeric"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	VATRate     *decimal.Decimal `json:"vat_rate"`
}

// CreateInvoiceRequest body para POST /api/invoices (crea un borrador).
type CreateInvoiceRequest struct {
	CustomerID string               `json:"customer_id" validate:"required"`
	Currency   string               `json:"currency" validate:"omitempty,len=3"`
	Notes      string               `json:"notes" validate:"max=2000"`
	Items      []InvoiceItemRequest `json:"items" validate:"dive"`
}

// FinalizeInvoiceRequest cuentas contra las que se postea la emisión.
// Sin TaxAccountID, impuesto e IVA se acreditan a la cuenta de ingresos.
type FinalizeInvoiceRequest struct {
	ReceivableAccountID string     `json:"receivable_account_id" validate:"required"`
	RevenueAccountID    string     `json:"revenue_account_id" validate:"required"`
	TaxAccountID        string     `json:"tax_account_id,omitempty"`
	IssueDate           *time.Time `json:"issue_date,omitempty"`
}

// VoidInvoiceRequest body para POST /api/invoices/:id/void.
type VoidInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RecordPaymentRequest body para POST /api/invoices/:id/payments.
// Con DepositAccountID se postea DEBIT depósito / CREDIT cuenta por cobrar.
type RecordPaymentRequest struct {
	Amount           string     `json:"amount" validate:"required,numeric"`
	Currency         string     `json:"currency" validate:"required,len=3"`
	Status           string     `json:"status" validate:"omitempty,oneof=PENDING COMPLETED FAILED CANCELLED"`
	Method           string     `json:"method" validate:"max=50"`
	Reference        string     `json:"reference" validate:"max=100"`
	ReceivedAt       *time.Time `json:"received_at"`
	DepositAccountID string     `json:"deposit_account_id,omitempty"`
}

// UpdatePaymentStatusRequest body para PATCH /api/payments/:id.
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=COMPLETED FAILED CANCELLED REFUNDED"`
}

// InvoiceQuery filtros de GET /api/invoices.
type InvoiceQuery struct {
	PageRequest
	Status     string `query:"status" validate:"omitempty,oneof=DRAFT SENT PAID VOID OVERDUE"`
	CustomerID string `query:"customer_id"`
}

// InvoiceItemResponse línea en respuestas.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   money.Money     `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Amount      money.Money     `json:"amount"`
}

// NewInvoiceItemResponse mapea la línea.
func NewInvoiceItemResponse(it *entity.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ID: it.ID, Position: it.Position, Description: it.Description,
		Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate, VATRate: it.VATRate,
		Amount: it.Amount,
	}
}

// PaymentResponse pago en respuestas.
type PaymentResponse struct {
	ID                   string      `json:"id"`
	InvoiceID            string      `json:"invoice_id"`
	Amount               money.Money `json:"amount"`
	Status               string      `json:"status"`
	Method               string      `json:"method,omitempty"`
	Reference            string      `json:"reference,omitempty"`
	ReceivedAt           time.Time   `json:"received_at"`
	DepositAccountID     string      `json:"deposit_account_id,omitempty"`
	LedgerTransactionIDs []string    `json:"ledger_transaction_ids,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
}

// NewPaymentResponse mapea el pago.
func NewPaymentResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID: p.ID, InvoiceID: p.InvoiceID, Amount: p.Amount, Status: string(p.Status),
		Method: p.Method, Reference: p.Reference, ReceivedAt: p.ReceivedAt, DepositAccountID: p.DepositAccountID,
		LedgerTransactionIDs: p.LedgerTransactionIDs, CreatedAt: p.CreatedAt,
	}
}

// InvoiceResponse factura con ítems y pagos. Status es el estado efectivo (OVERDUE incluido);
// StoredStatus el persistido.
type InvoiceResponse struct {
	ID                   string                `json:"id"`
	TenantID             string                `json:"tenant_id"`
	CustomerID           string                `json:"customer_id"`
	Number               string                `json:"number"`
	Status               string                `json:"status"`
	StoredStatus         string                `json:"stored_status"`
	Currency             string                `json:"currency"`
	IssueDate            *time.Time            `json:"issue_date,omitempty"`
	DueDate              *time.Time            `json:"due_date,omitempty"`
	Subtotal             money.Money           `json:"subtotal"`
	TaxAmount            money.Money           `json:"tax_amount"`
	VATAmount            money.Money           `json:"vat_amount"`
	Total                money.Money           `json:"total"`
	PaidAmount           money.Money           `json:"paid_amount"`
	Items                []InvoiceItemResponse `json:"items"`
	Payments             []PaymentResponse     `json:"payments"`
	Snapshot             *entity.LegalSnapshot `json:"snapshot,omitempty"`
	LedgerTransactionIDs []string              `json:"ledger_transaction_ids,omitempty"`
	Notes                string                `json:"notes,omitempty"`
	DuplicatedFrom       string                `json:"duplicated_from,omitempty"`
	VoidReason           string                `json:"void_reason,omitempty"`
	Version              int64                 `json:"version"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// NewInvoiceResponse mapea la factura con su estado efectivo y monto pagado.
func NewInvoiceResponse(inv *entity.Invoice, effective entity.InvoiceStatus, paid money.Money) InvoiceResponse {
	out := InvoiceResponse{
		ID: inv.ID, TenantID: inv.TenantID, CustomerID: inv.CustomerID, Number: inv.Number,
		Status: string(effective), StoredStatus: string(inv.Status), Currency: inv.Currency,
		IssueDate: inv.IssueDate, DueDate: inv.DueDate,
		Subtotal: inv.Subtotal, TaxAmount: inv.TaxAmount, VATAmount: inv.VATAmount, Total: inv.Total,
		PaidAmount: paid, Snapshot: inv.Snapshot, LedgerTransactionIDs: inv.LedgerTransactionIDs,
		Notes: inv.Notes, DuplicatedFrom: inv.DuplicatedFrom, VoidReason: inv.VoidReason,
		Version: inv.Version, CreatedAt: inv.CreatedAt, UpdatedAt: inv.UpdatedAt,
		Items:    make([]InvoiceItemResponse, 0, len(inv.Items)),
		Payments: make([]PaymentResponse, 0, len(inv.Payments)),
	}
	for _, it := range inv.Items {
		out.Items = append(out.Items, NewInvoiceItemResponse(it))
	}
	for _, p := range inv.Payments {
		out.Payments = append(out.Payments, NewPaymentResponse(p))
	}
	return out
}

// InvoiceHeaderAudit valores de cabecera que se registran en la bitácora.
type InvoiceHeaderAudit struct {
	Number    string      `json:"number"`
	Status    string      `json:"status"`
	Subtotal  money.Money `json:"subtotal"`
	TaxAmount money.Money `json:"tax_amount"`
	VATAmount money.Money `json:"vat_amount"`
	Total     money.Money `json:"total"`
}

// NewInvoiceHeaderAudit extrae la cabecera.
func NewInvoiceHeaderAudit(inv *entity.Invoice) InvoiceHeaderAudit {
	return InvoiceHeaderAudit{
		Number: inv.Number, Status: string(inv.Status),
		Subtotal: inv.Subtotal, TaxAmount: inv.TaxAmount, VATAmount: inv.VATAmount, Total: inv.Total,
	}
}
