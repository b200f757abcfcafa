package entity

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// PaymentStatus estado propio del pago.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment dinero recibido contra una factura.
type Payment struct {
	ID                   string
	TenantID             string
	InvoiceID            string
	Amount               money.Money
	Status               PaymentStatus
	Method               string
	Reference            string
	ReceivedAt           time.Time
	DepositAccountID     string // cuenta debitada al completarse; vacío = sin posteo
	LedgerTransactionIDs []string
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
