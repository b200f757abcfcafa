package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en la bitácora.
const (
	AuditActionCreate        = "CREATE"
	AuditActionUpdate        = "UPDATE"
	AuditActionDelete        = "DELETE"
	AuditActionBalanceChange = "BALANCE_CHANGE"
	AuditActionStatusChange  = "STATUS_CHANGE"
	AuditActionReverse       = "REVERSE"
	AuditActionReconcile     = "RECONCILE"
	AuditActionRecalculate   = "RECALCULATE"
	AuditActionFinalize      = "FINALIZE"
	AuditActionVoid          = "VOID"
	AuditActionPayment       = "PAYMENT"
)

// Tipos de entidad auditados.
const (
	AuditEntityAccount     = "ACCOUNT"
	AuditEntityTransaction = "TRANSACTION"
	AuditEntityInvoice     = "INVOICE"
	AuditEntityInvoiceItem = "INVOICE_ITEM"
	AuditEntityPayment     = "PAYMENT"
	AuditEntitySequence    = "SEQUENCE"
)

// Resultado de la operación auditada.
const (
	AuditOutcomeSuccess = "SUCCESS"
	AuditOutcomeFailure = "FAILURE"
)

// AuditLogEntry registro append-only. Nunca se modifica ni se elimina.
type AuditLogEntry struct {
	ID         string // ULID: ordenable por tiempo
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Field      string // vacío salvo en diffs por campo
	OldValue   json.RawMessage
	NewValue   json.RawMessage
	Outcome    string
	Error      string
	Checksum   string // BLAKE2b-256 del contenido canónico
	CreatedAt  time.Time
}

// AuditFilter criterios de consulta de la bitácora.
type AuditFilter struct {
	TenantID   string
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	Outcome    string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
