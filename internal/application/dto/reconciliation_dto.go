package dto

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// AccountCheck comparación de una cuenta dentro de un reporte.
type AccountCheck struct {
	AccountID  string      `json:"account_id"`
	Code       string      `json:"code"`
	Stored     money.Money `json:"stored"`
	Calculated money.Money `json:"calculated"`
	Difference money.Money `json:"difference"`
	Consistent bool        `json:"consistent"`
}

// ReconciliationReport resultado de Run. No modifica nada.
type ReconciliationReport struct {
	TenantID  string         `json:"tenant_id"`
	Checked   int            `json:"checked"`
	Drifted   int            `json:"drifted"`
	Accounts  []AccountCheck `json:"accounts"`
	CheckedAt time.Time      `json:"checked_at"`
}

// RecalculateRequest body para POST /api/reconciliation/recalculate.
// Vacío = todas las cuentas del tenant.
type RecalculateRequest struct {
	AccountIDs []string `json:"account_ids" validate:"omitempty,dive,required"`
}

// RecalculateResponse cuentas cuyo saldo almacenado fue reemplazado.
type RecalculateResponse struct {
	Corrected []AccountCheck `json:"corrected"`
}

// InvoiceTotalsCheck factura cuyos totales almacenados no coinciden con los recalculados.
type InvoiceTotalsCheck struct {
	InvoiceID  string      `json:"invoice_id"`
	Number     string      `json:"number"`
	Stored     money.Money `json:"stored_total"`
	Calculated money.Money `json:"calculated_total"`
}
