package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/reconciliation"
)

// ReconciliationHandler verificación de saldos y totales del tenant.
type ReconciliationHandler struct {
	svc *reconciliation.Service
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(svc *reconciliation.Service) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Report godoc
// @Summary      Reporte de conciliación
// @Description  Compara saldo almacenado y recalculado de cada cuenta conciliable. No modifica nada.
// @Tags         reconciliation
// @Produce      json
// @Success      200  {object}  dto.ReconciliationReport
// @Router       /api/reconciliation [get]
func (h *ReconciliationHandler) Report(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	report, err := h.svc.Run(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// Recalculate godoc
// @Summary      Reparar saldos
// @Description  Reemplaza el saldo almacenado por el recalculado. Cada corrección queda en la bitácora.
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecalculateRequest  false  "Cuentas; vacío = todas"
// @Success      200   {object}  dto.RecalculateResponse
// @Router       /api/reconciliation/recalculate [post]
func (h *ReconciliationHandler) Recalculate(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.RecalculateRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return err
		}
	}
	if err := dto.Validate(in); err != nil {
		return err
	}
	corrected, err := h.svc.RecalculateAccountBalances(c.UserContext(), tenantID, actorID, in.AccountIDs...)
	if err != nil {
		return err
	}
	if corrected == nil {
		corrected = []dto.AccountCheck{}
	}
	return c.JSON(dto.RecalculateResponse{Corrected: corrected})
}

// InvoiceTotals GET /api/reconciliation/invoices. Facturas cuyos totales no cuadran con sus ítems.
func (h *ReconciliationHandler) InvoiceTotals(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.svc.CheckInvoiceTotals(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []dto.InvoiceTotalsCheck{}
	}
	return c.JSON(list)
}
