package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/billing"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

func invoiceResponse(v *billing.InvoiceView) dto.InvoiceResponse {
	return dto.NewInvoiceResponse(v.Invoice, v.Status, v.Paid)
}

// respond vuelve a leer la factura para responder con su estado efectivo.
func (h *InvoiceHandler) respond(c *fiber.Ctx, status int, tenantID string, inv *entity.Invoice) error {
	v, err := h.uc.GetInvoice(c.UserContext(), tenantID, inv.ID)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(invoiceResponse(v))
}

// Create godoc
// @Summary      Crear factura en borrador
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Cliente, moneda e ítems"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.CreateInvoiceRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	inv, err := h.uc.CreateDraft(c.UserContext(), tenantID, actorID, in)
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusCreated, tenantID, inv)
}

// List GET /api/invoices?status=&customer_id=&limit=&offset=
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	views, err := h.uc.ListInvoices(c.UserContext(), tenantID, dto.InvoiceQuery{
		PageRequest: page(c),
		Status:      c.Query("status"),
		CustomerID:  c.Query("customer_id"),
	})
	if err != nil {
		return err
	}
	out := make([]dto.InvoiceResponse, 0, len(views))
	for _, v := range views {
		out = append(out, invoiceResponse(v))
	}
	return c.JSON(out)
}

// GetByID obtiene el detalle completo de una factura.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	v, err := h.uc.GetInvoice(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(invoiceResponse(v))
}

// AddItem POST /api/invoices/:id/items
func (h *InvoiceHandler) AddItem(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.InvoiceItemRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	inv, err := h.uc.AddItem(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusCreated, tenantID, inv)
}

// UpdateItem PATCH /api/invoices/:id/items/:itemId
func (h *InvoiceHandler) UpdateItem(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.UpdateInvoiceItemRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	inv, err := h.uc.UpdateItem(c.UserContext(), tenantID, actorID, c.Params("id"), c.Params("itemId"), in)
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, tenantID, inv)
}

// DeleteItem DELETE /api/invoices/:id/items/:itemId
func (h *InvoiceHandler) DeleteItem(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	inv, err := h.uc.DeleteItem(c.UserContext(), tenantID, actorID, c.Params("id"), c.Params("itemId"))
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, tenantID, inv)
}

// Finalize godoc
// @Summary      Emitir factura
// @Description  Asigna el número definitivo, congela el snapshot legal y postea cuentas por cobrar, ingresos e impuestos en una sola unidad.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la factura"
// @Param        body  body  dto.FinalizeInvoiceRequest  true  "Cuentas de posteo"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/finalize [post]
func (h *InvoiceHandler) Finalize(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.FinalizeInvoiceRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	inv, err := h.uc.Finalize(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, tenantID, inv)
}

// Void POST /api/invoices/:id/void
func (h *InvoiceHandler) Void(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.VoidInvoiceRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	inv, err := h.uc.Void(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, tenantID, inv)
}

// Duplicate POST /api/invoices/:id/duplicate. Copia ítems y cliente a un nuevo borrador.
func (h *InvoiceHandler) Duplicate(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	inv, err := h.uc.Duplicate(c.UserContext(), tenantID, actorID, c.Params("id"))
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusCreated, tenantID, inv)
}

// RecordPayment godoc
// @Summary      Registrar pago
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la factura"
// @Param        body  body  dto.RecordPaymentRequest  true  "Pago"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.RecordPaymentRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.uc.RecordPayment(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPaymentResponse(p))
}

// UpdatePaymentStatus PATCH /api/payments/:id
func (h *InvoiceHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.UpdatePaymentStatusRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.uc.UpdatePaymentStatus(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPaymentResponse(p))
}
