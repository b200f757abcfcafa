package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/billing"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
)

// CustomerHandler maneja las peticiones HTTP de clientes (protegido).
type CustomerHandler struct {
	uc *billing.CustomerUseCase
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *billing.CustomerUseCase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

// Create crea un cliente para la empresa del usuario.
// POST /api/customers
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.CreateCustomerRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), tenantID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCustomerResponse(out))
}

// List lista clientes de la empresa.
// GET /api/customers?limit=20&offset=0
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	list, err := h.uc.List(c.UserContext(), tenantID, limit, offset)
	if err != nil {
		return err
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, cu := range list {
		out = append(out, dto.NewCustomerResponse(cu))
	}
	return c.JSON(out)
}

// Get GET /api/customers/:id
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Get(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCustomerResponse(out))
}

// Update PATCH /api/customers/:id. Las facturas emitidas conservan su snapshot.
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.UpdateCustomerRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), tenantID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCustomerResponse(out))
}
