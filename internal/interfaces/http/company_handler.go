package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/billing"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
)

// CompanyHandler perfil legal de la empresa del token.
type CompanyHandler struct {
	uc *billing.CompanyUseCase
}

// NewCompanyHandler construye el handler inyectando el caso de uso.
func NewCompanyHandler(uc *billing.CompanyUseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Get godoc
// @Summary      Obtener perfil de la empresa
// @Tags         company
// @Produce      json
// @Success      200  {object}  dto.CompanyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/company [get]
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Get(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCompanyResponse(out))
}

// Upsert godoc
// @Summary      Crear o actualizar perfil de la empresa
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpsertCompanyRequest  true  "Datos de la empresa"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/company [put]
func (h *CompanyHandler) Upsert(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.UpsertCompanyRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Upsert(c.UserContext(), tenantID, in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCompanyResponse(out))
}
