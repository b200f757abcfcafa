package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	rules "github.com/jhoicas/Ledger-api/internal/domain/ledger"
)

// AccountHandler plan de cuentas, saldos y conciliación por cuenta.
type AccountHandler struct {
	svc *ledger.Service
}

// NewAccountHandler construye el handler.
func NewAccountHandler(svc *ledger.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// Create godoc
// @Summary      Crear cuenta
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAccountRequest  true  "Cuenta"
// @Success      201   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/accounts [post]
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.CreateAccountRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	acc, err := h.svc.CreateAccount(c.UserContext(), tenantID, actorID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAccountResponse(acc))
}

// List GET /api/accounts
func (h *AccountHandler) List(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.svc.ListAccounts(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	out := make([]dto.AccountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.NewAccountResponse(a))
	}
	return c.JSON(out)
}

// Tree GET /api/accounts/tree?root=<id>
func (h *AccountHandler) Tree(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	nodes, err := h.svc.AccountHierarchy(c.UserContext(), tenantID, c.Query("root"))
	if err != nil {
		return err
	}
	return c.JSON(treeResponse(nodes))
}

func treeResponse(nodes []*rules.Node) []dto.AccountNodeResponse {
	out := make([]dto.AccountNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dto.AccountNodeResponse{
			AccountResponse: dto.NewAccountResponse(n.Account),
			Children:        treeResponse(n.Children),
		})
	}
	return out
}

// Get GET /api/accounts/:id
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	acc, err := h.svc.GetAccount(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAccountResponse(acc))
}

// Update godoc
// @Summary      Modificar cuenta (nombre, tipo, categoría, padre, banderas)
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la cuenta"
// @Param        body  body  dto.UpdateAccountRequest  true  "Cambios"
// @Success      200   {object}  dto.AccountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/accounts/{id} [patch]
func (h *AccountHandler) Update(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.UpdateAccountRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	acc, err := h.svc.UpdateAccount(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAccountResponse(acc))
}

// Archive POST /api/accounts/:id/archive
func (h *AccountHandler) Archive(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	res, err := h.svc.ArchiveAccount(c.UserContext(), tenantID, actorID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ArchiveAccountResponse{
		Account:        dto.NewAccountResponse(res.Account),
		BalanceWarning: res.BalanceWarning,
	})
}

// Activate POST /api/accounts/:id/activate
func (h *AccountHandler) Activate(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	acc, err := h.svc.ActivateAccount(c.UserContext(), tenantID, actorID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAccountResponse(acc))
}

// Deactivate POST /api/accounts/:id/deactivate
func (h *AccountHandler) Deactivate(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	acc, err := h.svc.DeactivateAccount(c.UserContext(), tenantID, actorID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAccountResponse(acc))
}

// Delete DELETE /api/accounts/:id. Solo cuentas sin movimientos ni subcuentas.
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAccount(c.UserContext(), tenantID, actorID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Balance GET /api/accounts/:id/balance. Saldo almacenado frente al recalculado.
func (h *AccountHandler) Balance(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	ctx, id := c.UserContext(), c.Params("id")
	acc, err := h.svc.GetAccount(ctx, tenantID, id)
	if err != nil {
		return err
	}
	calc, err := h.svc.GetCalculatedBalance(ctx, tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.BalanceResponse{AccountID: acc.ID, Calculated: calc, Stored: acc.Balance})
}

// Reconcile godoc
// @Summary      Conciliar cuenta
// @Description  Compara el saldo almacenado con el recalculado; si coinciden marca los movimientos como conciliados.
// @Tags         accounts
// @Produce      json
// @Param        id   path  string  true  "ID de la cuenta"
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/accounts/{id}/reconcile [post]
func (h *AccountHandler) Reconcile(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Reconcile(c.UserContext(), tenantID, actorID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewReconciliationResponse(res))
}
