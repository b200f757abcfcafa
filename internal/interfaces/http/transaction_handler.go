package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
)

// TransactionHandler posteos, reversos y correcciones del libro.
type TransactionHandler struct {
	svc *ledger.Service
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(svc *ledger.Service) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// Post godoc
// @Summary      Postear movimiento
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                      false  "Clave de idempotencia"
// @Param        body             body    dto.PostTransactionRequest  true   "Movimiento"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Post(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.PostTransactionRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	tx, err := h.svc.PostTransaction(c.UserContext(), tenantID, actorID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransactionResponse(tx))
}

// List GET /api/transactions?account_id=&reference=&from=&to=&limit=&offset=
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	q := dto.TransactionQuery{
		PageRequest: page(c),
		AccountID:   c.Query("account_id"),
		Reference:   c.Query("reference"),
	}
	if q.From, err = queryTime(c, "from"); err != nil {
		return err
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return err
	}
	list, err := h.svc.ListTransactions(c.UserContext(), tenantID, q)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionList(list))
}

// Get GET /api/transactions/:id
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	tx, err := h.svc.GetTransaction(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionResponse(tx))
}

// Reverse POST /api/transactions/:id/reverse. Postea el movimiento opuesto.
func (h *TransactionHandler) Reverse(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.ReverseTransactionRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	tx, err := h.svc.ReverseTransaction(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransactionResponse(tx))
}

// Correct POST /api/transactions/:id/correct. Reverso + posteo de reemplazo en una sola unidad.
func (h *TransactionHandler) Correct(c *fiber.Ctx) error {
	tenantID, actorID, err := identity(c)
	if err != nil {
		return err
	}
	var in dto.CorrectTransactionRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	reversal, replacement, err := h.svc.CorrectTransaction(c.UserContext(), tenantID, actorID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CorrectionResponse{
		Reversal:    dto.NewTransactionResponse(reversal),
		Replacement: dto.NewTransactionResponse(replacement),
	})
}
