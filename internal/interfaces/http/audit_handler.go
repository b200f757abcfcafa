package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// AuditHandler consulta de la bitácora. Solo lectura.
type AuditHandler struct {
	svc *audit.Service
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// Query godoc
// @Summary      Consultar bitácora
// @Description  Entradas en orden cronológico; verified indica si el checksum de la entrada coincide.
// @Tags         audit
// @Produce      json
// @Param        entity_type  query  string  false  "ACCOUNT, TRANSACTION, INVOICE..."
// @Param        entity_id    query  string  false  "ID de la entidad"
// @Param        actor_id     query  string  false  "Usuario"
// @Param        action       query  string  false  "Acción"
// @Param        outcome      query  string  false  "SUCCESS o FAILURE"
// @Param        from         query  string  false  "RFC 3339"
// @Param        to           query  string  false  "RFC 3339"
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/audit [get]
func (h *AuditHandler) Query(c *fiber.Ctx) error {
	tenantID, _, err := identity(c)
	if err != nil {
		return err
	}
	q := dto.AuditQuery{
		PageRequest: page(c),
		EntityType:  c.Query("entity_type"),
		EntityID:    c.Query("entity_id"),
		ActorID:     c.Query("actor_id"),
		Action:      c.Query("action"),
		Outcome:     c.Query("outcome"),
	}
	if q.From, err = queryTime(c, "from"); err != nil {
		return err
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return err
	}
	if err := dto.Validate(q); err != nil {
		return err
	}
	entries, err := h.svc.Query(c.UserContext(), entity.AuditFilter{
		TenantID:   tenantID,
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		ActorID:    q.ActorID,
		Action:     q.Action,
		Outcome:    q.Outcome,
		From:       q.From,
		To:         q.To,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return err
	}
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.NewAuditEntryResponse(e, audit.Verify(e)))
	}
	return c.JSON(out)
}
