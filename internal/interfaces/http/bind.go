package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain"
)

// identity tenant y actor del token.
func identity(c *fiber.Ctx) (tenantID, actorID string, err error) {
	tenantID, actorID = GetCompanyID(c), GetUserID(c)
	if tenantID == "" || actorID == "" {
		return "", "", fiber.NewError(fiber.StatusUnauthorized, "token inválido")
	}
	return tenantID, actorID, nil
}

// bind parsea el cuerpo JSON; el contenido lo valida el caso de uso.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.Validationf("cuerpo inválido: %v", err)
	}
	return nil
}

func page(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
}

// queryTime lee un parámetro RFC 3339 opcional.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.Validationf("%s debe ser RFC 3339: %q", name, raw)
	}
	return &t, nil
}
