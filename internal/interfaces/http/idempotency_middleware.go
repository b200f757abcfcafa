package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/cache"
)

// HeaderIdempotencyKey clave que el cliente envía para que un POST se aplique una sola vez.
const HeaderIdempotencyKey = "Idempotency-Key"

// Idempotency repite la respuesta guardada cuando un POST llega otra vez con la misma
// Idempotency-Key del mismo tenant. Debe usarse DESPUÉS de AuthMiddleware.
//   - 409 IDEMPOTENCY_IN_PROGRESS → la primera petición aún no termina.
//   - 422 IDEMPOTENCY_KEY_REUSED  → la clave ya se usó con otro cuerpo o ruta.
//
// Las respuestas 5xx, 401 y 403 no se guardan: la clave queda libre para reintentar, también
// después de que cambie el rol del token.
func Idempotency(store *cache.IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if c.Method() != fiber.MethodPost || key == "" {
			return c.Next()
		}
		if len(key) > 255 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado larga"})
		}
		scoped := GetCompanyID(c) + ":" + key
		fp := cache.Fingerprint(c.Method(), c.Path(), c.Body())

		outcome, saved := store.Begin(scoped, fp)
		switch outcome {
		case cache.Replay:
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, saved.ContentType)
			return c.Status(saved.Status).Send(saved.Body)
		case cache.InProgress:
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "otra petición con la misma Idempotency-Key está en curso"})
		case cache.Mismatch:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_KEY_REUSED", Message: "la Idempotency-Key ya se usó con otra petición"})
		}

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				store.Release(scoped)
				return herr
			}
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError || status == fiber.StatusUnauthorized || status == fiber.StatusForbidden {
			store.Release(scoped)
			return nil
		}
		store.Complete(scoped, fp, cache.Response{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		return nil
	}
}
