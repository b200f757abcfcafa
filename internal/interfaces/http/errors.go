package http

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain"
)

// ErrorHandler traduce las fallas del dominio a respuestas HTTP. Los handlers solo devuelven el error.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := classify(err)
		body := dto.ErrorResponse{Code: code, Message: err.Error()}
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			body.Hint = strings.Join(hints, "; ")
		}
		switch {
		case status == fiber.StatusServiceUnavailable:
			c.Set(fiber.HeaderRetryAfter, "1")
			log.Warn().Err(err).Str("path", c.Path()).Msg("contención agotada")
		case status >= fiber.StatusInternalServerError:
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no clasificado")
			body.Message = "error interno"
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fe.Code), " ", "_"))
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return fiber.StatusBadRequest, "CURRENCY_MISMATCH"
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrState):
		return fiber.StatusConflict, "STATE"
	case errors.Is(err, domain.ErrCycleDetected):
		return fiber.StatusUnprocessableEntity, "CYCLE_DETECTED"
	case errors.Is(err, domain.ErrIntegrity):
		return fiber.StatusUnprocessableEntity, "INTEGRITY"
	case errors.Is(err, domain.ErrReconciliation):
		return fiber.StatusUnprocessableEntity, "RECONCILIATION"
	case errors.Is(err, domain.ErrConcurrency):
		return fiber.StatusServiceUnavailable, "CONCURRENCY"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}
