package domain

import (
	"github.com/cockroachdb/errors"
)

// Taxonomía de fallas del motor contable. Todo error de dominio queda marcado con
// exactamente una de estas categorías; los callers las distinguen con errors.Is.
var (
	ErrValidation     = errors.New("entrada inválida")
	ErrState          = errors.New("transición de estado inválida")
	ErrConcurrency    = errors.New("contención concurrente")
	ErrReconciliation = errors.New("saldo almacenado no coincide con el calculado")
	ErrIntegrity      = errors.New("integridad de la jerarquía comprometida")
)

// Marcas específicas. Cada una se marca además con su categoría (ver constructores).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrCurrencyMismatch  = errors.New("monedas distintas")
	ErrInvalidTransition = errors.New("transición no permitida")
	ErrRetryExhausted    = errors.New("reintentos agotados")
	ErrCycleDetected     = errors.New("ciclo detectado en la jerarquía de cuentas")
)

// Validationf crea una ValidationFault (entrada incorrecta).
func Validationf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// NotFoundf crea un error de recurso inexistente; es una ValidationFault.
func NotFoundf(format string, args ...any) error {
	err := errors.Mark(errors.Newf(format, args...), ErrNotFound)
	return errors.Mark(err, ErrValidation)
}

// Duplicatef crea un error de unicidad (p. ej. código de cuenta repetido).
func Duplicatef(format string, args ...any) error {
	err := errors.Mark(errors.Newf(format, args...), ErrDuplicate)
	return errors.Mark(err, ErrValidation)
}

// Forbiddenf: el recurso existe pero pertenece a otro tenant.
func Forbiddenf(format string, args ...any) error {
	err := errors.Mark(errors.Newf(format, args...), ErrForbidden)
	return errors.Mark(err, ErrValidation)
}

// CurrencyMismatch indica aritmética o posteo entre monedas distintas.
func CurrencyMismatch(a, b string) error {
	err := errors.Mark(errors.Newf("moneda %s no coincide con %s", a, b), ErrCurrencyMismatch)
	return errors.Mark(err, ErrValidation)
}

// Statef crea una StateFault (operación no permitida en el estado actual).
func Statef(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrState)
}

// InvalidTransition rechaza un cambio de estado fuera de la máquina de estados.
func InvalidTransition(entity, from, to string) error {
	err := errors.Mark(errors.Newf("%s: %s -> %s no permitido", entity, from, to), ErrInvalidTransition)
	return errors.Mark(err, ErrState)
}

// Conflictf crea una ConcurrencyFault reintentable (versión obsoleta, lock timeout, deadlock).
func Conflictf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConcurrency)
}

// RetryExhausted envuelve la última falla de contención tras agotar los reintentos.
func RetryExhausted(attempts int, last error) error {
	err := errors.Wrapf(last, "tras %d intentos", attempts)
	err = errors.Mark(err, ErrRetryExhausted)
	return errors.Mark(err, ErrConcurrency)
}

// Reconciliationf crea una ReconciliationFault (saldo o totales divergentes).
func Reconciliationf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrReconciliation)
}

// CycleDetected crea una IntegrityFault por ciclo en la jerarquía.
func CycleDetected(accountID, parentID string) error {
	err := errors.Mark(
		errors.Newf("la cuenta %s no puede colgar de %s: es su descendiente", accountID, parentID),
		ErrCycleDetected,
	)
	return errors.Mark(err, ErrIntegrity)
}

// IsRetryable indica si el error es una falla de contención que puede reintentarse.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrency) && !errors.Is(err, ErrRetryExhausted)
}

// Category devuelve el nombre de la categoría de la falla (para logs y auditoría).
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "VALIDATION"
	case errors.Is(err, ErrState):
		return "STATE"
	case errors.Is(err, ErrConcurrency):
		return "CONCURRENCY"
	case errors.Is(err, ErrReconciliation):
		return "RECONCILIATION"
	case errors.Is(err, ErrIntegrity):
		return "INTEGRITY"
	default:
		return "INTERNAL"
	}
}
