// Package retry reintenta operaciones cortas con backoff exponencial acotado.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Ledger-api/internal/domain"
)

// Policy límites del reintento.
type Policy struct {
	MaxAttempts int           // intentos totales, incluido el primero
	Initial     time.Duration // espera antes del segundo intento
	Max         time.Duration // tope de cada espera
}

// DefaultPolicy 5 intentos, 10ms inicial, 500ms máximo.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, Initial: 10 * time.Millisecond, Max: 500 * time.Millisecond}
}

// Retrier ejecuta operaciones reintentando solo las fallas de contención.
type Retrier struct {
	policy Policy
	log    zerolog.Logger
}

// New crea un Retrier.
func New(policy Policy, log zerolog.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{policy: policy, log: log}
}

func (r *Retrier) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.policy.Initial
	eb.MaxInterval = r.policy.Max
	eb.MaxElapsedTime = 0 // lo acota el número de intentos
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.policy.MaxAttempts-1)), ctx)
}

// Do ejecuta op. Las fallas de validación, estado o integridad se devuelven de inmediato;
// las ConcurrencyFault se reintentan y, agotados los intentos, se devuelven como RetryExhausted.
func (r *Retrier) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := 0
	var last error
	err := backoff.RetryNotify(func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		last = err
		return err
	}, r.backOff(ctx), func(err error, wait time.Duration) {
		r.log.Warn().Err(err).Str("op", name).Int("attempt", attempts).Dur("wait", wait).Msg("contención, reintentando")
	})
	if err == nil {
		return nil
	}
	if last != nil && domain.IsRetryable(err) {
		return domain.RetryExhausted(attempts, last)
	}
	return err
}
