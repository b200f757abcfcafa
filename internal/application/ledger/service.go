// Package ledger casos de uso del plan de cuentas: alta y edición de cuentas, posteo,
// reverso y corrección de movimientos, saldos calculados y conciliación por cuenta.
package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
	"github.com/jhoicas/Ledger-api/pkg/retry"
)

const defaultMaxDepth = 256

// Service casos de uso del libro contable.
type Service struct {
	store           repository.Store
	audit           *audit.Service
	retry           *retry.Retrier
	log             zerolog.Logger
	now             func() time.Time
	defaultCurrency string
	maxDepth        int
}

// Option configura el servicio.
type Option func(*Service)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultCurrency moneda usada cuando la solicitud no la indica.
func WithDefaultCurrency(code string) Option {
	return func(s *Service) { s.defaultCurrency = code }
}

// NewService construye el servicio.
func NewService(store repository.Store, auditSvc *audit.Service, retrier *retry.Retrier, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:           store,
		audit:           auditSvc,
		retry:           retrier,
		log:             log,
		now:             time.Now,
		defaultCurrency: "USD",
		maxDepth:        defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// atomic ejecuta fn en una unidad atómica, reintentando ante contención.
func (s *Service) atomic(ctx context.Context, name string, fn func(ctx context.Context, r repository.Repos) error) error {
	return s.retry.Do(ctx, name, func(ctx context.Context) error {
		return s.store.Run(ctx, fn)
	})
}

// failed deja rastro del intento fallido y devuelve el error intacto.
func (s *Service) failed(ctx context.Context, ev audit.Event, err error) error {
	if err != nil {
		s.audit.RecordFailure(ctx, ev, err)
	}
	return err
}

func (s *Service) timestamp() time.Time { return s.now().UTC() }

// loadAccount lee y verifica pertenencia al tenant. forUpdate bloquea la fila.
func loadAccount(ctx context.Context, r repository.Repos, tenantID, id string, forUpdate bool) (*entity.Account, error) {
	var (
		acc *entity.Account
		err error
	)
	if forUpdate {
		acc, err = r.Accounts.GetForUpdate(ctx, id)
	} else {
		acc, err = r.Accounts.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, domain.NotFoundf("cuenta %s no encontrada", id)
	}
	if acc.TenantID != tenantID {
		return nil, domain.Forbiddenf("la cuenta %s no pertenece a la empresa", id)
	}
	return acc, nil
}
