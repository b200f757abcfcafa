// Package bootstrap ensambla almacén y casos de uso a partir de la configuración.
// Lo comparten el servidor HTTP y la CLI de operación.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/billing"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/application/reconciliation"
	"github.com/jhoicas/Ledger-api/internal/application/sequence"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ledger-api/pkg/config"
	"github.com/jhoicas/Ledger-api/pkg/logger"
	"github.com/jhoicas/Ledger-api/pkg/retry"
)

// Store almacén abierto. Pool es nil con el driver memory.
type Store struct {
	repository.Store
	Pool *pgxpool.Pool
}

// Close libera el pool si lo hay.
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenStore abre el almacén indicado por STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return &Store{Store: memory.New()}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &Store{Store: postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout), Pool: pool}, nil
	default:
		return nil, fmt.Errorf("driver de almacén desconocido: %q", cfg.Store.Driver)
	}
}

// Services casos de uso listos para inyectar.
type Services struct {
	Audit          *audit.Service
	Ledger         *ledger.Service
	Numbers        *sequence.Generator
	Invoices       *billing.InvoiceUseCase
	Customers      *billing.CustomerUseCase
	Company        *billing.CompanyUseCase
	Reconciliation *reconciliation.Service
}

// NewServices construye los casos de uso sobre el almacén.
func NewServices(store repository.Store, cfg *config.Config, log *logger.Logger) *Services {
	rt := retry.New(retry.Policy{
		MaxAttempts: cfg.Ledger.RetryMaxAttempts,
		Initial:     cfg.Ledger.RetryInitial,
		Max:         cfg.Ledger.RetryMax,
	}, log.Component("retry"))

	auditSvc := audit.NewService(store, log.Component("audit"))
	ledgerSvc := ledger.NewService(store, auditSvc, rt, log.Component("ledger"),
		ledger.WithDefaultCurrency(cfg.Ledger.DefaultCurrency))
	numbers := sequence.NewGenerator(store, rt, sequence.Config{
		Prefix:  cfg.Invoice.Prefix,
		Padding: cfg.Invoice.Padding,
	})
	invoices := billing.NewInvoiceUseCase(store, ledgerSvc, numbers, auditSvc, rt, log.Component("billing"),
		billing.Config{
			SequenceName:     cfg.Invoice.SequenceName,
			PaymentTermsDays: cfg.Invoice.PaymentTermsDays,
			DefaultCurrency:  cfg.Ledger.DefaultCurrency,
		})

	return &Services{
		Audit:          auditSvc,
		Ledger:         ledgerSvc,
		Numbers:        numbers,
		Invoices:       invoices,
		Customers:      billing.NewCustomerUseCase(store),
		Company:        billing.NewCompanyUseCase(store),
		Reconciliation: reconciliation.NewService(store, auditSvc, rt, log.Component("reconciliation"), cfg.Reconcile.Workers),
	}
}
