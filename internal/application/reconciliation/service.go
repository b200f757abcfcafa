// Package reconciliation reportes de consistencia entre saldos almacenados y el historial,
// y la reparación explícita de saldos.
package reconciliation

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/invoicing"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
	"github.com/jhoicas/Ledger-api/pkg/retry"
)

const defaultWorkers = 4

// Service conciliación por tenant.
//
// Run no escribe: cada cuenta se relee con la fila bloqueada y se pliega su historial en
// la misma unidad. La reparación pasa siempre por RecalculateAccountBalances, con auditoría.
type Service struct {
	store   repository.Store
	audit   *audit.Service
	retry   *retry.Retrier
	log     zerolog.Logger
	workers int
	now     func() time.Time
}

// NewService construye el servicio. workers <= 0 usa 4.
func NewService(store repository.Store, auditSvc *audit.Service, retrier *retry.Retrier, log zerolog.Logger, workers int) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{store: store, audit: auditSvc, retry: retrier, log: log, workers: workers, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run compara saldo almacenado y calculado de cada cuenta conciliable del tenant.
//
//  1. Lista las cuentas conciliables (las archivadas incluidas).
//  2. Revisa cada cuenta en paralelo, con a lo sumo `workers` unidades a la vez; saldo y
//     movimientos de una cuenta salen siempre del mismo corte.
//  3. Ordena por código y registra un warning por cada divergencia.
func (s *Service) Run(ctx context.Context, tenantID string) (*dto.ReconciliationReport, error) {
	if tenantID == "" {
		return nil, domain.Validationf("tenant requerido")
	}
	accounts, err := s.store.Reader().Accounts.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	accounts = lo.Filter(accounts, func(a *entity.Account, _ int) bool { return a.IsReconcilable })

	p := pool.NewWithResults[dto.AccountCheck]().
		WithMaxGoroutines(s.workers).
		WithContext(ctx).
		WithCancelOnError()
	for _, acc := range accounts {
		p.Go(func(ctx context.Context) (dto.AccountCheck, error) {
			return s.checkAccount(ctx, acc.ID)
		})
	}
	checks, err := p.Wait()
	if err != nil {
		return nil, err
	}
	// borradas después del listado
	checks = lo.Filter(checks, func(c dto.AccountCheck, _ int) bool { return c.AccountID != "" })
	slices.SortFunc(checks, func(a, b dto.AccountCheck) int { return strings.Compare(a.Code, b.Code) })

	report := &dto.ReconciliationReport{
		TenantID:  tenantID,
		Checked:   len(checks),
		Accounts:  checks,
		CheckedAt: s.now().UTC(),
	}
	for _, c := range checks {
		if c.Consistent {
			continue
		}
		report.Drifted++
		s.log.Warn().
			Str("tenant_id", tenantID).
			Str("account_id", c.AccountID).
			Str("stored", c.Stored.String()).
			Str("calculated", c.Calculated.String()).
			Msg("saldo almacenado no coincide con el calculado")
	}
	return report, nil
}

// checkAccount bloquea la fila, así ningún posteo a la cuenta queda a medias entre la
// lectura del saldo y la del historial.
func (s *Service) checkAccount(ctx context.Context, accountID string) (dto.AccountCheck, error) {
	var c dto.AccountCheck
	err := s.retry.Do(ctx, "reconcile_check", func(ctx context.Context) error {
		c = dto.AccountCheck{}
		return s.store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
			acc, err := r.Accounts.GetForUpdate(ctx, accountID)
			if err != nil || acc == nil {
				return err
			}
			c, err = check(ctx, r, acc)
			return err
		})
	})
	return c, err
}

func check(ctx context.Context, r repository.Repos, acc *entity.Account) (dto.AccountCheck, error) {
	calc, err := ledger.CalculatedInTx(ctx, r, acc)
	if err != nil {
		return dto.AccountCheck{}, err
	}
	diff, err := acc.Balance.Sub(calc)
	if err != nil {
		return dto.AccountCheck{}, err
	}
	return dto.AccountCheck{
		AccountID:  acc.ID,
		Code:       acc.Code,
		Stored:     acc.Balance,
		Calculated: calc,
		Difference: diff,
		Consistent: diff.IsZero(),
	}, nil
}

// RecalculateAccountBalances reemplaza el saldo almacenado por el calculado en las cuentas
// indicadas (todas las del tenant si no se indica ninguna). Cada cuenta corregida se procesa
// en su propia unidad atómica con la fila bloqueada y deja una entrada RECALCULATE.
func (s *Service) RecalculateAccountBalances(ctx context.Context, tenantID, actorID string, accountIDs ...string) ([]dto.AccountCheck, error) {
	if tenantID == "" {
		return nil, domain.Validationf("tenant requerido")
	}
	if len(accountIDs) == 0 {
		accounts, err := s.store.Reader().Accounts.ListByTenant(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		accountIDs = lo.Map(accounts, func(a *entity.Account, _ int) string { return a.ID })
	}

	var corrected []dto.AccountCheck
	for _, id := range lo.Uniq(accountIDs) {
		ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionRecalculate, EntityType: entity.AuditEntityAccount, EntityID: id}
		var fixed *dto.AccountCheck
		err := s.retry.Do(ctx, "recalculate_balance", func(ctx context.Context) error {
			fixed = nil
			return s.store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
				acc, err := r.Accounts.GetForUpdate(ctx, id)
				if err != nil {
					return err
				}
				if acc == nil {
					return domain.NotFoundf("cuenta %s no encontrada", id)
				}
				if acc.TenantID != tenantID {
					return domain.Forbiddenf("la cuenta %s no pertenece a la empresa", id)
				}
				c, err := check(ctx, r, acc)
				if err != nil || c.Consistent {
					return err
				}
				acc.Balance = c.Calculated
				if err := r.Accounts.UpdateBalance(ctx, acc, acc.Version); err != nil {
					return err
				}
				fixed = &c
				return s.audit.Record(ctx, r.Audit, audit.Event{
					TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionRecalculate,
					EntityType: entity.AuditEntityAccount, EntityID: acc.ID, Field: "balance",
					Old: c.Stored, New: c.Calculated,
				})
			})
		})
		if err != nil {
			s.audit.RecordFailure(ctx, ev, err)
			return corrected, err
		}
		if fixed != nil {
			s.log.Info().
				Str("tenant_id", tenantID).
				Str("account_id", id).
				Str("from", fixed.Stored.String()).
				Str("to", fixed.Calculated.String()).
				Msg("saldo recalculado")
			corrected = append(corrected, *fixed)
		}
	}
	return corrected, nil
}

// CheckInvoiceTotals facturas cuyos totales almacenados difieren de los recalculados desde
// sus líneas. Solo informa; nunca corrige.
func (s *Service) CheckInvoiceTotals(ctx context.Context, tenantID string) ([]dto.InvoiceTotalsCheck, error) {
	if tenantID == "" {
		return nil, domain.Validationf("tenant requerido")
	}
	invoices, err := s.store.Reader().Invoices.List(ctx, tenantID, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	var out []dto.InvoiceTotalsCheck
	for _, inv := range invoices {
		computed, err := invoicing.VerifyTotals(inv)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrReconciliation) {
			return nil, err
		}
		out = append(out, dto.InvoiceTotalsCheck{
			InvoiceID:  inv.ID,
			Number:     inv.Number,
			Stored:     inv.Total,
			Calculated: computed.Total,
		})
	}
	return out, nil
}
