package ledger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	rules "github.com/jhoicas/Ledger-api/internal/domain/ledger"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

// Posting movimiento a registrar contra una cuenta.
type Posting struct {
	TenantID      string
	ActorID       string
	AccountID     string
	Direction     entity.Direction
	Amount        money.Money
	Description   string
	Reference     string
	Category      string
	Tags          []string
	EffectiveDate time.Time
	ReversalOf    string
}

type balanceAudit struct {
	Balance money.Money `json:"balance"`
	Version int64       `json:"version"`
}

// PostTransaction registra un movimiento en su propia unidad atómica, con reintentos
// ante contención sobre la cuenta.
func (s *Service) PostTransaction(ctx context.Context, tenantID, actorID string, in dto.PostTransactionRequest) (*entity.Transaction, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate, EntityType: entity.AuditEntityTransaction, EntityID: in.AccountID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	amount, err := money.Parse(in.Amount, in.Currency)
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	p := Posting{
		TenantID:    tenantID,
		ActorID:     actorID,
		AccountID:   in.AccountID,
		Direction:   entity.Direction(in.Direction),
		Amount:      amount,
		Description: in.Description,
		Reference:   in.Reference,
		Category:    in.Category,
		Tags:        in.Tags,
	}
	if in.EffectiveDate != nil {
		p.EffectiveDate = *in.EffectiveDate
	}
	var out *entity.Transaction
	err = s.atomic(ctx, "post_transaction", func(ctx context.Context, r repository.Repos) error {
		var err error
		out, err = s.PostInTx(ctx, r, p)
		return err
	})
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	return out, nil
}

// PostInTx postea dentro de la unidad atómica del caller: bloquea la cuenta, aplica el
// movimiento firmado al saldo, incrementa la versión, inserta el movimiento y registra
// dos entradas de auditoría (el movimiento y el cambio de saldo).
func (s *Service) PostInTx(ctx context.Context, r repository.Repos, p Posting) (*entity.Transaction, error) {
	acc, err := loadAccount(ctx, r, p.TenantID, p.AccountID, true)
	if err != nil {
		return nil, err
	}
	if err := rules.ValidatePosting(acc, p.Direction, p.Amount); err != nil {
		return nil, err
	}
	newBalance, err := rules.Apply(acc.Type, acc.Balance, p.Direction, p.Amount)
	if err != nil {
		return nil, err
	}

	before := balanceAudit{Balance: acc.Balance, Version: acc.Version}
	expected := acc.Version
	acc.Balance = newBalance
	acc.TypeLocked = true
	if err := r.Accounts.UpdateBalance(ctx, acc, expected); err != nil {
		return nil, err
	}

	now := s.timestamp()
	effective := p.EffectiveDate
	if effective.IsZero() {
		effective = now
	}
	tx := &entity.Transaction{
		ID:            uuid.New().String(),
		TenantID:      p.TenantID,
		AccountID:     acc.ID,
		Direction:     p.Direction,
		Amount:        p.Amount,
		Description:   strings.TrimSpace(p.Description),
		Reference:     strings.TrimSpace(p.Reference),
		Category:      p.Category,
		Tags:          slices.Clone(p.Tags),
		EffectiveDate: effective.UTC(),
		ReversalOf:    p.ReversalOf,
		CreatedBy:     p.ActorID,
		CreatedAt:     now,
	}
	if err := r.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, r.Audit, audit.Event{
		TenantID: p.TenantID, ActorID: p.ActorID, Action: entity.AuditActionCreate,
		EntityType: entity.AuditEntityTransaction, EntityID: tx.ID, New: dto.NewTransactionResponse(tx),
	}); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, r.Audit, audit.Event{
		TenantID: p.TenantID, ActorID: p.ActorID, Action: entity.AuditActionBalanceChange,
		EntityType: entity.AuditEntityAccount, EntityID: acc.ID, Field: "balance",
		Old: before, New: balanceAudit{Balance: acc.Balance, Version: acc.Version},
	}); err != nil {
		return nil, err
	}
	return tx, nil
}

// ReverseTransaction anula un movimiento con otro de sentido opuesto y mismo monto.
// Un movimiento se revierte una sola vez y un reverso no se revierte.
func (s *Service) ReverseTransaction(ctx context.Context, tenantID, actorID, txID string, in dto.ReverseTransactionRequest) (*entity.Transaction, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionReverse, EntityType: entity.AuditEntityTransaction, EntityID: txID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	var out *entity.Transaction
	err := s.atomic(ctx, "reverse_transaction", func(ctx context.Context, r repository.Repos) error {
		var err error
		out, err = s.ReverseInTx(ctx, r, tenantID, actorID, txID, in.Reason)
		return err
	})
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	return out, nil
}

// ReverseInTx revierte dentro de la unidad atómica del caller.
func (s *Service) ReverseInTx(ctx context.Context, r repository.Repos, tenantID, actorID, txID, reason string) (*entity.Transaction, error) {
	orig, err := r.Transactions.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if orig == nil || orig.TenantID != tenantID {
		return nil, domain.NotFoundf("movimiento %s no encontrado", txID)
	}
	if orig.IsReversed() {
		return nil, domain.Statef("el movimiento %s ya fue revertido por %s", orig.ID, orig.ReversedBy)
	}
	if orig.ReversalOf != "" {
		return nil, domain.Statef("el movimiento %s es un reverso y no puede revertirse", orig.ID)
	}
	desc := "Reverso: " + orig.Description
	if reason != "" {
		desc += " (" + reason + ")"
	}
	reversal, err := s.PostInTx(ctx, r, Posting{
		TenantID:    tenantID,
		ActorID:     actorID,
		AccountID:   orig.AccountID,
		Direction:   orig.Direction.Opposite(),
		Amount:      orig.Amount,
		Description: desc,
		Reference:   orig.Reference,
		Category:    orig.Category,
		Tags:        orig.Tags,
		ReversalOf:  orig.ID,
	})
	if err != nil {
		return nil, err
	}
	if err := r.Transactions.SetReversedBy(ctx, orig.ID, reversal.ID); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, r.Audit, audit.Event{
		TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionReverse,
		EntityType: entity.AuditEntityTransaction, EntityID: orig.ID, Field: "reversed_by",
		Old: nil, New: map[string]string{"reversed_by": reversal.ID, "reason": reason},
	}); err != nil {
		return nil, err
	}
	return reversal, nil
}

// CorrectTransaction reverso del original más un posteo de reemplazo, en una sola unidad.
// Los campos no indicados se toman del original.
func (s *Service) CorrectTransaction(ctx context.Context, tenantID, actorID, txID string, in dto.CorrectTransactionRequest) (reversal, replacement *entity.Transaction, err error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionUpdate, EntityType: entity.AuditEntityTransaction, EntityID: txID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, nil, s.failed(ctx, ev, err)
	}
	err = s.atomic(ctx, "correct_transaction", func(ctx context.Context, r repository.Repos) error {
		orig, err := r.Transactions.GetByID(ctx, txID)
		if err != nil {
			return err
		}
		if orig == nil || orig.TenantID != tenantID {
			return domain.NotFoundf("movimiento %s no encontrado", txID)
		}
		p := Posting{
			TenantID:      tenantID,
			ActorID:       actorID,
			AccountID:     orig.AccountID,
			Direction:     orig.Direction,
			Amount:        orig.Amount,
			Description:   orig.Description,
			Reference:     orig.Reference,
			Category:      orig.Category,
			Tags:          orig.Tags,
			EffectiveDate: orig.EffectiveDate,
		}
		if in.AccountID != "" {
			p.AccountID = in.AccountID
		}
		if in.Direction != "" {
			p.Direction = entity.Direction(in.Direction)
		}
		if in.Amount != "" {
			if p.Amount, err = money.Parse(in.Amount, orig.Amount.Currency); err != nil {
				return err
			}
		}
		if in.Description != "" {
			p.Description = in.Description
		}
		if in.Reference != "" {
			p.Reference = in.Reference
		}
		if in.EffectiveDate != nil {
			p.EffectiveDate = *in.EffectiveDate
		}

		if reversal, err = s.ReverseInTx(ctx, r, tenantID, actorID, txID, in.Reason); err != nil {
			return err
		}
		replacement, err = s.PostInTx(ctx, r, p)
		return err
	})
	if err != nil {
		return nil, nil, s.failed(ctx, ev, err)
	}
	return reversal, replacement, nil
}

// ── saldos y conciliación ─────────────────────────────────────────────────────

// GetCalculatedBalance re-deriva el saldo: apertura + fold(movimientos). No modifica nada.
func (s *Service) GetCalculatedBalance(ctx context.Context, tenantID, accountID string) (money.Money, error) {
	r := s.store.Reader()
	acc, err := loadAccount(ctx, r, tenantID, accountID, false)
	if err != nil {
		return money.Money{}, err
	}
	return calculated(ctx, r, acc)
}

// CalculatedInTx igual que GetCalculatedBalance sobre los repos del caller.
func CalculatedInTx(ctx context.Context, r repository.Repos, acc *entity.Account) (money.Money, error) {
	return calculated(ctx, r, acc)
}

func calculated(ctx context.Context, r repository.Repos, acc *entity.Account) (money.Money, error) {
	txs, err := r.Transactions.ListByAccount(ctx, acc.ID)
	if err != nil {
		return money.Money{}, err
	}
	return rules.Fold(acc, txs)
}

// Reconcile compara saldo calculado y almacenado con la cuenta bloqueada. Si coinciden,
// marca los movimientos como conciliados; si no, devuelve la divergencia sin modificar nada.
func (s *Service) Reconcile(ctx context.Context, tenantID, actorID, accountID string) (*entity.AccountReconciliation, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionReconcile, EntityType: entity.AuditEntityAccount, EntityID: accountID}
	var out *entity.AccountReconciliation
	err := s.atomic(ctx, "reconcile", func(ctx context.Context, r repository.Repos) error {
		acc, err := loadAccount(ctx, r, tenantID, accountID, true)
		if err != nil {
			return err
		}
		txs, err := r.Transactions.ListByAccount(ctx, acc.ID)
		if err != nil {
			return err
		}
		expected, err := rules.Fold(acc, txs)
		if err != nil {
			return err
		}
		diff, err := acc.Balance.Sub(expected)
		if err != nil {
			return err
		}
		now := s.timestamp()
		out = &entity.AccountReconciliation{
			AccountID:  acc.ID,
			Expected:   expected,
			Actual:     acc.Balance,
			Difference: diff,
			CheckedAt:  now,
		}
		if !diff.IsZero() {
			for _, tx := range txs {
				if !tx.Reconciled {
					out.UnreconciledTransactions = append(out.UnreconciledTransactions, tx)
				}
			}
			return nil
		}
		marked, err := r.Transactions.MarkReconciled(ctx, acc.ID, now)
		if err != nil {
			return err
		}
		out.Reconciled = true
		return s.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionReconcile,
			EntityType: entity.AuditEntityAccount, EntityID: acc.ID,
			New: map[string]any{"balance": acc.Balance, "marked": marked},
		})
	})
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	if !out.Reconciled {
		s.log.Warn().
			Str("tenant_id", tenantID).
			Str("account_id", accountID).
			Str("expected", out.Expected.String()).
			Str("actual", out.Actual.String()).
			Msg("saldo almacenado no coincide con el calculado")
		s.audit.RecordFailure(ctx, ev, domain.Reconciliationf(
			"cuenta %s: almacenado %s, calculado %s", accountID, out.Actual, out.Expected))
	}
	return out, nil
}

// ── lecturas ──────────────────────────────────────────────────────────────────

// GetTransaction lee un movimiento del tenant.
func (s *Service) GetTransaction(ctx context.Context, tenantID, id string) (*entity.Transaction, error) {
	tx, err := s.store.Reader().Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.TenantID != tenantID {
		return nil, domain.NotFoundf("movimiento %s no encontrado", id)
	}
	return tx, nil
}

// ListTransactions movimientos del tenant con filtros.
func (s *Service) ListTransactions(ctx context.Context, tenantID string, q dto.TransactionQuery) ([]*entity.Transaction, error) {
	if err := dto.Validate(q); err != nil {
		return nil, err
	}
	q.DefaultPage()
	return s.store.Reader().Transactions.ListByTenant(ctx, tenantID, repository.TransactionFilter{
		AccountID: q.AccountID,
		Reference: q.Reference,
		From:      q.From,
		To:        q.To,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
}
