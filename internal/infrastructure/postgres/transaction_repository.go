package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo movimientos del libro. Solo inserción, marca de conciliación y enlace de reverso.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

const transactionColumns = `id, tenant_id, account_id, direction, amount, currency, description,
	reference, category, tags, effective_date, reconciled, reconciled_at, reversal_of, reversed_by,
	created_by, created_at`

func scanTransaction(row rowScanner) (*entity.Transaction, error) {
	var (
		t                      entity.Transaction
		direction, currency    string
		amount                 int64
		reversalOf, reversedBy *string
	)
	err := row.Scan(&t.ID, &t.TenantID, &t.AccountID, &direction, &amount, &currency, &t.Description,
		&t.Reference, &t.Category, &t.Tags, &t.EffectiveDate, &t.Reconciled, &t.ReconciledAt,
		&reversalOf, &reversedBy, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Direction = entity.Direction(direction)
	t.Amount = mon(amount, currency)
	t.ReversalOf, t.ReversedBy = deref(reversalOf), deref(reversedBy)
	return &t, nil
}

// Create inserta un movimiento.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.AccountID, string(t.Direction), t.Amount.Amount, t.Amount.Currency, t.Description,
		t.Reference, t.Category, tags, t.EffectiveDate, t.Reconciled, t.ReconciledAt,
		nullIfEmpty(t.ReversalOf), nullIfEmpty(t.ReversedBy), t.CreatedBy, t.CreatedAt,
	)
	return classify(err, "insert transaction")
}

// GetByID obtiene un movimiento por ID.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, classify(err, "get transaction")
	}
	return t, nil
}

func (r *TransactionRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Transaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list transactions")
	}
	defer rows.Close()
	var list []*entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, classify(err, "scan transaction")
		}
		list = append(list, t)
	}
	return list, classify(rows.Err(), "list transactions")
}

// ListByAccount historial completo de la cuenta en orden de registro.
func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID string) ([]*entity.Transaction, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE account_id = $1 ORDER BY created_at, id`, accountID)
}

// ListByTenant movimientos filtrados del tenant.
func (r *TransactionRepo) ListByTenant(ctx context.Context, tenantID string, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.AccountID != "" {
		add("account_id = $%d", f.AccountID)
	}
	if f.Reference != "" {
		add("reference = $%d", f.Reference)
	}
	if f.From != nil {
		add("effective_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("effective_date <= $%d", *f.To)
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return r.list(ctx, query, args...)
}

// CountByAccount número de movimientos de la cuenta.
func (r *TransactionRepo) CountByAccount(ctx context.Context, accountID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&n); err != nil {
		return 0, classify(err, "count transactions")
	}
	return n, nil
}

// MarkReconciled marca los pendientes de la cuenta.
func (r *TransactionRepo) MarkReconciled(ctx context.Context, accountID string, at time.Time) (int, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE transactions SET reconciled = TRUE, reconciled_at = $2 WHERE account_id = $1 AND NOT reconciled`,
		accountID, at)
	if err != nil {
		return 0, classify(err, "mark reconciled")
	}
	return int(tag.RowsAffected()), nil
}

// SetReversedBy enlaza el reverso. Un movimiento se revierte una sola vez.
func (r *TransactionRepo) SetReversedBy(ctx context.Context, id, reversalID string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE transactions SET reversed_by = $2 WHERE id = $1 AND reversed_by IS NULL`, id, reversalID)
	if err != nil {
		return classify(err, "set reversed_by")
	}
	if tag.RowsAffected() == 0 {
		return domain.Statef("el movimiento %s no existe o ya fue revertido", id)
	}
	return nil
}
