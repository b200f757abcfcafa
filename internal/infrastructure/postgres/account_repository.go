package postgres

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo implementación de AccountRepository (usable con pool o tx).
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

const accountColumns = `id, tenant_id, code, name, type, category, status, currency,
	opening_balance, balance, parent_id, is_system, is_reconcilable, is_taxable,
	type_locked, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*entity.Account, error) {
	var (
		a                entity.Account
		opening, balance int64
		typ, cat, status string
	)
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &typ, &cat, &status, &a.Currency,
		&opening, &balance, &a.ParentID, &a.IsSystem, &a.IsReconcilable, &a.IsTaxable,
		&a.TypeLocked, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type, a.Category, a.Status = entity.AccountType(typ), entity.AccountCategory(cat), entity.AccountStatus(status)
	a.OpeningBalance, a.Balance = mon(opening, a.Currency), mon(balance, a.Currency)
	return &a, nil
}

// Create persiste una cuenta nueva. Un código repetido en el tenant devuelve Duplicate.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.TenantID, a.Code, a.Name, string(a.Type), string(a.Category), string(a.Status), a.Currency,
		a.OpeningBalance.Amount, a.Balance.Amount, a.ParentID, a.IsSystem, a.IsReconcilable, a.IsTaxable,
		a.TypeLocked, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Duplicatef("ya existe una cuenta con código %s", a.Code)
		}
		return classify(err, "insert account")
	}
	return nil
}

func (r *AccountRepo) get(ctx context.Context, query string, args ...any) (*entity.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, classify(err, "get account")
	}
	return a, nil
}

// GetByID obtiene una cuenta por ID.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción.
func (r *AccountRepo) GetForUpdate(ctx context.Context, id string) (*entity.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

// GetByCode obtiene una cuenta por tenant y código.
func (r *AccountRepo) GetByCode(ctx context.Context, tenantID, code string) (*entity.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND code = $2`, tenantID, code)
}

// ListByTenant cuentas del tenant ordenadas por código.
func (r *AccountRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Account, error) {
	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, classify(err, "list accounts")
	}
	defer rows.Close()
	var list []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, classify(err, "scan account")
		}
		list = append(list, a)
	}
	return list, classify(rows.Err(), "list accounts")
}

// Update persiste metadatos. Saldo, versión y código no cambian por esta vía.
func (r *AccountRepo) Update(ctx context.Context, a *entity.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, type = $3, category = $4, status = $5, parent_id = $6,
		    is_system = $7, is_reconcilable = $8, is_taxable = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		a.ID, a.Name, string(a.Type), string(a.Category), string(a.Status), a.ParentID,
		a.IsSystem, a.IsReconcilable, a.IsTaxable,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.NotFoundf("cuenta %s no encontrada", a.ID)
		}
		return classify(err, "update account")
	}
	return nil
}

// UpdateBalance escritura con control optimista de versión.
func (r *AccountRepo) UpdateBalance(ctx context.Context, a *entity.Account, expectedVersion int64) error {
	query := `
		UPDATE accounts
		SET balance = $2, type_locked = type_locked OR $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $4
		RETURNING version, type_locked, updated_at`
	err := r.q.QueryRow(ctx, query, a.ID, a.Balance.Amount, a.TypeLocked, expectedVersion).
		Scan(&a.Version, &a.TypeLocked, &a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.Conflictf("cuenta %s: versión distinta de %d", a.ID, expectedVersion)
		}
		return classify(err, "update balance")
	}
	return nil
}

// LockHierarchy advisory lock de transacción por tenant; se libera con commit o rollback.
func (r *AccountRepo) LockHierarchy(ctx context.Context, tenantID string) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('account_hierarchy'), hashtext($1))`, tenantID)
	return classify(err, "lock hierarchy")
}

// CountChildren número de subcuentas directas.
func (r *AccountRepo) CountChildren(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE parent_id = $1`, id).Scan(&n); err != nil {
		return 0, classify(err, "count children")
	}
	return n, nil
}

// Delete elimina una cuenta por ID.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete account")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("cuenta %s no encontrada", id)
	}
	return nil
}
