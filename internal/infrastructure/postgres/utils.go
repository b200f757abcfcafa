package postgres

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// Querier lo común entre *pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// classify traduce errores de PostgreSQL a la taxonomía del dominio: duplicados como
// Duplicate; serialización, deadlock y lock_timeout como ConcurrencyFault (reintentables).
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return domain.Duplicatef("%s: %s", op, pgErr.ConstraintName)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return domain.Conflictf("%s: %s (%s)", op, pgErr.Message, pgErr.Code)
		}
	}
	return errors.Wrap(err, op)
}

// nullIfEmpty convierte "" en NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// mon arma un Money desde sus columnas (monto en unidades menores + moneda).
func mon(amount int64, currency string) money.Money {
	return money.Money{Amount: amount, Currency: currency}
}

// stringsOrEmpty evita NULL en columnas TEXT[] NOT NULL.
func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
