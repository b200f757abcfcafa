package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.Store = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (read committed).
// Cada transacción fija lock_timeout: una fila bloqueada más tiempo del permitido
// devuelve 55P03, que se clasifica como ConcurrencyFault.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout <= 0 usa 2s.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	if lockTimeout <= 0 {
		lockTimeout = 2 * time.Second
	}
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return classify(err, "set lock_timeout")
	}
	if err := fn(ctx, repos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(err, "commit transaction")
	}
	return nil
}

// Reader repos sobre el pool: cada sentencia en su propia transacción implícita.
func (r *TxRunner) Reader() repository.Repos {
	return repos(r.pool)
}

// Pool devuelve el pool subyacente.
func (r *TxRunner) Pool() *pgxpool.Pool { return r.pool }

func repos(q Querier) repository.Repos {
	return repository.Repos{
		Accounts:     NewAccountRepository(q),
		Transactions: NewTransactionRepository(q),
		Invoices:     NewInvoiceRepository(q),
		Payments:     NewPaymentRepository(q),
		Sequences:    NewSequenceRepository(q),
		Audit:        NewAuditRepository(q),
		Customers:    NewCustomerRepository(q),
		Companies:    NewCompanyRepository(q),
	}
}
