package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration cambio de esquema versionado. Version ordena la aplicación.
type Migration struct {
	Version string
	Name    string
	Up      string
}

// Migrations esquema del libro y la facturación. Los montos se guardan en unidades menores
// (BIGINT) junto a su moneda; cantidades y tasas como NUMERIC.
var Migrations = []Migration{
	{
		Version: "20260101000001",
		Name:    "create_companies_customers",
		Up: `
CREATE TABLE IF NOT EXISTS companies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    tax_id     TEXT NOT NULL,
    address    TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    currency   CHAR(3) NOT NULL DEFAULT 'USD',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS customers (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    name       TEXT NOT NULL,
    tax_id     TEXT NOT NULL,
    address    TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_tenant_tax ON customers (tenant_id, tax_id);
`,
	},
	{
		Version: "20260101000002",
		Name:    "create_accounts_transactions",
		Up: `
CREATE TABLE IF NOT EXISTS accounts (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    code            TEXT NOT NULL,
    name            TEXT NOT NULL,
    type            TEXT NOT NULL,
    category        TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'ACTIVE',
    currency        CHAR(3) NOT NULL,
    opening_balance BIGINT NOT NULL DEFAULT 0,
    balance         BIGINT NOT NULL DEFAULT 0,
    parent_id       TEXT REFERENCES accounts (id),
    is_system       BOOLEAN NOT NULL DEFAULT FALSE,
    is_reconcilable BOOLEAN NOT NULL DEFAULT FALSE,
    is_taxable      BOOLEAN NOT NULL DEFAULT FALSE,
    type_locked     BOOLEAN NOT NULL DEFAULT FALSE,
    version         BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_tenant_code ON accounts (tenant_id, code);
CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts (parent_id);

CREATE TABLE IF NOT EXISTS transactions (
    id             TEXT PRIMARY KEY,
    tenant_id      TEXT NOT NULL,
    account_id     TEXT NOT NULL REFERENCES accounts (id),
    direction      TEXT NOT NULL CHECK (direction IN ('DEBIT', 'CREDIT')),
    amount         BIGINT NOT NULL CHECK (amount > 0),
    currency       CHAR(3) NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    reference      TEXT NOT NULL DEFAULT '',
    category       TEXT NOT NULL DEFAULT '',
    tags           TEXT[] NOT NULL DEFAULT '{}',
    effective_date TIMESTAMPTZ NOT NULL,
    reconciled     BOOLEAN NOT NULL DEFAULT FALSE,
    reconciled_at  TIMESTAMPTZ,
    reversal_of    TEXT REFERENCES transactions (id),
    reversed_by    TEXT REFERENCES transactions (id),
    created_by     TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_tenant ON transactions (tenant_id, effective_date);
CREATE INDEX IF NOT EXISTS idx_transactions_reference ON transactions (tenant_id, reference);
`,
	},
	{
		Version: "20260101000003",
		Name:    "create_invoices_payments",
		Up: `
CREATE TABLE IF NOT EXISTS invoices (
    id                     TEXT PRIMARY KEY,
    tenant_id              TEXT NOT NULL,
    customer_id            TEXT NOT NULL REFERENCES customers (id),
    number                 TEXT NOT NULL,
    number_final           BOOLEAN NOT NULL DEFAULT FALSE,
    status                 TEXT NOT NULL,
    currency               CHAR(3) NOT NULL,
    issue_date             TIMESTAMPTZ,
    due_date               TIMESTAMPTZ,
    subtotal               BIGINT NOT NULL DEFAULT 0,
    tax_amount             BIGINT NOT NULL DEFAULT 0,
    vat_amount             BIGINT NOT NULL DEFAULT 0,
    total                  BIGINT NOT NULL DEFAULT 0,
    snapshot               JSONB,
    receivable_account_id  TEXT,
    ledger_transaction_ids TEXT[] NOT NULL DEFAULT '{}',
    notes                  TEXT NOT NULL DEFAULT '',
    duplicated_from        TEXT,
    void_reason            TEXT NOT NULL DEFAULT '',
    finalized_at           TIMESTAMPTZ,
    voided_at              TIMESTAMPTZ,
    paid_at                TIMESTAMPTZ,
    version                BIGINT NOT NULL DEFAULT 0,
    created_by             TEXT NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_tenant_number ON invoices (tenant_id, number);
CREATE INDEX IF NOT EXISTS idx_invoices_tenant_status ON invoices (tenant_id, status, created_at DESC);

CREATE TABLE IF NOT EXISTS invoice_items (
    id          TEXT PRIMARY KEY,
    invoice_id  TEXT NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
    position    INT NOT NULL,
    description TEXT NOT NULL,
    quantity    NUMERIC(18, 6) NOT NULL,
    unit_price  BIGINT NOT NULL,
    tax_rate    NUMERIC(9, 6) NOT NULL DEFAULT 0,
    vat_rate    NUMERIC(9, 6) NOT NULL DEFAULT 0,
    amount      BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items (invoice_id, position);

CREATE TABLE IF NOT EXISTS payments (
    id                     TEXT PRIMARY KEY,
    tenant_id              TEXT NOT NULL,
    invoice_id             TEXT NOT NULL REFERENCES invoices (id),
    amount                 BIGINT NOT NULL CHECK (amount > 0),
    currency               CHAR(3) NOT NULL,
    status                 TEXT NOT NULL,
    method                 TEXT NOT NULL DEFAULT '',
    reference              TEXT NOT NULL DEFAULT '',
    received_at            TIMESTAMPTZ NOT NULL,
    deposit_account_id     TEXT REFERENCES accounts (id),
    ledger_transaction_ids TEXT[] NOT NULL DEFAULT '{}',
    created_by             TEXT NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments (invoice_id, created_at);
`,
	},
	{
		Version: "20260101000004",
		Name:    "create_sequences_audit",
		Up: `
CREATE TABLE IF NOT EXISTS sequences (
    tenant_id  TEXT NOT NULL,
    name       TEXT NOT NULL,
    last_value BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tenant_id, name)
);

CREATE TABLE IF NOT EXISTS audit_log (
    id          TEXT PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    actor_id    TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL DEFAULT '',
    field       TEXT NOT NULL DEFAULT '',
    old_value   JSONB,
    new_value   JSONB,
    outcome     TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    checksum    TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_tenant_entity ON audit_log (tenant_id, entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_tenant_created ON audit_log (tenant_id, created_at);

-- bitácora append-only
REVOKE UPDATE, DELETE ON audit_log FROM PUBLIC;
`,
	},
}

// Migrate aplica en orden las migraciones pendientes, cada una en su propia transacción,
// y devuelve los nombres aplicados.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, fmt.Errorf("crear schema_migrations: %w", err)
	}

	var applied []string
	for _, m := range Migrations {
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return nil
			}
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
				return err
			}
			applied = append(applied, m.Name)
			return nil
		})
		if err != nil {
			return applied, fmt.Errorf("migración %s: %w", m.Name, err)
		}
	}
	return applied, nil
}
