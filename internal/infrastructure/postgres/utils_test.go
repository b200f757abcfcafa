package postgres_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/postgres"
)

// ── classify ──

func TestClassify_UnicoEsDuplicate(t *testing.T) {
	err := postgres.Classify(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_tenant_id_code_key"}, "insert account")
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
	assert.Contains(t, err.Error(), "accounts_tenant_id_code_key")
}

func TestClassify_ContencionEsReintentable(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := postgres.Classify(&pgconn.PgError{Code: code, Message: "x"}, "update balance")
		assert.True(t, errors.Is(err, domain.ErrConcurrency), code)
		assert.True(t, domain.IsRetryable(err), code)
	}
}

func TestClassify_OtrosErroresSeEnvuelven(t *testing.T) {
	assert.NoError(t, postgres.Classify(nil, "noop"))

	cause := errors.New("conexión cerrada")
	err := postgres.Classify(cause, "get account")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "INTERNAL", domain.Category(err))
}

// ── migraciones ──

func TestMigrations_VersionesOrdenadasYUnicas(t *testing.T) {
	require.NotEmpty(t, postgres.Migrations)
	for i := 1; i < len(postgres.Migrations); i++ {
		assert.Less(t, postgres.Migrations[i-1].Version, postgres.Migrations[i].Version)
	}
	for _, m := range postgres.Migrations {
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.Up)
	}
}
