package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/pkg/jwt"
)

// run ejecuta la CLI contra el almacén en memoria.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "no-existe.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestSequencePeek_SinEmisiones(t *testing.T) {
	out, err := run(t, "sequence", "peek", "--tenant", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1/invoice: 0\n", out)
}

func TestReconcile_RequiereTenant(t *testing.T) {
	_, err := run(t, "reconcile")
	assert.ErrorContains(t, err, "--tenant")
}

func TestReconcile_JSON(t *testing.T) {
	out, err := run(t, "reconcile", "--tenant", "t1", "--json", "--invoices")
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "t1", report["tenant_id"])
	assert.EqualValues(t, 0, report["drifted"])
}

func TestRepair_SinCuentas(t *testing.T) {
	out, err := run(t, "repair", "--tenant", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "0 saldos corregidos")
}

func TestMigrate_RequierePostgres(t *testing.T) {
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "STORE_DRIVER=postgres")
}

func TestToken_FirmaConElSecretoConfigurado(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	out, err := run(t, "token", "--tenant", "t1", "--user", "erp", "--role", "auditor")
	require.NoError(t, err)

	claims, err := jwt.Parse("s3cr3t", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.CompanyID)
	assert.Equal(t, "erp", claims.UserID)
	assert.Equal(t, jwt.RoleAuditor, claims.Role)
}

func TestToken_RolDesconocido(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	_, err := run(t, "token", "--tenant", "t1", "--user", "erp", "--role", "bodeguero")
	assert.ErrorContains(t, err, "--role")
}
