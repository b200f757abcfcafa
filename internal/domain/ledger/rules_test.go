package ledger_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/ledger"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

func usd(s string) money.Money { return money.MustParse(s, "USD") }

// ── convención de signos ──────────────────────────────────────────────────────

func TestSigned_ConvencionPorTipo(t *testing.T) {
	cases := []struct {
		typ  entity.AccountType
		dir  entity.Direction
		want int64
	}{
		{entity.AccountTypeAsset, entity.DirectionDebit, 1000},
		{entity.AccountTypeAsset, entity.DirectionCredit, -1000},
		{entity.AccountTypeExpense, entity.DirectionDebit, 1000},
		{entity.AccountTypeLiability, entity.DirectionDebit, -1000},
		{entity.AccountTypeLiability, entity.DirectionCredit, 1000},
		{entity.AccountTypeEquity, entity.DirectionCredit, 1000},
		{entity.AccountTypeRevenue, entity.DirectionDebit, -1000},
		{entity.AccountTypeRevenue, entity.DirectionCredit, 1000},
	}
	for _, c := range cases {
		got := ledger.Signed(c.typ, c.dir, usd("10.00"))
		assert.Equal(t, c.want, got.Amount, "%s %s", c.typ, c.dir)
	}
}

func TestFold_DebitoYCreditoEnActivo(t *testing.T) {
	acc := &entity.Account{ID: "a", Type: entity.AccountTypeAsset, Currency: "USD", OpeningBalance: usd("0")}
	txs := []*entity.Transaction{
		{AccountID: "a", Direction: entity.DirectionDebit, Amount: usd("100.00")},
		{AccountID: "a", Direction: entity.DirectionCredit, Amount: usd("30.00")},
		{AccountID: "otra", Direction: entity.DirectionDebit, Amount: usd("999.00")},
	}
	got, err := ledger.Fold(acc, txs)
	require.NoError(t, err)
	assert.Equal(t, usd("70.00"), got)
}

// ── validaciones ──────────────────────────────────────────────────────────────

func TestValidateCategory_RechazaCategoriaDeOtroTipo(t *testing.T) {
	err := ledger.ValidateCategory(entity.AccountTypeLiability, entity.CategoryCurrentAssets)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	assert.NoError(t, ledger.ValidateCategory(entity.AccountTypeAsset, entity.CategoryCash))
}

func TestValidatePosting(t *testing.T) {
	acc := &entity.Account{Code: "1100", Currency: "USD", Status: entity.AccountStatusActive}

	assert.NoError(t, ledger.ValidatePosting(acc, entity.DirectionDebit, usd("1.00")))
	assert.True(t, errors.Is(ledger.ValidatePosting(acc, entity.DirectionDebit, usd("0")), domain.ErrValidation))
	assert.True(t, errors.Is(ledger.ValidatePosting(acc, entity.DirectionDebit, money.MustParse("1", "EUR")), domain.ErrCurrencyMismatch))

	acc.Status = entity.AccountStatusInactive
	assert.NoError(t, ledger.ValidatePosting(acc, entity.DirectionCredit, usd("1.00")))

	acc.Status = entity.AccountStatusArchived
	assert.True(t, errors.Is(ledger.ValidatePosting(acc, entity.DirectionDebit, usd("1.00")), domain.ErrState))
}

func TestValidateStatusTransition(t *testing.T) {
	assert.NoError(t, ledger.ValidateStatusTransition(entity.AccountStatusActive, entity.AccountStatusInactive))
	assert.NoError(t, ledger.ValidateStatusTransition(entity.AccountStatusInactive, entity.AccountStatusActive))
	assert.NoError(t, ledger.ValidateStatusTransition(entity.AccountStatusInactive, entity.AccountStatusArchived))

	err := ledger.ValidateStatusTransition(entity.AccountStatusArchived, entity.AccountStatusActive)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.True(t, errors.Is(err, domain.ErrState))
}

// ── jerarquía ─────────────────────────────────────────────────────────────────

func TestCheckReparent_BajoDescendienteEsCiclo(t *testing.T) {
	// X -> Y -> Z
	parents := map[string]string{"X": "", "Y": "X", "Z": "Y"}
	lookup := func(id string) (string, error) { return parents[id], nil }

	err := ledger.CheckReparent("X", "Z", lookup, 64)
	assert.True(t, errors.Is(err, domain.ErrIntegrity))
	assert.True(t, errors.Is(err, domain.ErrCycleDetected))

	assert.True(t, errors.Is(ledger.CheckReparent("X", "X", lookup, 64), domain.ErrIntegrity))
	assert.NoError(t, ledger.CheckReparent("Z", "X", lookup, 64))
	assert.NoError(t, ledger.CheckReparent("Z", "", lookup, 64))
}

func TestBuildTree_OrdenaHijosPorCodigo(t *testing.T) {
	root := "r"
	accounts := []*entity.Account{
		{ID: "c", Code: "1300", ParentID: &root},
		{ID: "r", Code: "1000"},
		{ID: "b", Code: "1100", ParentID: &root},
		{ID: "x", Code: "2000"},
	}
	tree := ledger.BuildTree(accounts, "")
	require.Len(t, tree, 2)
	assert.Equal(t, "1000", tree[0].Account.Code)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "1100", tree[0].Children[0].Account.Code)
	assert.Equal(t, "1300", tree[0].Children[1].Account.Code)

	sub := ledger.BuildTree(accounts, "r")
	require.Len(t, sub, 1)
	assert.Len(t, sub[0].Children, 2)
}
