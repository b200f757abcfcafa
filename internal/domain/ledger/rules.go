// Package ledger contiene las reglas puras del plan de cuentas: convención de signos,
// fold de saldos, matriz tipo/categoría, máquina de estados y detección de ciclos.
package ledger

import (
	"sort"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

var categoriesByType = map[entity.AccountType][]entity.AccountCategory{
	entity.AccountTypeAsset: {
		entity.CategoryCurrentAssets, entity.CategoryCash, entity.CategoryAccountsReceivable,
		entity.CategoryInventory, entity.CategoryFixedAssets, entity.CategoryOtherAssets,
	},
	entity.AccountTypeLiability: {
		entity.CategoryCurrentLiabilities, entity.CategoryAccountsPayable,
		entity.CategoryTaxPayable, entity.CategoryLongTermLiabilities,
	},
	entity.AccountTypeEquity: {
		entity.CategoryOwnerEquity, entity.CategoryRetainedEarnings,
	},
	entity.AccountTypeRevenue: {
		entity.CategoryOperatingRevenue, entity.CategoryOtherRevenue,
	},
	entity.AccountTypeExpense: {
		entity.CategoryCostOfGoodsSold, entity.CategoryOperatingExpenses, entity.CategoryOtherExpenses,
	},
}

// CategoriesFor categorías válidas para un tipo de cuenta.
func CategoriesFor(t entity.AccountType) []entity.AccountCategory {
	return categoriesByType[t]
}

// ValidateType verifica que el tipo exista.
func ValidateType(t entity.AccountType) error {
	if _, ok := categoriesByType[t]; !ok {
		return domain.Validationf("tipo de cuenta desconocido %q", t)
	}
	return nil
}

// ValidateCategory rechaza combinaciones como CURRENT_ASSETS bajo LIABILITY.
func ValidateCategory(t entity.AccountType, c entity.AccountCategory) error {
	if err := ValidateType(t); err != nil {
		return err
	}
	for _, allowed := range categoriesByType[t] {
		if allowed == c {
			return nil
		}
	}
	return domain.Validationf("la categoría %s no corresponde al tipo %s", c, t)
}

// Signed aplica la convención de signos: DEBIT aumenta ASSET/EXPENSE y disminuye
// LIABILITY/EQUITY/REVENUE; CREDIT es el inverso.
func Signed(t entity.AccountType, d entity.Direction, amount money.Money) money.Money {
	debitNormal := t == entity.AccountTypeAsset || t == entity.AccountTypeExpense
	if (d == entity.DirectionDebit) == debitNormal {
		return amount
	}
	return amount.Neg()
}

// Apply devuelve el saldo tras aplicar un movimiento.
func Apply(t entity.AccountType, balance money.Money, d entity.Direction, amount money.Money) (money.Money, error) {
	return balance.Add(Signed(t, d, amount))
}

// Fold deriva el saldo: apertura + Σ movimientos firmados. Nunca lee el saldo almacenado.
func Fold(acc *entity.Account, txs []*entity.Transaction) (money.Money, error) {
	balance := acc.OpeningBalance
	for _, tx := range txs {
		if tx.AccountID != acc.ID {
			continue
		}
		var err error
		if balance, err = Apply(acc.Type, balance, tx.Direction, tx.Amount); err != nil {
			return money.Money{}, err
		}
	}
	return balance, nil
}

// ValidatePosting reglas previas a un posteo: cuenta no archivada, monto > 0, misma moneda.
func ValidatePosting(acc *entity.Account, d entity.Direction, amount money.Money) error {
	if acc.Status == entity.AccountStatusArchived {
		return domain.Statef("la cuenta %s está archivada y no admite movimientos", acc.Code)
	}
	if d != entity.DirectionDebit && d != entity.DirectionCredit {
		return domain.Validationf("dirección inválida %q", d)
	}
	if !amount.IsPositive() {
		return domain.Validationf("el monto debe ser mayor que cero: %s", amount)
	}
	if amount.Currency != acc.Currency {
		return domain.CurrencyMismatch(amount.Currency, acc.Currency)
	}
	return nil
}

// ── estados ───────────────────────────────────────────────────────────────────

// ValidateStatusTransition ACTIVE ⇄ INACTIVE; ACTIVE/INACTIVE → ARCHIVED; ARCHIVED es terminal.
func ValidateStatusTransition(from, to entity.AccountStatus) error {
	switch {
	case from == entity.AccountStatusArchived:
		return domain.InvalidTransition("cuenta", string(from), string(to))
	case from == to:
		return domain.InvalidTransition("cuenta", string(from), string(to))
	case to == entity.AccountStatusActive, to == entity.AccountStatusInactive, to == entity.AccountStatusArchived:
		return nil
	}
	return domain.Validationf("estado de cuenta desconocido %q", to)
}

// ── jerarquía ─────────────────────────────────────────────────────────────────

// ParentLookup resuelve el padre de una cuenta ("" si es raíz).
type ParentLookup func(accountID string) (parentID string, err error)

// CheckReparent recorre la cadena de ancestros del nuevo padre; si encuentra a la
// propia cuenta, el cambio crearía un ciclo. maxDepth acota el recorrido ante datos corruptos.
func CheckReparent(accountID, newParentID string, parentOf ParentLookup, maxDepth int) error {
	if newParentID == "" {
		return nil
	}
	if newParentID == accountID {
		return domain.CycleDetected(accountID, newParentID)
	}
	seen := make(map[string]struct{})
	current := newParentID
	for depth := 0; current != ""; depth++ {
		if current == accountID {
			return domain.CycleDetected(accountID, newParentID)
		}
		if _, dup := seen[current]; dup || depth > maxDepth {
			return domain.CycleDetected(accountID, newParentID)
		}
		seen[current] = struct{}{}
		parent, err := parentOf(current)
		if err != nil {
			return err
		}
		current = parent
	}
	return nil
}

// Node cuenta con sus hijos ordenados por código.
type Node struct {
	Account  *entity.Account
	Children []*Node
}

// BuildTree arma el árbol de cuentas. Si rootID no es vacío devuelve solo ese subárbol.
// Las cuentas cuyo padre no está en el conjunto se tratan como raíces.
func BuildTree(accounts []*entity.Account, rootID string) []*Node {
	nodes := make(map[string]*Node, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &Node{Account: a}
	}
	var roots []*Node
	for _, a := range accounts {
		n := nodes[a.ID]
		if parent, ok := nodes[a.ParentIDValue()]; ok && a.ParentID != nil {
			parent.Children = append(parent.Children, n)
			continue
		}
		roots = append(roots, n)
	}
	for _, n := range nodes {
		sortByCode(n.Children)
	}
	sortByCode(roots)
	if rootID != "" {
		if n, ok := nodes[rootID]; ok {
			return []*Node{n}
		}
		return nil
	}
	return roots
}

func sortByCode(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Account.Code < nodes[j].Account.Code
	})
}
