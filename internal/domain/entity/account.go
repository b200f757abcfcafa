package entity

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// AccountType clase contable fundamental de una cuenta.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountCategory subclasificación dentro del tipo (ver ledger.CategoriesFor).
type AccountCategory string

const (
	CategoryCurrentAssets       AccountCategory = "CURRENT_ASSETS"
	CategoryCash                AccountCategory = "CASH"
	CategoryAccountsReceivable  AccountCategory = "ACCOUNTS_RECEIVABLE"
	CategoryInventory           AccountCategory = "INVENTORY"
	CategoryFixedAssets         AccountCategory = "FIXED_ASSETS"
	CategoryOtherAssets         AccountCategory = "OTHER_ASSETS"
	CategoryCurrentLiabilities  AccountCategory = "CURRENT_LIABILITIES"
	CategoryAccountsPayable     AccountCategory = "ACCOUNTS_PAYABLE"
	CategoryTaxPayable          AccountCategory = "TAX_PAYABLE"
	CategoryLongTermLiabilities AccountCategory = "LONG_TERM_LIABILITIES"
	CategoryOwnerEquity         AccountCategory = "OWNER_EQUITY"
	CategoryRetainedEarnings    AccountCategory = "RETAINED_EARNINGS"
	CategoryOperatingRevenue    AccountCategory = "OPERATING_REVENUE"
	CategoryOtherRevenue        AccountCategory = "OTHER_REVENUE"
	CategoryCostOfGoodsSold     AccountCategory = "COST_OF_GOODS_SOLD"
	CategoryOperatingExpenses   AccountCategory = "OPERATING_EXPENSES"
	CategoryOtherExpenses       AccountCategory = "OTHER_EXPENSES"
)

// AccountStatus estado del ciclo de vida: ACTIVE ⇄ INACTIVE, ambos → ARCHIVED (terminal).
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusArchived AccountStatus = "ARCHIVED"
)

// Account nodo del plan de cuentas de un tenant.
// Balance es el último saldo persistido; debe ser igual a OpeningBalance + Σ transacciones firmadas.
type Account struct {
	ID             string
	TenantID       string
	Code           string
	Name           string
	Type           AccountType
	Category       AccountCategory
	Status         AccountStatus
	Currency       string
	OpeningBalance money.Money
	Balance        money.Money
	ParentID       *string
	IsSystem       bool
	IsReconcilable bool
	IsTaxable      bool
	TypeLocked     bool  // true desde el primer posteo: el tipo ya no puede cambiar
	Version        int64 // se incrementa en cada escritura de saldo
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ParentIDValue devuelve el padre o "" si la cuenta es raíz.
func (a *Account) ParentIDValue() string {
	if a.ParentID == nil {
		return ""
	}
	return *a.ParentID
}

// AccountReconciliation resultado de comparar saldo calculado vs almacenado.
type AccountReconciliation struct {
	AccountID                string
	Expected                 money.Money // calculado desde el historial
	Actual                   money.Money // saldo almacenado
	Difference               money.Money // Actual - Expected
	Reconciled               bool
	UnreconciledTransactions []*Transaction
	CheckedAt                time.Time
}
