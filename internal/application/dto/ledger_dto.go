package dto

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// CreateAccountRequest body para POST /api/accounts.
// OpeningBalance en unidades mayores ("1500.00"); vacío = 0.
type CreateAccountRequest struct {
	Code           string  `json:"code" validate:"required,max=32"`
	Name           string  `json:"name" validate:"required,max=200"`
	Type           string  `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Category       string  `json:"category" validate:"required"`
	Currency       string  `json:"currency" validate:"omitempty,len=3"`
	OpeningBalance string  `json:"opening_balance" validate:"omitempty,numeric"`
	ParentID       *string `json:"parent_id,omitempty"`
	IsSystem       bool    `json:"is_system"`
	IsReconcilable bool    `json:"is_reconcilable"`
	IsTaxable      bool    `json:"is_taxable"`
}

// UpdateAccountRequest body para PATCH /api/accounts/:id (campos opcionales).
// ClearParent = true convierte la cuenta en raíz.
type UpdateAccountRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=200"`
	Type           *string `json:"type" validate:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Category       *string `json:"category"`
	ParentID       *string `json:"parent_id"`
	ClearParent    bool    `json:"clear_parent"`
	IsReconcilable *bool   `json:"is_reconcilable"`
	IsTaxable      *bool   `json:"is_taxable"`
}

// PostTransactionRequest body para POST /api/transactions.
type PostTransactionRequest struct {
	AccountID     string     `json:"account_id" validate:"required"`
	Direction     string     `json:"direction" validate:"required,oneof=DEBIT CREDIT"`
	Amount        string     `json:"amount" validate:"required,numeric"`
	Currency      string     `json:"currency" validate:"required,len=3"`
	Description   string     `json:"description" validate:"max=500"`
	Reference     string     `json:"reference" validate:"max=100"`
	Category      string     `json:"category" validate:"max=100"`
	Tags          []string   `json:"tags" validate:"max=20,dive,max=50"`
	EffectiveDate *time.Time `json:"effective_date"`
}

// CorrectTransactionRequest corrección por reverso + nuevo posteo; los campos vacíos se copian del original.
type CorrectTransactionRequest struct {
	AccountID     string     `json:"account_id"`
	Direction     string     `json:"direction" validate:"omitempty,oneof=DEBIT CREDIT"`
	Amount        string     `json:"amount" validate:"omitempty,numeric"`
	Description   string     `json:"description" validate:"max=500"`
	Reference     string     `json:"reference" validate:"max=100"`
	EffectiveDate *time.Time `json:"effective_date"`
	Reason        string     `json:"reason" validate:"required,max=500"`
}

// ReverseTransactionRequest body para POST /api/transactions/:id/reverse.
type ReverseTransactionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// TransactionQuery filtros de GET /api/transactions.
type TransactionQuery struct {
	PageRequest
	AccountID string     `query:"account_id"`
	Reference string     `query:"reference"`
	From      *time.Time `query:"from"`
	To        *time.Time `query:"to"`
}

// AccountResponse cuenta en respuestas.
type AccountResponse struct {
	ID             string      `json:"id"`
	TenantID       string      `json:"tenant_id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Type           string      `json:"type"`
	Category       string      `json:"category"`
	Status         string      `json:"status"`
	Currency       string      `json:"currency"`
	OpeningBalance money.Money `json:"opening_balance"`
	Balance        money.Money `json:"balance"`
	ParentID       *string     `json:"parent_id,omitempty"`
	IsSystem       bool        `json:"is_system"`
	IsReconcilable bool        `json:"is_reconcilable"`
	IsTaxable      bool        `json:"is_taxable"`
	TypeLocked     bool        `json:"type_locked"`
	Version        int64       `json:"version"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewAccountResponse mapea la entidad.
func NewAccountResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		TenantID:       a.TenantID,
		Code:           a.Code,
		Name:           a.Name,
		Type:           string(a.Type),
		Category:       string(a.Category),
		Status:         string(a.Status),
		Currency:       a.Currency,
		OpeningBalance: a.OpeningBalance,
		Balance:        a.Balance,
		ParentID:       a.ParentID,
		IsSystem:       a.IsSystem,
		IsReconcilable: a.IsReconcilable,
		IsTaxable:      a.IsTaxable,
		TypeLocked:     a.TypeLocked,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// ArchiveAccountResponse resultado del archivado; BalanceWarning si el saldo no era cero.
type ArchiveAccountResponse struct {
	Account        AccountResponse `json:"account"`
	BalanceWarning bool            `json:"balance_warning"`
}

// AccountNodeResponse nodo del árbol de cuentas.
type AccountNodeResponse struct {
	AccountResponse
	Children []AccountNodeResponse `json:"children"`
}

// TransactionResponse movimiento en respuestas.
type TransactionResponse struct {
	ID            string      `json:"id"`
	TenantID      string      `json:"tenant_id"`
	AccountID     string      `json:"account_id"`
	Direction     string      `json:"direction"`
	Amount        money.Money `json:"amount"`
	Description   string      `json:"description,omitempty"`
	Reference     string      `json:"reference,omitempty"`
	Category      string      `json:"category,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	EffectiveDate time.Time   `json:"effective_date"`
	Reconciled    bool        `json:"reconciled"`
	ReconciledAt  *time.Time  `json:"reconciled_at,omitempty"`
	ReversalOf    string      `json:"reversal_of,omitempty"`
	ReversedBy    string      `json:"reversed_by,omitempty"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
}

// NewTransactionResponse mapea la entidad.
func NewTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		TenantID:      t.TenantID,
		AccountID:     t.AccountID,
		Direction:     string(t.Direction),
		Amount:        t.Amount,
		Description:   t.Description,
		Reference:     t.Reference,
		Category:      t.Category,
		Tags:          t.Tags,
		EffectiveDate: t.EffectiveDate,
		Reconciled:    t.Reconciled,
		ReconciledAt:  t.ReconciledAt,
		ReversalOf:    t.ReversalOf,
		ReversedBy:    t.ReversedBy,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
	}
}

// NewTransactionList mapea una lista de movimientos.
func NewTransactionList(txs []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, NewTransactionResponse(t))
	}
	return out
}

// CorrectionResponse reverso y posteo de reemplazo.
type CorrectionResponse struct {
	Reversal    TransactionResponse `json:"reversal"`
	Replacement TransactionResponse `json:"replacement"`
}

// ReconciliationResponse resultado de conciliar una cuenta.
type ReconciliationResponse struct {
	AccountID                string                `json:"account_id"`
	Expected                 money.Money           `json:"expected"`
	Actual                   money.Money           `json:"actual"`
	Difference               money.Money           `json:"difference"`
	Reconciled               bool                  `json:"reconciled"`
	UnreconciledTransactions []TransactionResponse `json:"unreconciled_transactions"`
	CheckedAt                time.Time             `json:"checked_at"`
}

// NewReconciliationResponse mapea el resultado.
func NewReconciliationResponse(r *entity.AccountReconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		AccountID:                r.AccountID,
		Expected:                 r.Expected,
		Actual:                   r.Actual,
		Difference:               r.Difference,
		Reconciled:               r.Reconciled,
		UnreconciledTransactions: NewTransactionList(r.UnreconciledTransactions),
		CheckedAt:                r.CheckedAt,
	}
}

// BalanceResponse saldo calculado vs almacenado.
type BalanceResponse struct {
	AccountID  string      `json:"account_id"`
	Calculated money.Money `json:"calculated"`
	Stored     money.Money `json:"stored"`
}
