package entity

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

// Direction sentido del movimiento contable.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// Opposite devuelve el sentido inverso (para reversos).
func (d Direction) Opposite() Direction {
	if d == DirectionDebit {
		return DirectionCredit
	}
	return DirectionDebit
}

// Transaction movimiento atómico contra exactamente una cuenta. Inmutable salvo
// la marca de conciliación y el enlace ReversedBy.
type Transaction struct {
	ID            string
	TenantID      string
	AccountID     string
	Direction     Direction
	Amount        money.Money // siempre > 0; el signo lo aporta Direction
	Description   string
	Reference     string
	Category      string
	Tags          []string
	EffectiveDate time.Time
	Reconciled    bool
	ReconciledAt  *time.Time
	ReversalOf    string // ID de la transacción que este movimiento revierte
	ReversedBy    string // ID del reverso que anuló este movimiento
	CreatedBy     string
	CreatedAt     time.Time
}

// IsReversed indica si la transacción ya fue revertida.
func (t *Transaction) IsReversed() bool { return t.ReversedBy != "" }
