package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// TransactionFilter filtros del listado de movimientos.
type TransactionFilter struct {
	AccountID string
	Reference string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// TransactionRepository define el puerto de persistencia de movimientos.
// No existe actualización general ni borrado: solo la marca de conciliación y el enlace de reverso.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// ListByAccount devuelve todos los movimientos de la cuenta en orden de creación.
	ListByAccount(ctx context.Context, accountID string) ([]*entity.Transaction, error)
	ListByTenant(ctx context.Context, tenantID string, filter TransactionFilter) ([]*entity.Transaction, error)
	CountByAccount(ctx context.Context, accountID string) (int, error)
	// MarkReconciled marca como conciliados los movimientos pendientes de la cuenta.
	MarkReconciled(ctx context.Context, accountID string, at time.Time) (int, error)
	SetReversedBy(ctx context.Context, id, reversalID string) error
}
