package repository

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// AccountRepository define el puerto de persistencia del plan de cuentas.
// Todas las lecturas devuelven (nil, nil) si la cuenta no existe.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	// GetForUpdate bloquea la fila hasta el fin de la unidad atómica (SELECT ... FOR UPDATE).
	// Serializa los posteos por cuenta.
	GetForUpdate(ctx context.Context, id string) (*entity.Account, error)
	GetByCode(ctx context.Context, tenantID, code string) (*entity.Account, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Account, error)
	// Update persiste metadatos (nombre, tipo, categoría, padre, estado, banderas). No toca el saldo.
	Update(ctx context.Context, account *entity.Account) error
	// UpdateBalance escribe Balance, TypeLocked y Version = expectedVersion+1 solo si la
	// versión almacenada es expectedVersion; si no, devuelve una ConcurrencyFault.
	UpdateBalance(ctx context.Context, account *entity.Account, expectedVersion int64) error
	// LockHierarchy serializa los cambios de padre del tenant hasta el fin de la unidad
	// atómica, para que la búsqueda de ciclos vea el árbol confirmado por el anterior.
	LockHierarchy(ctx context.Context, tenantID string) error
	CountChildren(ctx context.Context, id string) (int, error)
	// Delete borrado físico; el caso de uso solo lo permite sin movimientos ni hijos.
	Delete(ctx context.Context, id string) error
}
