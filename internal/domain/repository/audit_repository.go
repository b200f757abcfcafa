package repository

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// AuditRepository bitácora append-only. No expone actualización ni borrado.
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditLogEntry) error
	// Query devuelve las entradas que cumplen el filtro en orden de ID (cronológico).
	Query(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditLogEntry, error)
}
