package memory

import (
	"context"

	"github.com/samber/lo"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type auditRepo struct {
	s  *Store
	tx *state
}

var _ repository.AuditRepository = (*auditRepo)(nil)

func (r *auditRepo) Append(ctx context.Context, e *entity.AuditLogEntry) error {
	return r.s.apply(ctx, r.tx, func(st *state) error {
		st.audit = append(st.audit, *cloneAudit(*e))
		return nil
	})
}

// Query las entradas ya están en orden de inserción, que coincide con el orden de los ULID.
func (r *auditRepo) Query(_ context.Context, f entity.AuditFilter) ([]*entity.AuditLogEntry, error) {
	matched := lo.Filter(r.s.view(r.tx).audit, func(e entity.AuditLogEntry, _ int) bool {
		switch {
		case e.TenantID != f.TenantID:
			return false
		case f.EntityType != "" && e.EntityType != f.EntityType:
			return false
		case f.EntityID != "" && e.EntityID != f.EntityID:
			return false
		case f.ActorID != "" && e.ActorID != f.ActorID:
			return false
		case f.Action != "" && e.Action != f.Action:
			return false
		case f.Outcome != "" && e.Outcome != f.Outcome:
			return false
		case f.From != nil && e.CreatedAt.Before(*f.From):
			return false
		case f.To != nil && e.CreatedAt.After(*f.To):
			return false
		}
		return true
	})
	return lo.Map(page(matched, f.Limit, f.Offset), func(e entity.AuditLogEntry, _ int) *entity.AuditLogEntry {
		return cloneAudit(e)
	}), nil
}
