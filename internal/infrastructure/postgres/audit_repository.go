package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora append-only sobre audit_log. Solo INSERT y SELECT.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

const auditColumns = `id, tenant_id, actor_id, action, entity_type, entity_id, field,
	old_value, new_value, outcome, error, checksum, created_at`

// Append inserta una entrada.
func (r *AuditRepo) Append(ctx context.Context, e *entity.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.TenantID, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Field,
		rawOrNull(e.OldValue), rawOrNull(e.NewValue), e.Outcome, e.Error, e.Checksum, e.CreatedAt,
	)
	return classify(err, "append audit")
}

// Query entradas filtradas en orden de ID.
func (r *AuditRepo) Query(ctx context.Context, f entity.AuditFilter) ([]*entity.AuditLogEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.EntityType != "" {
		add("entity_type = $%d", f.EntityType)
	}
	if f.EntityID != "" {
		add("entity_id = $%d", f.EntityID)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.Outcome != "" {
		add("outcome = $%d", f.Outcome)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	query := `SELECT ` + auditColumns + ` FROM audit_log`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query audit")
	}
	defer rows.Close()
	var list []*entity.AuditLogEntry
	for rows.Next() {
		var (
			e              entity.AuditLogEntry
			oldRaw, newRaw []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Field,
			&oldRaw, &newRaw, &e.Outcome, &e.Error, &e.Checksum, &e.CreatedAt); err != nil {
			return nil, classify(err, "scan audit")
		}
		e.OldValue, e.NewValue = json.RawMessage(oldRaw), json.RawMessage(newRaw)
		list = append(list, &e)
	}
	return list, classify(rows.Err(), "query audit")
}

// rawOrNull envía el JSON tal cual; vacío se guarda como NULL.
func rawOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
