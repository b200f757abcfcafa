package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// AuditQuery filtros de GET /api/audit.
type AuditQuery struct {
	PageRequest
	EntityType string     `query:"entity_type"`
	EntityID   string     `query:"entity_id"`
	ActorID    string     `query:"actor_id"`
	Action     string     `query:"action"`
	Outcome    string     `query:"outcome" validate:"omitempty,oneof=SUCCESS FAILURE"`
	From       *time.Time `query:"from"`
	To         *time.Time `query:"to"`
}

// AuditEntryResponse entrada de bitácora; Verified indica si el checksum coincide.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Field      string          `json:"field,omitempty"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	Outcome    string          `json:"outcome"`
	Error      string          `json:"error,omitempty"`
	Checksum   string          `json:"checksum"`
	Verified   bool            `json:"verified"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewAuditEntryResponse mapea la entrada.
func NewAuditEntryResponse(e *entity.AuditLogEntry, verified bool) AuditEntryResponse {
	return AuditEntryResponse{
		ID: e.ID, TenantID: e.TenantID, ActorID: e.ActorID, Action: e.Action,
		EntityType: e.EntityType, EntityID: e.EntityID, Field: e.Field,
		OldValue: e.OldValue, NewValue: e.NewValue, Outcome: e.Outcome, Error: e.Error,
		Checksum: e.Checksum, Verified: verified, CreatedAt: e.CreatedAt,
	}
}
