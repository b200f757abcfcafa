// Package audit implementa la bitácora append-only del motor contable.
//
// Record y RecordFields escriben dentro de la unidad atómica del caller, de modo que el
// cambio de dominio y su entrada de auditoría se confirman o revierten juntos.
// RecordFailure escribe en una unidad propia, después de que la operación fallida se revirtió.
package audit

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

const maxQueryLimit = 500

// Event describe un cambio a registrar. Old y New se serializan a JSON.
type Event struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Field      string
	Old        any
	New        any
}

// FieldChange un campo modificado (diff por campo).
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// Service bitácora. Solo expone escritura por append y consulta.
type Service struct {
	store repository.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService construye el servicio de auditoría.
func NewService(store repository.Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Record agrega una entrada SUCCESS usando el repo de la unidad atómica del caller.
func (s *Service) Record(ctx context.Context, repo repository.AuditRepository, ev Event) error {
	entry, err := s.build(ev, entity.AuditOutcomeSuccess, "")
	if err != nil {
		return err
	}
	if err := repo.Append(ctx, entry); err != nil {
		return errors.Wrap(err, "registrar auditoría")
	}
	return nil
}

// RecordFields una entrada UPDATE por cada campo modificado.
func (s *Service) RecordFields(ctx context.Context, repo repository.AuditRepository, ev Event, changes []FieldChange) error {
	for _, ch := range changes {
		fe := ev
		fe.Field, fe.Old, fe.New = ch.Field, ch.Old, ch.New
		if err := s.Record(ctx, repo, fe); err != nil {
			return err
		}
	}
	return nil
}

// RecordFailure deja rastro forense de un intento fallido sobre estado financiero.
// Corre en su propia unidad atómica; si no puede escribir, lo reporta en el log
// sin ocultar el error original.
func (s *Service) RecordFailure(ctx context.Context, ev Event, cause error) {
	if cause == nil {
		return
	}
	msg := domain.Category(cause) + ": " + cause.Error()
	entry, err := s.build(ev, entity.AuditOutcomeFailure, msg)
	if err == nil {
		err = s.store.Run(context.WithoutCancel(ctx), func(ctx context.Context, r repository.Repos) error {
			return r.Audit.Append(ctx, entry)
		})
	}
	if err != nil {
		s.log.Error().Err(err).
			Str("tenant_id", ev.TenantID).
			Str("entity", ev.EntityType).
			Str("entity_id", ev.EntityID).
			AnErr("cause", cause).
			Msg("no se pudo registrar el intento fallido en la bitácora")
	}
}

// Query consulta la bitácora del tenant.
func (s *Service) Query(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditLogEntry, error) {
	if filter.TenantID == "" {
		return nil, domain.Validationf("tenant requerido")
	}
	if filter.Limit <= 0 || filter.Limit > maxQueryLimit {
		filter.Limit = maxQueryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.Reader().Audit.Query(ctx, filter)
}

// Verify recalcula el checksum de la entrada.
func Verify(entry *entity.AuditLogEntry) bool {
	sum, err := checksum(entry)
	if err != nil {
		return false
	}
	return sum == entry.Checksum
}

func (s *Service) build(ev Event, outcome, errMsg string) (*entity.AuditLogEntry, error) {
	oldRaw, err := encode(ev.Old)
	if err != nil {
		return nil, err
	}
	newRaw, err := encode(ev.New)
	if err != nil {
		return nil, err
	}
	entry := &entity.AuditLogEntry{
		ID:         ulid.Make().String(),
		TenantID:   ev.TenantID,
		ActorID:    ev.ActorID,
		Action:     ev.Action,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Field:      ev.Field,
		OldValue:   oldRaw,
		NewValue:   newRaw,
		Outcome:    outcome,
		Error:      errMsg,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	if entry.Checksum, err = checksum(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// encode serializa a JSON canónico; nil queda como ausencia de valor.
func encode(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return canonical(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "serializar valor auditado")
	}
	return canonical(b)
}

// canonical compacta y ordena claves; los números conservan su texto.
// Así el checksum sobrevive al round-trip por JSONB.
func canonical(raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "normalizar JSON auditado")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "normalizar JSON auditado")
	}
	return b, nil
}

type checksumPayload struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Field      string          `json:"field"`
	OldValue   json.RawMessage `json:"old_value"`
	NewValue   json.RawMessage `json:"new_value"`
	Outcome    string          `json:"outcome"`
	Error      string          `json:"error"`
	CreatedAt  string          `json:"created_at"`
}

func checksum(e *entity.AuditLogEntry) (string, error) {
	oldRaw, err := canonical(e.OldValue)
	if err != nil {
		return "", err
	}
	newRaw, err := canonical(e.NewValue)
	if err != nil {
		return "", err
	}
	if oldRaw == nil {
		oldRaw = json.RawMessage("null")
	}
	if newRaw == nil {
		newRaw = json.RawMessage("null")
	}
	b, err := json.Marshal(checksumPayload{
		ID:         e.ID,
		TenantID:   e.TenantID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Field:      e.Field,
		OldValue:   oldRaw,
		NewValue:   newRaw,
		Outcome:    e.Outcome,
		Error:      e.Error,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", errors.Wrap(err, "calcular checksum")
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
