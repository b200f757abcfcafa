package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	rules "github.com/jhoicas/Ledger-api/internal/domain/ledger"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

// ArchiveResult cuenta archivada; BalanceWarning si tenía saldo distinto de cero.
type ArchiveResult struct {
	Account        *entity.Account
	BalanceWarning bool
}

// CreateAccount da de alta una cuenta. Saldo almacenado = saldo de apertura.
func (s *Service) CreateAccount(ctx context.Context, tenantID, actorID string, in dto.CreateAccountRequest) (*entity.Account, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate, EntityType: entity.AuditEntityAccount, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	typ := entity.AccountType(in.Type)
	category := entity.AccountCategory(strings.ToUpper(in.Category))
	if err := rules.ValidateCategory(typ, category); err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	currency := in.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	currency, err := money.NormalizeCurrency(currency)
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	opening := money.Zero(currency)
	if in.OpeningBalance != "" {
		if opening, err = money.Parse(in.OpeningBalance, currency); err != nil {
			return nil, s.failed(ctx, ev, err)
		}
	}

	now := s.timestamp()
	acc := &entity.Account{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		Code:           strings.TrimSpace(in.Code),
		Name:           strings.TrimSpace(in.Name),
		Type:           typ,
		Category:       category,
		Status:         entity.AccountStatusActive,
		Currency:       currency,
		OpeningBalance: opening,
		Balance:        opening,
		ParentID:       in.ParentID,
		IsSystem:       in.IsSystem,
		IsReconcilable: in.IsReconcilable,
		IsTaxable:      in.IsTaxable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if acc.ParentID != nil && *acc.ParentID == "" {
		acc.ParentID = nil
	}
	ev.EntityID = acc.ID

	err = s.atomic(ctx, "create_account", func(ctx context.Context, r repository.Repos) error {
		existing, err := r.Accounts.GetByCode(ctx, tenantID, acc.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Duplicatef("ya existe una cuenta con código %s", acc.Code)
		}
		if acc.ParentID != nil {
			if err := s.checkParent(ctx, r, acc, *acc.ParentID); err != nil {
				return err
			}
		}
		if err := r.Accounts.Create(ctx, acc); err != nil {
			return err
		}
		return s.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate,
			EntityType: entity.AuditEntityAccount, EntityID: acc.ID, New: dto.NewAccountResponse(acc),
		})
	})
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	return acc, nil
}

// checkParent el padre existe en el mismo tenant, tiene el mismo tipo y no está archivado.
func (s *Service) checkParent(ctx context.Context, r repository.Repos, acc *entity.Account, parentID string) error {
	parent, err := r.Accounts.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil || parent.TenantID != acc.TenantID {
		return domain.NotFoundf("cuenta padre %s no encontrada", parentID)
	}
	if parent.Type != acc.Type {
		return domain.Validationf("la cuenta padre %s es %s; la hija debe ser del mismo tipo (%s)", parent.Code, parent.Type, acc.Type)
	}
	if parent.Status == entity.AccountStatusArchived {
		return domain.Statef("la cuenta padre %s está archivada", parent.Code)
	}
	return nil
}

// UpdateAccount edita metadatos. El cambio de tipo se rechaza si la cuenta ya tiene
// movimientos; el cambio de padre verifica la cadena de ancestros.
func (s *Service) UpdateAccount(ctx context.Context, tenantID, actorID, id string, in dto.UpdateAccountRequest) (*entity.Account, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionUpdate, EntityType: entity.AuditEntityAccount, EntityID: id, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	var out *entity.Account
	err := s.atomic(ctx, "update_account", func(ctx context.Context, r repository.Repos) error {
		acc, err := loadAccount(ctx, r, tenantID, id, true)
		if err != nil {
			return err
		}
		if acc.Status == entity.AccountStatusArchived {
			return domain.Statef("la cuenta %s está archivada", acc.Code)
		}
		var changes []audit.FieldChange
		track := func(field string, old, new any) {
			changes = append(changes, audit.FieldChange{Field: field, Old: old, New: new})
		}

		if in.Name != nil && strings.TrimSpace(*in.Name) != acc.Name {
			track("name", acc.Name, strings.TrimSpace(*in.Name))
			acc.Name = strings.TrimSpace(*in.Name)
		}

		newType := acc.Type
		if in.Type != nil {
			newType = entity.AccountType(*in.Type)
		}
		typeChanged := newType != acc.Type
		if typeChanged {
			if err := s.checkTypeChange(ctx, r, acc); err != nil {
				return err
			}
			track("type", acc.Type, newType)
			acc.Type = newType
		}
		newCategory := acc.Category
		if in.Category != nil {
			newCategory = entity.AccountCategory(strings.ToUpper(*in.Category))
		}
		if err := rules.ValidateCategory(acc.Type, newCategory); err != nil {
			return err
		}
		if newCategory != acc.Category {
			track("category", acc.Category, newCategory)
			acc.Category = newCategory
		}

		if in.ClearParent || in.ParentID != nil {
			newParent := ""
			if in.ParentID != nil && !in.ClearParent {
				newParent = *in.ParentID
			}
			if newParent != acc.ParentIDValue() {
				if err := s.reparent(ctx, r, acc, newParent); err != nil {
					return err
				}
				track("parent_id", acc.ParentIDValue(), newParent)
				if newParent == "" {
					acc.ParentID = nil
				} else {
					acc.ParentID = &newParent
				}
			}
		} else if typeChanged && acc.ParentID != nil {
			// el padre actual debe seguir siendo del mismo tipo
			if err := s.checkParent(ctx, r, acc, *acc.ParentID); err != nil {
				return err
			}
		}

		if in.IsReconcilable != nil && *in.IsReconcilable != acc.IsReconcilable {
			track("is_reconcilable", acc.IsReconcilable, *in.IsReconcilable)
			acc.IsReconcilable = *in.IsReconcilable
		}
		if in.IsTaxable != nil && *in.IsTaxable != acc.IsTaxable {
			track("is_taxable", acc.IsTaxable, *in.IsTaxable)
			acc.IsTaxable = *in.IsTaxable
		}

		out = acc
		if len(changes) == 0 {
			return nil
		}
		if err := r.Accounts.Update(ctx, acc); err != nil {
			return err
		}
		return s.audit.RecordFields(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionUpdate,
			EntityType: entity.AuditEntityAccount, EntityID: acc.ID,
		}, changes)
	})
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	return out, nil
}

// checkTypeChange el tipo es inmutable una vez que existen movimientos o hijos.
func (s *Service) checkTypeChange(ctx context.Context, r repository.Repos, acc *entity.Account) error {
	if acc.TypeLocked {
		return domain.Statef("la cuenta %s tiene movimientos; su tipo no puede cambiar", acc.Code)
	}
	n, err := r.Transactions.CountByAccount(ctx, acc.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Statef("la cuenta %s tiene movimientos; su tipo no puede cambiar", acc.Code)
	}
	children, err := r.Accounts.CountChildren(ctx, acc.ID)
	if err != nil {
		return err
	}
	if children > 0 {
		return domain.Statef("la cuenta %s tiene subcuentas; su tipo no puede cambiar", acc.Code)
	}
	return nil
}

// reparent valida el nuevo padre y que no se forme un ciclo.
func (s *Service) reparent(ctx context.Context, r repository.Repos, acc *entity.Account, newParent string) error {
	if newParent == "" {
		return nil
	}
	if err := r.Accounts.LockHierarchy(ctx, acc.TenantID); err != nil {
		return err
	}
	lookup := func(id string) (string, error) {
		a, err := r.Accounts.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		if a == nil {
			return "", nil
		}
		return a.ParentIDValue(), nil
	}
	if err := rules.CheckReparent(acc.ID, newParent, lookup, s.maxDepth); err != nil {
		return err
	}
	return s.checkParent(ctx, r, acc, newParent)
}

// ArchiveAccount ACTIVE/INACTIVE → ARCHIVED. Con saldo distinto de cero se permite,
// pero queda señalado en el resultado, el log y la auditoría.
func (s *Service) ArchiveAccount(ctx context.Context, tenantID, actorID, id string) (*ArchiveResult, error) {
	acc, err := s.changeStatus(ctx, tenantID, actorID, id, entity.AccountStatusArchived)
	if err != nil {
		return nil, err
	}
	res := &ArchiveResult{Account: acc, BalanceWarning: !acc.Balance.IsZero()}
	if res.BalanceWarning {
		s.log.Warn().
			Str("tenant_id", tenantID).
			Str("account_id", acc.ID).
			Str("balance", acc.Balance.String()).
			Msg("cuenta archivada con saldo distinto de cero")
	}
	return res, nil
}

// ActivateAccount INACTIVE → ACTIVE.
func (s *Service) ActivateAccount(ctx context.Context, tenantID, actorID, id string) (*entity.Account, error) {
	return s.changeStatus(ctx, tenantID, actorID, id, entity.AccountStatusActive)
}

// DeactivateAccount ACTIVE → INACTIVE.
func (s *Service) DeactivateAccount(ctx context.Context, tenantID, actorID, id string) (*entity.Account, error) {
	return s.changeStatus(ctx, tenantID, actorID, id, entity.AccountStatusInactive)
}

type statusAudit struct {
	Status         entity.AccountStatus `json:"status"`
	Balance        money.Money          `json:"balance"`
	BalanceWarning bool                 `json:"balance_warning,omitempty"`
}

func (s *Service) changeStatus(ctx context.Context, tenantID, actorID, id string, to entity.AccountStatus) (*entity.Account, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionStatusChange, EntityType: entity.AuditEntityAccount, EntityID: id, New: to}
	var out *entity.Account
	err := s.atomic(ctx, "account_status", func(ctx context.Context, r repository.Repos) error {
		acc, err := loadAccount(ctx, r, tenantID, id, true)
		if err != nil {
			return err
		}
		if err := rules.ValidateStatusTransition(acc.Status, to); err != nil {
			return err
		}
		old := statusAudit{Status: acc.Status, Balance: acc.Balance}
		acc.Status = to
		if err := r.Accounts.Update(ctx, acc); err != nil {
			return err
		}
		out = acc
		return s.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionStatusChange,
			EntityType: entity.AuditEntityAccount, EntityID: acc.ID, Field: "status",
			Old: old,
			New: statusAudit{
				Status:         to,
				Balance:        acc.Balance,
				BalanceWarning: to == entity.AccountStatusArchived && !acc.Balance.IsZero(),
			},
		})
	})
	if err != nil {
		return nil, s.failed(ctx, ev, err)
	}
	return out, nil
}

// DeleteAccount borrado físico: solo sin movimientos, sin subcuentas y no de sistema.
// En cualquier otro caso la cuenta debe archivarse.
func (s *Service) DeleteAccount(ctx context.Context, tenantID, actorID, id string) error {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionDelete, EntityType: entity.AuditEntityAccount, EntityID: id}
	err := s.atomic(ctx, "delete_account", func(ctx context.Context, r repository.Repos) error {
		acc, err := loadAccount(ctx, r, tenantID, id, true)
		if err != nil {
			return err
		}
		if acc.IsSystem {
			return domain.Statef("la cuenta %s es de sistema y no puede eliminarse", acc.Code)
		}
		n, err := r.Transactions.CountByAccount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 || acc.TypeLocked {
			return domain.Statef("la cuenta %s tiene movimientos; archívela en lugar de eliminarla", acc.Code)
		}
		children, err := r.Accounts.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return domain.Statef("la cuenta %s tiene subcuentas", acc.Code)
		}
		if err := r.Accounts.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionDelete,
			EntityType: entity.AuditEntityAccount, EntityID: id, Old: dto.NewAccountResponse(acc),
		})
	})
	return s.failed(ctx, ev, err)
}

// ── lecturas ──────────────────────────────────────────────────────────────────

// GetAccount lee una cuenta del tenant.
func (s *Service) GetAccount(ctx context.Context, tenantID, id string) (*entity.Account, error) {
	return loadAccount(ctx, s.store.Reader(), tenantID, id, false)
}

// ListAccounts cuentas del tenant ordenadas por código.
func (s *Service) ListAccounts(ctx context.Context, tenantID string) ([]*entity.Account, error) {
	return s.store.Reader().Accounts.ListByTenant(ctx, tenantID)
}

// AccountHierarchy árbol del tenant o, con rootID, el subárbol de esa cuenta.
// Los hijos se ordenan por código.
func (s *Service) AccountHierarchy(ctx context.Context, tenantID, rootID string) ([]*rules.Node, error) {
	accounts, err := s.store.Reader().Accounts.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tree := rules.BuildTree(accounts, rootID)
	if rootID != "" && len(tree) == 0 {
		return nil, domain.NotFoundf("cuenta %s no encontrada", rootID)
	}
	return tree, nil
}
