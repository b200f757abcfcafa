package billing

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/invoicing"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

// AddItem agrega una línea al final de un borrador y recalcula los totales.
func (uc *InvoiceUseCase) AddItem(ctx context.Context, tenantID, actorID, invoiceID string, in dto.InvoiceItemRequest) (*entity.Invoice, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate, EntityType: entity.AuditEntityInvoiceItem, EntityID: invoiceID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	var out *entity.Invoice
	err := uc.atomic(ctx, "add_invoice_item", func(ctx context.Context, r repository.Repos) error {
		inv, err := loadInvoice(ctx, r, tenantID, invoiceID, true)
		if err != nil {
			return err
		}
		if err := invoicing.RequireDraft(inv); err != nil {
			return err
		}
		position := 1
		for _, it := range inv.Items {
			position = max(position, it.Position+1)
		}
		it, err := newItem(inv.ID, inv.Currency, position, in)
		if err != nil {
			return err
		}
		inv.Items = append(inv.Items, it)
		before := dto.NewInvoiceHeaderAudit(inv)
		if err := uc.recalculate(ctx, r, inv); err != nil {
			return err
		}
		if err := r.Invoices.CreateItem(ctx, it); err != nil {
			return err
		}
		if err := uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionCreate,
			EntityType: entity.AuditEntityInvoiceItem, EntityID: it.ID, New: dto.NewInvoiceItemResponse(it),
		}); err != nil {
			return err
		}
		out = inv
		return uc.recordTotals(ctx, r, tenantID, actorID, before, inv)
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return out, nil
}

// UpdateItem modifica campos de una línea de un borrador. Una entrada de auditoría por
// campo modificado más una por el cambio de totales.
func (uc *InvoiceUseCase) UpdateItem(ctx context.Context, tenantID, actorID, invoiceID, itemID string, in dto.UpdateInvoiceItemRequest) (*entity.Invoice, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionUpdate, EntityType: entity.AuditEntityInvoiceItem, EntityID: itemID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	var out *entity.Invoice
	err := uc.atomic(ctx, "update_invoice_item", func(ctx context.Context, r repository.Repos) error {
		inv, err := loadInvoice(ctx, r, tenantID, invoiceID, true)
		if err != nil {
			return err
		}
		if err := invoicing.RequireDraft(inv); err != nil {
			return err
		}
		idx := slices.IndexFunc(inv.Items, func(it *entity.InvoiceItem) bool { return it.ID == itemID })
		if idx < 0 {
			return domain.NotFoundf("ítem %s no encontrado en la factura %s", itemID, invoiceID)
		}
		it := inv.Items[idx]
		before := dto.NewInvoiceHeaderAudit(inv)

		var changes []audit.FieldChange
		if in.Description != nil && strings.TrimSpace(*in.Description) != it.Description {
			changes = append(changes, audit.FieldChange{Field: "description", Old: it.Description, New: strings.TrimSpace(*in.Description)})
			it.Description = strings.TrimSpace(*in.Description)
		}
		if in.Quantity != nil && !in.Quantity.Equal(it.Quantity) {
			changes = append(changes, audit.FieldChange{Field: "quantity", Old: it.Quantity, New: *in.Quantity})
			it.Quantity = *in.Quantity
		}
		if in.UnitPrice != nil {
			price, err := money.Parse(*in.UnitPrice, inv.Currency)
			if err != nil {
				return err
			}
			if !price.Equal(it.UnitPrice) {
				changes = append(changes, audit.FieldChange{Field: "unit_price", Old: it.UnitPrice, New: price})
				it.UnitPrice = price
			}
		}
		if in.TaxRate != nil && !in.TaxRate.Equal(it.TaxRate) {
			changes = append(changes, audit.FieldChange{Field: "tax_rate", Old: it.TaxRate, New: *in.TaxRate})
			it.TaxRate = *in.TaxRate
		}
		if in.VATRate != nil && !in.VATRate.Equal(it.VATRate) {
			changes = append(changes, audit.FieldChange{Field: "vat_rate", Old: it.VATRate, New: *in.VATRate})
			it.VATRate = *in.VATRate
		}
		out = inv
		if len(changes) == 0 {
			return nil
		}
		if err := invoicing.ValidateItem(it, inv.Currency); err != nil {
			return err
		}
		if err := uc.recalculate(ctx, r, inv); err != nil {
			return err
		}
		if err := r.Invoices.UpdateItem(ctx, it); err != nil {
			return err
		}
		if err := uc.audit.RecordFields(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionUpdate,
			EntityType: entity.AuditEntityInvoiceItem, EntityID: it.ID,
		}, changes); err != nil {
			return err
		}
		return uc.recordTotals(ctx, r, tenantID, actorID, before, inv)
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return out, nil
}

// DeleteItem elimina una línea de un borrador. Las posiciones restantes no se renumeran.
func (uc *InvoiceUseCase) DeleteItem(ctx context.Context, tenantID, actorID, invoiceID, itemID string) (*entity.Invoice, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionDelete, EntityType: entity.AuditEntityInvoiceItem, EntityID: itemID}
	var out *entity.Invoice
	err := uc.atomic(ctx, "delete_invoice_item", func(ctx context.Context, r repository.Repos) error {
		inv, err := loadInvoice(ctx, r, tenantID, invoiceID, true)
		if err != nil {
			return err
		}
		if err := invoicing.RequireDraft(inv); err != nil {
			return err
		}
		idx := slices.IndexFunc(inv.Items, func(it *entity.InvoiceItem) bool { return it.ID == itemID })
		if idx < 0 {
			return domain.NotFoundf("ítem %s no encontrado en la factura %s", itemID, invoiceID)
		}
		removed := inv.Items[idx]
		before := dto.NewInvoiceHeaderAudit(inv)
		inv.Items = slices.Delete(inv.Items, idx, idx+1)
		if err := r.Invoices.DeleteItem(ctx, inv.ID, itemID); err != nil {
			return err
		}
		if err := uc.recalculate(ctx, r, inv); err != nil {
			return err
		}
		if err := uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionDelete,
			EntityType: entity.AuditEntityInvoiceItem, EntityID: removed.ID, Old: dto.NewInvoiceItemResponse(removed),
		}); err != nil {
			return err
		}
		out = inv
		return uc.recordTotals(ctx, r, tenantID, actorID, before, inv)
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return out, nil
}

// recalculate recomputa los totales desde todas las líneas y persiste la cabecera.
func (uc *InvoiceUseCase) recalculate(ctx context.Context, r repository.Repos, inv *entity.Invoice) error {
	totals, err := invoicing.ComputeTotals(inv.Currency, inv.Items)
	if err != nil {
		return err
	}
	totals.Apply(inv)
	inv.Version++
	inv.UpdatedAt = uc.timestamp()
	return r.Invoices.Update(ctx, inv)
}

func (uc *InvoiceUseCase) recordTotals(ctx context.Context, r repository.Repos, tenantID, actorID string, before dto.InvoiceHeaderAudit, inv *entity.Invoice) error {
	after := dto.NewInvoiceHeaderAudit(inv)
	if after == before {
		return nil
	}
	return uc.audit.Record(ctx, r.Audit, audit.Event{
		TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionUpdate,
		EntityType: entity.AuditEntityInvoice, EntityID: inv.ID, Field: "totals",
		Old: before, New: after,
	})
}
