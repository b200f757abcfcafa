package billing

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/invoicing"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

// Finalize DRAFT → SENT. En una sola unidad atómica: verifica totales, toma el consecutivo,
// congela el snapshot legal y postea la emisión. Si cualquier paso falla se revierte todo,
// incluido el consecutivo: la factura sigue en DRAFT y el siguiente intento recibe el mismo número.
//
// Asientos: DEBIT cuentas por cobrar = total; CREDIT ingresos = subtotal;
// CREDIT impuestos = impuesto + IVA (sin cuenta de impuestos, ingresos recibe el total).
func (uc *InvoiceUseCase) Finalize(ctx context.Context, tenantID, actorID, invoiceID string, in dto.FinalizeInvoiceRequest) (*entity.Invoice, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionFinalize, EntityType: entity.AuditEntityInvoice, EntityID: invoiceID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	var out *entity.Invoice
	err := uc.atomic(ctx, "finalize_invoice", func(ctx context.Context, r repository.Repos) error {
		inv, err := loadInvoice(ctx, r, tenantID, invoiceID, true)
		if err != nil {
			return err
		}
		if err := invoicing.CanTransition(inv.Status, entity.InvoiceStatusSent); err != nil {
			return err
		}
		if len(inv.Items) == 0 {
			return domain.Validationf("la factura %s no tiene líneas", inv.Number)
		}
		if _, err := invoicing.VerifyTotals(inv); err != nil {
			return err
		}
		snapshot, err := uc.snapshot(ctx, r, inv)
		if err != nil {
			return err
		}
		before := dto.NewInvoiceHeaderAudit(inv)

		number, _, err := uc.numbers.NextInTx(ctx, r, tenantID, uc.cfg.SequenceName)
		if err != nil {
			return err
		}
		inv.Number = number

		ids, err := uc.postIssue(ctx, r, actorID, inv, in)
		if err != nil {
			return err
		}

		now := uc.timestamp()
		issue := now
		if in.IssueDate != nil {
			issue = in.IssueDate.UTC()
		}
		due := invoicing.DueDate(issue, uc.cfg.PaymentTermsDays)
		inv.NumberFinal = true
		inv.Status = entity.InvoiceStatusSent
		inv.IssueDate = &issue
		inv.DueDate = &due
		inv.Snapshot = snapshot
		inv.ReceivableAccountID = in.ReceivableAccountID
		inv.LedgerTransactionIDs = ids
		inv.FinalizedAt = &now
		inv.Version++
		inv.UpdatedAt = now
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		out = inv
		return uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionFinalize,
			EntityType: entity.AuditEntityInvoice, EntityID: inv.ID,
			Old: before,
			New: map[string]any{"header": dto.NewInvoiceHeaderAudit(inv), "snapshot": snapshot, "ledger_transaction_ids": ids},
		})
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("invoice_id", out.ID).
		Str("number", out.Number).
		Str("total", out.Total.String()).
		Msg("factura emitida")
	return out, nil
}

// snapshot copia los datos legales vigentes del cliente y la empresa.
func (uc *InvoiceUseCase) snapshot(ctx context.Context, r repository.Repos, inv *entity.Invoice) (*entity.LegalSnapshot, error) {
	customer, err := loadCustomer(ctx, r, inv.TenantID, inv.CustomerID)
	if err != nil {
		return nil, err
	}
	company, err := r.Companies.GetByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.Validationf("la empresa %s no tiene perfil legal registrado", inv.TenantID)
	}
	return &entity.LegalSnapshot{
		CustomerName:    customer.Name,
		CustomerAddress: customer.Address,
		CustomerTaxID:   customer.TaxID,
		CompanyName:     company.Name,
		CompanyAddress:  company.Address,
		CompanyTaxID:    company.TaxID,
		CapturedAt:      uc.timestamp(),
	}, nil
}

// postIssue asientos de la emisión. Los montos en cero no se postean.
func (uc *InvoiceUseCase) postIssue(ctx context.Context, r repository.Repos, actorID string, inv *entity.Invoice, in dto.FinalizeInvoiceRequest) ([]string, error) {
	taxes, err := inv.TaxAmount.Add(inv.VATAmount)
	if err != nil {
		return nil, err
	}
	revenue := inv.Subtotal
	if in.TaxAccountID == "" {
		revenue = inv.Total
		taxes = money.Zero(inv.Currency)
	}
	lines := []struct {
		account   string
		direction entity.Direction
		amount    money.Money
	}{
		{in.ReceivableAccountID, entity.DirectionDebit, inv.Total},
		{in.RevenueAccountID, entity.DirectionCredit, revenue},
		{in.TaxAccountID, entity.DirectionCredit, taxes},
	}
	var ids []string
	for _, l := range lines {
		if !l.amount.IsPositive() {
			continue
		}
		tx, err := uc.poster.PostInTx(ctx, r, ledger.Posting{
			TenantID:    inv.TenantID,
			ActorID:     actorID,
			AccountID:   l.account,
			Direction:   l.direction,
			Amount:      l.amount,
			Description: "Factura " + inv.Number,
			Reference:   inv.Number,
			Category:    "invoice",
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, tx.ID)
	}
	return ids, nil
}

// Void DRAFT o SENT → VOID. Los asientos de la emisión se revierten, nunca se borran.
// Con pagos completados se exige reembolsarlos antes.
func (uc *InvoiceUseCase) Void(ctx context.Context, tenantID, actorID, invoiceID string, in dto.VoidInvoiceRequest) (*entity.Invoice, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionVoid, EntityType: entity.AuditEntityInvoice, EntityID: invoiceID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	var out *entity.Invoice
	err := uc.atomic(ctx, "void_invoice", func(ctx context.Context, r repository.Repos) error {
		inv, err := loadInvoice(ctx, r, tenantID, invoiceID, true)
		if err != nil {
			return err
		}
		if err := invoicing.CanTransition(inv.Status, entity.InvoiceStatusVoid); err != nil {
			return err
		}
		for _, p := range inv.Payments {
			if p.Status == entity.PaymentStatusCompleted {
				return domain.Statef("la factura %s tiene pagos completados; reembólselos antes de anularla", inv.Number)
			}
		}
		before := dto.NewInvoiceHeaderAudit(inv)
		reversals := make([]string, 0, len(inv.LedgerTransactionIDs))
		for _, txID := range inv.LedgerTransactionIDs {
			rev, err := uc.poster.ReverseInTx(ctx, r, tenantID, actorID, txID, "anulación "+inv.Number+": "+in.Reason)
			if err != nil {
				return err
			}
			reversals = append(reversals, rev.ID)
		}
		now := uc.timestamp()
		inv.Status = entity.InvoiceStatusVoid
		inv.VoidReason = in.Reason
		inv.VoidedAt = &now
		inv.Version++
		inv.UpdatedAt = now
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		out = inv
		return uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionVoid,
			EntityType: entity.AuditEntityInvoice, EntityID: inv.ID,
			Old: before,
			New: map[string]any{"header": dto.NewInvoiceHeaderAudit(inv), "reason": in.Reason, "reversals": reversals},
		})
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return out, nil
}
