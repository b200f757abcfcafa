package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/invoicing"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

// RecordPayment registra un pago contra una factura SENT (vencida incluida).
// Cuando los pagos COMPLETED cubren el total, la factura pasa a PAID en la misma unidad.
func (uc *InvoiceUseCase) RecordPayment(ctx context.Context, tenantID, actorID, invoiceID string, in dto.RecordPaymentRequest) (*entity.Payment, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionPayment, EntityType: entity.AuditEntityInvoice, EntityID: invoiceID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	amount, err := money.Parse(in.Amount, in.Currency)
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	if !amount.IsPositive() {
		return nil, uc.failed(ctx, ev, domain.Validationf("el monto del pago debe ser mayor que cero"))
	}
	status := entity.PaymentStatus(in.Status)
	if status == "" {
		status = entity.PaymentStatusCompleted
	}

	var out *entity.Payment
	err = uc.atomic(ctx, "record_payment", func(ctx context.Context, r repository.Repos) error {
		inv, err := loadInvoice(ctx, r, tenantID, invoiceID, true)
		if err != nil {
			return err
		}
		if inv.Status != entity.InvoiceStatusSent {
			return domain.Statef("la factura %s está en %s; solo se registran pagos sobre facturas emitidas", inv.Number, inv.Status)
		}
		if amount.Currency != inv.Currency {
			return domain.CurrencyMismatch(amount.Currency, inv.Currency)
		}
		now := uc.timestamp()
		p := &entity.Payment{
			ID:               uuid.New().String(),
			TenantID:         tenantID,
			InvoiceID:        inv.ID,
			Amount:           amount,
			Status:           status,
			Method:           strings.TrimSpace(in.Method),
			Reference:        strings.TrimSpace(in.Reference),
			ReceivedAt:       now,
			DepositAccountID: in.DepositAccountID,
			CreatedBy:        actorID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if in.ReceivedAt != nil {
			p.ReceivedAt = in.ReceivedAt.UTC()
		}
		if p.Status == entity.PaymentStatusCompleted {
			if err := uc.postPayment(ctx, r, actorID, inv, p); err != nil {
				return err
			}
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		if err := uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionPayment,
			EntityType: entity.AuditEntityPayment, EntityID: p.ID, New: dto.NewPaymentResponse(p),
		}); err != nil {
			return err
		}
		inv.Payments = append(inv.Payments, p)
		out = p
		return uc.promoteIfPaid(ctx, r, actorID, inv)
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return out, nil
}

// UpdatePaymentStatus PENDING → {COMPLETED, FAILED, CANCELLED}; COMPLETED → REFUNDED.
// Completar postea el depósito y puede saldar la factura; reembolsar revierte los
// asientos del pago. Una factura PAID no vuelve a SENT.
func (uc *InvoiceUseCase) UpdatePaymentStatus(ctx context.Context, tenantID, actorID, paymentID string, in dto.UpdatePaymentStatusRequest) (*entity.Payment, error) {
	ev := audit.Event{TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionStatusChange, EntityType: entity.AuditEntityPayment, EntityID: paymentID, New: in}
	if err := dto.Validate(in); err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	to := entity.PaymentStatus(in.Status)
	var out *entity.Payment
	err := uc.atomic(ctx, "payment_status", func(ctx context.Context, r repository.Repos) error {
		p, err := r.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NotFoundf("pago %s no encontrado", paymentID)
		}
		if p.TenantID != tenantID {
			return domain.Forbiddenf("el pago %s no pertenece a la empresa", paymentID)
		}
		inv, err := loadInvoice(ctx, r, tenantID, p.InvoiceID, true)
		if err != nil {
			return err
		}
		if err := invoicing.CanTransitionPayment(p.Status, to); err != nil {
			return err
		}
		from := p.Status
		switch to {
		case entity.PaymentStatusCompleted:
			if inv.Status == entity.InvoiceStatusVoid {
				return domain.Statef("la factura %s está anulada", inv.Number)
			}
			if err := uc.postPayment(ctx, r, actorID, inv, p); err != nil {
				return err
			}
		case entity.PaymentStatusRefunded:
			for _, txID := range p.LedgerTransactionIDs {
				if _, err := uc.poster.ReverseInTx(ctx, r, tenantID, actorID, txID, "reembolso pago "+p.ID); err != nil {
					return err
				}
			}
		}
		p.Status = to
		p.UpdatedAt = uc.timestamp()
		if err := r.Payments.Update(ctx, p); err != nil {
			return err
		}
		if err := uc.audit.Record(ctx, r.Audit, audit.Event{
			TenantID: tenantID, ActorID: actorID, Action: entity.AuditActionStatusChange,
			EntityType: entity.AuditEntityPayment, EntityID: p.ID, Field: "status",
			Old: from, New: to,
		}); err != nil {
			return err
		}
		for i, existing := range inv.Payments {
			if existing.ID == p.ID {
				inv.Payments[i] = p
			}
		}
		out = p
		if to != entity.PaymentStatusCompleted || inv.Status != entity.InvoiceStatusSent {
			return nil
		}
		return uc.promoteIfPaid(ctx, r, actorID, inv)
	})
	if err != nil {
		return nil, uc.failed(ctx, ev, err)
	}
	return out, nil
}

// postPayment DEBIT depósito / CREDIT cuentas por cobrar de la emisión. Sin cuenta de
// depósito el pago no genera asientos.
func (uc *InvoiceUseCase) postPayment(ctx context.Context, r repository.Repos, actorID string, inv *entity.Invoice, p *entity.Payment) error {
	if p.DepositAccountID == "" {
		return nil
	}
	if inv.ReceivableAccountID == "" {
		return domain.Statef("la factura %s no registra cuenta por cobrar", inv.Number)
	}
	legs := []struct {
		account   string
		direction entity.Direction
	}{
		{p.DepositAccountID, entity.DirectionDebit},
		{inv.ReceivableAccountID, entity.DirectionCredit},
	}
	for _, leg := range legs {
		tx, err := uc.poster.PostInTx(ctx, r, ledger.Posting{
			TenantID:    inv.TenantID,
			ActorID:     actorID,
			AccountID:   leg.account,
			Direction:   leg.direction,
			Amount:      p.Amount,
			Description: "Pago factura " + inv.Number,
			Reference:   inv.Number,
			Category:    "payment",
		})
		if err != nil {
			return err
		}
		p.LedgerTransactionIDs = append(p.LedgerTransactionIDs, tx.ID)
	}
	return nil
}

// promoteIfPaid SENT → PAID cuando los pagos completados cubren el total.
func (uc *InvoiceUseCase) promoteIfPaid(ctx context.Context, r repository.Repos, actorID string, inv *entity.Invoice) error {
	paid, err := invoicing.IsFullyPaid(inv)
	if err != nil || !paid {
		return err
	}
	if err := invoicing.CanTransition(inv.Status, entity.InvoiceStatusPaid); err != nil {
		return err
	}
	now := uc.timestamp()
	inv.Status = entity.InvoiceStatusPaid
	inv.PaidAt = &now
	inv.Version++
	inv.UpdatedAt = now
	if err := r.Invoices.Update(ctx, inv); err != nil {
		return err
	}
	return uc.audit.Record(ctx, r.Audit, audit.Event{
		TenantID: inv.TenantID, ActorID: actorID, Action: entity.AuditActionStatusChange,
		EntityType: entity.AuditEntityInvoice, EntityID: inv.ID, Field: "status",
		Old: entity.InvoiceStatusSent, New: entity.InvoiceStatusPaid,
	})
}
