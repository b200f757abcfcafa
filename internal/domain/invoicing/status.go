package invoicing

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
)

var transitions = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.InvoiceStatusDraft: {entity.InvoiceStatusSent, entity.InvoiceStatusVoid},
	entity.InvoiceStatusSent:  {entity.InvoiceStatusPaid, entity.InvoiceStatusVoid},
}

// CanTransition DRAFT → SENT → {PAID, VOID}; DRAFT → VOID.
func CanTransition(from, to entity.InvoiceStatus) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return domain.InvalidTransition("factura", string(from), string(to))
}

// RequireDraft las líneas solo se editan en DRAFT.
func RequireDraft(inv *entity.Invoice) error {
	if inv.Status != entity.InvoiceStatusDraft {
		return domain.Statef("la factura %s está en %s; solo se edita en DRAFT", inv.Number, inv.Status)
	}
	return nil
}

// PaidAmount suma de pagos COMPLETED.
func PaidAmount(inv *entity.Invoice) (money.Money, error) {
	paid := money.Zero(inv.Currency)
	for _, p := range inv.Payments {
		if p.Status != entity.PaymentStatusCompleted {
			continue
		}
		var err error
		if paid, err = paid.Add(p.Amount); err != nil {
			return money.Money{}, err
		}
	}
	return paid, nil
}

// IsFullyPaid pagos COMPLETED ≥ total.
func IsFullyPaid(inv *entity.Invoice) (bool, error) {
	paid, err := PaidAmount(inv)
	if err != nil {
		return false, err
	}
	cmp, err := paid.Cmp(inv.Total)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// EffectiveStatus estado visible: una factura SENT vencida y no pagada se reporta
// OVERDUE. Nunca se persiste.
func EffectiveStatus(inv *entity.Invoice, paid money.Money, now time.Time) entity.InvoiceStatus {
	if inv.Status != entity.InvoiceStatusSent || inv.DueDate == nil {
		return inv.Status
	}
	if paid.Currency == inv.Total.Currency && paid.Amount >= inv.Total.Amount {
		return inv.Status
	}
	if now.After(*inv.DueDate) {
		return entity.InvoiceStatusOverdue
	}
	return inv.Status
}

var paymentTransitions = map[entity.PaymentStatus][]entity.PaymentStatus{
	entity.PaymentStatusPending: {
		entity.PaymentStatusCompleted, entity.PaymentStatusFailed, entity.PaymentStatusCancelled,
	},
	entity.PaymentStatusCompleted: {entity.PaymentStatusRefunded},
}

// CanTransitionPayment PENDING → {COMPLETED, FAILED, CANCELLED}; COMPLETED → REFUNDED.
func CanTransitionPayment(from, to entity.PaymentStatus) error {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return domain.InvalidTransition("pago", string(from), string(to))
}

// ValidPaymentStatus estados aceptados al registrar un pago.
func ValidPaymentStatus(s entity.PaymentStatus) bool {
	switch s {
	case entity.PaymentStatusPending, entity.PaymentStatusCompleted, entity.PaymentStatusFailed,
		entity.PaymentStatusCancelled, entity.PaymentStatusRefunded:
		return true
	}
	return false
}
