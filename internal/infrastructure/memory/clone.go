package memory

import (
	"slices"
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// Las entidades se guardan por valor; estos helpers copian punteros y slices
// para que ningún caller pueda mutar el estado publicado.

func ptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(t *time.Time) *time.Time { return ptr(t) }

func cloneAccount(a entity.Account) *entity.Account {
	a.ParentID = ptr(a.ParentID)
	return &a
}

func cloneTransaction(t entity.Transaction) *entity.Transaction {
	t.Tags = slices.Clone(t.Tags)
	t.ReconciledAt = cloneTime(t.ReconciledAt)
	return &t
}

func cloneInvoiceHeader(inv entity.Invoice) entity.Invoice {
	inv.IssueDate = cloneTime(inv.IssueDate)
	inv.DueDate = cloneTime(inv.DueDate)
	inv.FinalizedAt = cloneTime(inv.FinalizedAt)
	inv.VoidedAt = cloneTime(inv.VoidedAt)
	inv.PaidAt = cloneTime(inv.PaidAt)
	inv.Snapshot = ptr(inv.Snapshot)
	inv.LedgerTransactionIDs = slices.Clone(inv.LedgerTransactionIDs)
	inv.Items = nil
	inv.Payments = nil
	return inv
}

func clonePayment(p entity.Payment) *entity.Payment {
	p.LedgerTransactionIDs = slices.Clone(p.LedgerTransactionIDs)
	return &p
}

func cloneAudit(e entity.AuditLogEntry) *entity.AuditLogEntry {
	e.OldValue = slices.Clone(e.OldValue)
	e.NewValue = slices.Clone(e.NewValue)
	return &e
}
