package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, tenant_id, customer_id, number, number_final, status, currency,
	issue_date, due_date, subtotal, tax_amount, vat_amount, total, snapshot,
	receivable_account_id, ledger_transaction_ids, notes, duplicated_from, void_reason,
	finalized_at, voided_at, paid_at, version, created_by, created_at, updated_at`

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		inv                        entity.Invoice
		status                     string
		subtotal, tax, vat, total  int64
		snapshot                   []byte
		receivable, duplicatedFrom *string
	)
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.CustomerID, &inv.Number, &inv.NumberFinal, &status, &inv.Currency,
		&inv.IssueDate, &inv.DueDate, &subtotal, &tax, &vat, &total, &snapshot,
		&receivable, &inv.LedgerTransactionIDs, &inv.Notes, &duplicatedFrom, &inv.VoidReason,
		&inv.FinalizedAt, &inv.VoidedAt, &inv.PaidAt, &inv.Version, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	inv.Subtotal, inv.TaxAmount = mon(subtotal, inv.Currency), mon(tax, inv.Currency)
	inv.VATAmount, inv.Total = mon(vat, inv.Currency), mon(total, inv.Currency)
	inv.ReceivableAccountID, inv.DuplicatedFrom = deref(receivable), deref(duplicatedFrom)
	if len(snapshot) > 0 {
		inv.Snapshot = &entity.LegalSnapshot{}
		if err := json.Unmarshal(snapshot, inv.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
	}
	return &inv, nil
}

func encodeSnapshot(s *entity.LegalSnapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func stringsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// Create persiste la cabecera y sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	snapshot, err := encodeSnapshot(inv.Snapshot)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`
	_, err = r.q.Exec(ctx, query,
		inv.ID, inv.TenantID, inv.CustomerID, inv.Number, inv.NumberFinal, string(inv.Status), inv.Currency,
		inv.IssueDate, inv.DueDate, inv.Subtotal.Amount, inv.TaxAmount.Amount, inv.VATAmount.Amount, inv.Total.Amount, snapshot,
		nullIfEmpty(inv.ReceivableAccountID), stringsOrEmpty(inv.LedgerTransactionIDs), inv.Notes, nullIfEmpty(inv.DuplicatedFrom), inv.VoidReason,
		inv.FinalizedAt, inv.VoidedAt, inv.PaidAt, inv.Version, inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Duplicatef("el número de factura %s ya existe", inv.Number)
		}
		return classify(err, "insert invoice")
	}
	for _, it := range inv.Items {
		if err := r.CreateItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (r *InvoiceRepo) get(ctx context.Context, query, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, classify(err, "get invoice")
	}
	if err := r.attach(ctx, []*entity.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetByID obtiene una factura completa (ítems por posición y pagos) por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

// Update reescribe la cabecera. Las líneas tienen sus propios métodos.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	snapshot, err := encodeSnapshot(inv.Snapshot)
	if err != nil {
		return err
	}
	query := `
		UPDATE invoices
		SET number = $2, number_final = $3, status = $4, issue_date = $5, due_date = $6,
		    subtotal = $7, tax_amount = $8, vat_amount = $9, total = $10, snapshot = $11,
		    receivable_account_id = $12, ledger_transaction_ids = $13, notes = $14, void_reason = $15,
		    finalized_at = $16, voided_at = $17, paid_at = $18, version = $19, updated_at = $20
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.Number, inv.NumberFinal, string(inv.Status), inv.IssueDate, inv.DueDate,
		inv.Subtotal.Amount, inv.TaxAmount.Amount, inv.VATAmount.Amount, inv.Total.Amount, snapshot,
		nullIfEmpty(inv.ReceivableAccountID), stringsOrEmpty(inv.LedgerTransactionIDs), inv.Notes, inv.VoidReason,
		inv.FinalizedAt, inv.VoidedAt, inv.PaidAt, inv.Version, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Duplicatef("el número de factura %s ya existe", inv.Number)
		}
		return classify(err, "update invoice")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("factura %s no encontrada", inv.ID)
	}
	return nil
}

// List facturas del tenant, más recientes primero, con ítems y pagos.
func (r *InvoiceRepo) List(ctx context.Context, tenantID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list invoices")
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, classify(err, "scan invoice")
		}
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "list invoices")
	}
	rows.Close()
	if err := r.attach(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// attach carga ítems y pagos de un lote de facturas con dos consultas.
func (r *InvoiceRepo) attach(ctx context.Context, list []*entity.Invoice) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Invoice, len(list))
	ids := make([]string, 0, len(list))
	for _, inv := range list {
		byID[inv.ID] = inv
		ids = append(ids, inv.ID)
		inv.Items, inv.Payments = nil, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, position, description, quantity, unit_price, tax_rate, vat_rate, amount
		FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY invoice_id, position`, ids)
	if err != nil {
		return classify(err, "list invoice items")
	}
	for rows.Next() {
		var (
			it            entity.InvoiceItem
			price, amount int64
		)
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.Description, &it.Quantity,
			&price, &it.TaxRate, &it.VATRate, &amount); err != nil {
			rows.Close()
			return classify(err, "scan invoice item")
		}
		inv := byID[it.InvoiceID]
		it.UnitPrice, it.Amount = mon(price, inv.Currency), mon(amount, inv.Currency)
		inv.Items = append(inv.Items, &it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return classify(err, "list invoice items")
	}

	payments, err := NewPaymentRepository(r.q).listWhere(ctx, `invoice_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for _, p := range payments {
		byID[p.InvoiceID].Payments = append(byID[p.InvoiceID].Payments, p)
	}
	return nil
}

// CreateItem inserta una línea.
func (r *InvoiceRepo) CreateItem(ctx context.Context, it *entity.InvoiceItem) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, tax_rate, vat_rate, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		it.ID, it.InvoiceID, it.Position, it.Description, it.Quantity, it.UnitPrice.Amount, it.TaxRate, it.VATRate, it.Amount.Amount,
	)
	return classify(err, "insert invoice item")
}

// UpdateItem reescribe una línea.
func (r *InvoiceRepo) UpdateItem(ctx context.Context, it *entity.InvoiceItem) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoice_items
		SET description = $3, quantity = $4, unit_price = $5, tax_rate = $6, vat_rate = $7, amount = $8
		WHERE id = $1 AND invoice_id = $2`,
		it.ID, it.InvoiceID, it.Description, it.Quantity, it.UnitPrice.Amount, it.TaxRate, it.VATRate, it.Amount.Amount,
	)
	if err != nil {
		return classify(err, "update invoice item")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("ítem %s no encontrado", it.ID)
	}
	return nil
}

// DeleteItem elimina una línea.
func (r *InvoiceRepo) DeleteItem(ctx context.Context, invoiceID, itemID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE id = $1 AND invoice_id = $2`, itemID, invoiceID)
	if err != nil {
		return classify(err, "delete invoice item")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("ítem %s no encontrado", itemID)
	}
	return nil
}
