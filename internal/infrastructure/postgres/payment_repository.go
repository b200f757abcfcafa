package postgres

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo pagos recibidos contra facturas.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, tenant_id, invoice_id, amount, currency, status, method, reference,
	received_at, deposit_account_id, ledger_transaction_ids, created_by, created_at, updated_at`

func scanPayment(row rowScanner) (*entity.Payment, error) {
	var (
		p                entity.Payment
		amount           int64
		currency, status string
		deposit          *string
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.InvoiceID, &amount, &currency, &status, &p.Method, &p.Reference,
		&p.ReceivedAt, &deposit, &p.LedgerTransactionIDs, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Amount = mon(amount, currency)
	p.Status = entity.PaymentStatus(status)
	p.DepositAccountID = deref(deposit)
	return &p, nil
}

// Create persiste un pago.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.TenantID, p.InvoiceID, p.Amount.Amount, p.Amount.Currency, string(p.Status), p.Method, p.Reference,
		p.ReceivedAt, nullIfEmpty(p.DepositAccountID), stringsOrEmpty(p.LedgerTransactionIDs), p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	return classify(err, "insert payment")
}

// GetByID obtiene un pago por ID.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, classify(err, "get payment")
	}
	return p, nil
}

// Update persiste estado y movimientos asociados.
func (r *PaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE payments SET status = $2, ledger_transaction_ids = $3, updated_at = $4 WHERE id = $1`,
		p.ID, string(p.Status), stringsOrEmpty(p.LedgerTransactionIDs), p.UpdatedAt,
	)
	if err != nil {
		return classify(err, "update payment")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("pago %s no encontrado", p.ID)
	}
	return nil
}

// ListByInvoice pagos de la factura en orden de registro.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	return r.listWhere(ctx, `invoice_id = $1`, invoiceID)
}

func (r *PaymentRepo) listWhere(ctx context.Context, cond string, arg any) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE `+cond+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, classify(err, "list payments")
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, classify(err, "scan payment")
		}
		list = append(list, p)
	}
	return list, classify(rows.Err(), "list payments")
}
