package repository

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para pagos.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
}
