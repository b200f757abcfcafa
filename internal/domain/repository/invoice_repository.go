package repository

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// InvoiceFilter filtros del listado de facturas.
type InvoiceFilter struct {
	Status     entity.InvoiceStatus
	CustomerID string
	Limit      int
	Offset     int
}

// InvoiceRepository define el puerto de persistencia para Invoice e ítems.
// GetByID y GetForUpdate cargan ítems (por posición) y pagos.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la cabecera: serializa finalize/void/pagos por factura.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	// Update persiste la cabecera: estado, número, totales, snapshot, fechas, movimientos.
	Update(ctx context.Context, invoice *entity.Invoice) error
	List(ctx context.Context, tenantID string, filter InvoiceFilter) ([]*entity.Invoice, error)
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	UpdateItem(ctx context.Context, item *entity.InvoiceItem) error
	DeleteItem(ctx context.Context, invoiceID, itemID string) error
}
