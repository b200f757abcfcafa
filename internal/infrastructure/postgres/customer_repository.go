package postgres

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, tenant_id, name, tax_id, address, email, phone, created_at, updated_at`

func scanCustomer(row rowScanner) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.TaxID, &c.Address, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un cliente. El NIT es único por tenant.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.TenantID, c.Name, c.TaxID, c.Address, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Duplicatef("ya existe un cliente con identificación %s", c.TaxID)
		}
		return classify(err, "insert customer")
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, classify(err, "get customer")
	}
	return c, nil
}

// ListByTenant clientes del tenant por nombre. limit <= 0 devuelve todos.
func (r *CustomerRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 ORDER BY name, id`
	args := []any{tenantID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list customers")
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, classify(err, "scan customer")
		}
		list = append(list, c)
	}
	return list, classify(rows.Err(), "list customers")
}

// Update actualiza los datos del cliente.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE customers SET name = $2, tax_id = $3, address = $4, email = $5, phone = $6, updated_at = $7
		WHERE id = $1`,
		c.ID, c.Name, c.TaxID, c.Address, c.Email, c.Phone, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Duplicatef("ya existe un cliente con identificación %s", c.TaxID)
		}
		return classify(err, "update customer")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("cliente %s no encontrado", c.ID)
	}
	return nil
}
