package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

// CustomerUseCase casos de uso para clientes (facturación).
// Los cambios no alteran facturas emitidas: estas conservan su snapshot.
type CustomerUseCase struct {
	store repository.Store
	now   func() time.Time
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(store repository.Store) *CustomerUseCase {
	return &CustomerUseCase{store: store, now: time.Now}
}

// Create crea un nuevo cliente.
func (uc *CustomerUseCase) Create(ctx context.Context, tenantID string, in dto.CreateCustomerRequest) (*entity.Customer, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(in.Name),
		TaxID:     strings.TrimSpace(in.TaxID),
		Address:   strings.TrimSpace(in.Address),
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.store.Reader().Customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Get cliente del tenant.
func (uc *CustomerUseCase) Get(ctx context.Context, tenantID, id string) (*entity.Customer, error) {
	return loadCustomer(ctx, uc.store.Reader(), tenantID, id)
}

// Update modifica los datos del cliente.
func (uc *CustomerUseCase) Update(ctx context.Context, tenantID, id string, in dto.UpdateCustomerRequest) (*entity.Customer, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	var out *entity.Customer
	err := uc.store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		c, err := loadCustomer(ctx, r, tenantID, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			c.Name = strings.TrimSpace(*in.Name)
		}
		if in.TaxID != nil {
			c.TaxID = strings.TrimSpace(*in.TaxID)
		}
		if in.Address != nil {
			c.Address = strings.TrimSpace(*in.Address)
		}
		if in.Email != nil {
			c.Email = *in.Email
		}
		if in.Phone != nil {
			c.Phone = *in.Phone
		}
		c.UpdatedAt = uc.now().UTC()
		out = c
		return r.Customers.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List lista clientes de la empresa.
func (uc *CustomerUseCase) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Customer, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.store.Reader().Customers.ListByTenant(ctx, tenantID, limit, offset)
}

// CompanyUseCase perfil legal de la empresa; su ID es el tenant.
type CompanyUseCase struct {
	store repository.Store
	now   func() time.Time
}

// NewCompanyUseCase construye el caso de uso.
func NewCompanyUseCase(store repository.Store) *CompanyUseCase {
	return &CompanyUseCase{store: store, now: time.Now}
}

// Upsert crea o reemplaza el perfil de la empresa.
func (uc *CompanyUseCase) Upsert(ctx context.Context, tenantID string, in dto.UpsertCompanyRequest) (*entity.Company, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if tenantID == "" {
		return nil, domain.Validationf("tenant requerido")
	}
	var out *entity.Company
	err := uc.store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		now := uc.now().UTC()
		existing, err := r.Companies.GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		c := &entity.Company{ID: tenantID, CreatedAt: now}
		if existing != nil {
			c = existing
		}
		c.Name = strings.TrimSpace(in.Name)
		c.TaxID = strings.TrimSpace(in.TaxID)
		c.Address = strings.TrimSpace(in.Address)
		c.Phone = in.Phone
		c.Email = in.Email
		c.Currency = strings.ToUpper(in.Currency)
		c.UpdatedAt = now
		out = c
		if existing == nil {
			return r.Companies.Create(ctx, c)
		}
		return r.Companies.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get perfil de la empresa.
func (uc *CompanyUseCase) Get(ctx context.Context, tenantID string) (*entity.Company, error) {
	c, err := uc.store.Reader().Companies.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFoundf("empresa %s sin perfil registrado", tenantID)
	}
	return c, nil
}
