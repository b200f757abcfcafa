package repository

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (el tenant).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
}
