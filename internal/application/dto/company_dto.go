package dto

import (
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
)

// UpsertCompanyRequest perfil legal de la empresa (tenant) que se congela en cada factura.
type UpsertCompanyRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	TaxID    string `json:"tax_id" validate:"required,min=1,max=30"`
	Address  string `json:"address" validate:"max=300"`
	Phone    string `json:"phone" validate:"max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCompanyResponse mapea la entidad.
func NewCompanyResponse(c *entity.Company) CompanyResponse {
	return CompanyResponse{
		ID: c.ID, Name: c.Name, TaxID: c.TaxID, Address: c.Address, Phone: c.Phone,
		Email: c.Email, Currency: c.Currency, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}
