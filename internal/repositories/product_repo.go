package repositories

import (
	"github.com/shopspring/decimal"

	"productmanager/internal/models"
)

// ProductFilter narrows a listing. Nil fields impose no constraint; set fields
// combine with logical AND. Category matches exactly and is case sensitive.
// Price bounds are inclusive.
type ProductFilter struct {
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Status   *models.ProductStatus
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
