package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is the lifecycle status of a product.
type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusInactive ProductStatus = "inactive"
)

// ParseProductStatus converts a raw string into a ProductStatus.
// Only the two known values are accepted.
func ParseProductStatus(s string) (ProductStatus, error) {
	switch ProductStatus(s) {
	case StatusActive, StatusInactive:
		return ProductStatus(s), nil
	}
	return "", fmt.Errorf("invalid product status: %q", s)
}

// Product represents a catalog entry in the store.
// Timestamps are maintained by the service layer, not by GORM hooks.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(200);not null"`
	Description string          `json:"description" gorm:"type:varchar(1000)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(18,2);not null"`
	Category    string          `json:"category" gorm:"type:varchar(100);not null"`
	Status      ProductStatus   `json:"status" gorm:"type:varchar(20);not null"`
	ImageURL    *string         `json:"imageUrl,omitempty" gorm:"type:varchar(500)"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
