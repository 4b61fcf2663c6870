package dto

import (
	"time"

	"github.com/jende/inventory-service/internal/domain"
)

// ProductResponse is the public view of a product.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description,omitempty"`
	Photo       string    `json:"photo"`
	Stock       int       `json:"stock"`
	SKU         int64     `json:"sku"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductFromDomain maps a domain product to its response shape.
func ProductFromDomain(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Photo:       p.Photo,
		Stock:       p.Stock,
		SKU:         p.SKU,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProductsFromDomain maps a product slice.
func ProductsFromDomain(products []domain.Product) []ProductResponse {
	result := make([]ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, ProductFromDomain(&products[i]))
	}
	return result
}
