package domain

import "time"

// Product is the domain model for inventory items.
//
// Photo is either empty, a relative path under the upload directory
// (e.g. "/productos/abc.png"), or an absolute URL. SKU is assigned by the
// store at creation time and is unique and strictly increasing.
type Product struct {
	ID          string
	Name        string
	Price       float64
	Description string
	Photo       string
	Stock       int
	SKU         int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
