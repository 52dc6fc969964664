package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents an item in the storefront catalogue.
type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	Category      string    `json:"category" db:"category"`
	Stock         int       `json:"stock" db:"stock"`
	Images        []string  `json:"images" db:"images"`
	RatingAverage float64   `json:"ratingAverage" db:"rating_average"`
	RatingCount   int       `json:"ratingCount" db:"rating_count"`
	Featured      bool      `json:"featured" db:"featured"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductRequest is the payload for creating or replacing a product.
type ProductRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"required,max=100"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images" validate:"dive,url"`
	Featured    bool     `json:"featured"`
}

// Product list sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Category string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Featured *bool
	Sort     string
	Limit    int
	Offset   int
}

// Pagination describes a page of a listing.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
