package product

import (
	"tabeya-be/internal/stock"

	"github.com/shopspring/decimal"
)

const AvailabilityAvailable = "Available"

// Product is a catalog row as stored in products.
type Product struct {
	ID            int64
	Name          string
	Category      string
	Description   *string
	Price         decimal.Decimal
	Availability  string
	ServingSize   *string
	Image         *string
	PopularityTag *string
	OrderCount    int
}

// AvailableProduct is the storefront read model.
type AvailableProduct struct {
	ProductID            int64           `json:"productId"`
	Name                 string          `json:"name"`
	Category             string          `json:"category"`
	Description          *string         `json:"description,omitempty"`
	Price                decimal.Decimal `json:"price"`
	ServingSize          *string         `json:"servingSize,omitempty"`
	Image                *string         `json:"image,omitempty"`
	PopularityTag        *string         `json:"popularityTag,omitempty"`
	OrderCount           int             `json:"orderCount"`
	StarRating           int             `json:"starRating"`
	StockStatus          stock.Status    `json:"stockStatus"`
	AvailabilityReason   string          `json:"availabilityReason"`
	IngredientsAvailable int             `json:"ingredientsAvailable"`
	IngredientsRequired  int             `json:"ingredientsRequired"`
}
