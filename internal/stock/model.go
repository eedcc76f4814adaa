package stock

import "github.com/shopspring/decimal"

type Status string

const (
	StatusAvailable  Status = "available"
	StatusLowStock   Status = "low_stock"
	StatusOutOfStock Status = "out_of_stock"
)

const BatchStatusActive = "Active"

// Requirement is one row of product_ingredients.
type Requirement struct {
	ProductID    int64
	IngredientID int64
	QuantityUsed decimal.Decimal
}

// Levels holds the summed stock of active batches keyed by ingredient.
// An ingredient without active batches is absent and counts as zero.
type Levels map[int64]decimal.Decimal

type Verdict struct {
	Status               Status
	Reason               string
	AvailableIngredients int
	TotalIngredients     int
}
