package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sg-pedidos/pedidos/internal/shared"
)

// Product is a catalog entry with price, material cost and tracked stock.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Unit         *string         `json:"unit,omitempty"`
	BasePrice    decimal.Decimal `json:"base_price"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	Stock        *int            `json:"stock"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StockQty returns the tracked stock, treating NULL as zero.
func (p Product) StockQty() int {
	if p.Stock == nil {
		return 0
	}
	return *p.Stock
}

// Input carries the mutable fields of a product. A nil Stock, MaterialCost or
// Active on update keeps the stored value. On create a nil Stock or
// MaterialCost is zero and a nil Active is true.
type Input struct {
	Name         string           `json:"name" validate:"required,max=200"`
	Description  *string          `json:"description,omitempty"`
	Unit         *string          `json:"unit,omitempty" validate:"omitempty,max=30"`
	BasePrice    decimal.Decimal  `json:"base_price"`
	MaterialCost *decimal.Decimal `json:"material_cost,omitempty"`
	Stock        *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Active       *bool            `json:"active,omitempty"`
}

func (in Input) validate() error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	if in.BasePrice.IsNegative() {
		return shared.Validationf("base_price must not be negative")
	}
	if in.MaterialCost != nil && in.MaterialCost.IsNegative() {
		return shared.Validationf("material_cost must not be negative")
	}
	return nil
}

func (in Input) materialCostOrZero() decimal.Decimal {
	if in.MaterialCost == nil {
		return decimal.Zero
	}
	return *in.MaterialCost
}
