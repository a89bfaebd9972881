package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sg-pedidos/pedidos/internal/shared"
)

func validateItems(items []ItemInput) error {
	for i, it := range items {
		if it.Quantity <= 0 {
			return shared.Validationf("items[%d]: quantity must be positive", i)
		}
		if it.UnitPrice.IsNegative() {
			return shared.Validationf("items[%d]: unit_price must not be negative", i)
		}
		if !wholeCents(it.UnitPrice) {
			return shared.Validationf("items[%d]: unit_price must have at most 2 decimals", i)
		}
		if it.ProductID == nil && (it.Description == nil || strings.TrimSpace(*it.Description) == "") {
			return shared.Validationf("items[%d]: product_id or description required", i)
		}
	}
	return nil
}

func (in CreateInput) validate() (*time.Time, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if in.Advance != nil {
		if in.Advance.IsNegative() {
			return nil, shared.Validationf("advance must not be negative")
		}
		if !wholeCents(*in.Advance) {
			return nil, shared.Validationf("advance must have at most 2 decimals")
		}
	}
	if in.DeliveryDate == nil || *in.DeliveryDate == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, *in.DeliveryDate)
	if err != nil {
		return nil, shared.Validationf("delivery_date: %v", err)
	}
	return &d, nil
}

func (in ReplaceItemsInput) validate() error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	return validateItems(in.Items)
}

func (in PaymentInput) validate() error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return shared.Validationf("amount must be positive")
	}
	if !wholeCents(in.Amount) {
		return shared.Validationf("amount must have at most 2 decimals")
	}
	return nil
}

// wholeCents reports whether d fits numeric(12,2) without rounding, so the
// stored total always equals the sum of the stored line subtotals.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
