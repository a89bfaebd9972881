package expenses

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reference tags separate the origins of an expense.
const (
	// ReferenceStockAddition marks stock bought into the catalog.
	ReferenceStockAddition = "stock_add"
	// ReferenceOrderConsumption marks material consumed by an order.
	ReferenceOrderConsumption = "order_consumption"
)

// Meta carries audit traceability for an expense.
type Meta struct {
	OrderID *uuid.UUID `json:"order_id,omitempty"`
	ItemID  *uuid.UUID `json:"item_id,omitempty"`
	Qty     int        `json:"qty"`
}

// Expense is one entry of the append-only cost ledger.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Reference   string          `json:"reference"`
	Meta        Meta            `json:"meta"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Entry is an expense waiting to be written.
type Entry struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Reference   string          `json:"reference"`
	Meta        Meta            `json:"meta"`
}

// ListFilter narrows expense listings. Zero values mean no filter.
type ListFilter struct {
	Reference string
	ProductID *uuid.UUID
	OrderID   *uuid.UUID
	Limit     int
}

var errEmptyEntry = errors.New("expenses: entry requires description and reference")

func (e Entry) validate() error {
	if e.Description == "" || e.Reference == "" {
		return errEmptyEntry
	}
	return nil
}

// StockAddition builds the entry for qty units added to a product. ok is false
// when the resulting amount is not positive.
func StockAddition(productID uuid.UUID, productName string, materialCost decimal.Decimal, qty int, initial bool) (Entry, bool) {
	amount := materialCost.Mul(decimal.NewFromInt(int64(qty)))
	if qty <= 0 || !amount.IsPositive() {
		return Entry{}, false
	}
	desc := fmt.Sprintf("Compra de stock: %s", productName)
	if initial {
		desc = fmt.Sprintf("Compra inicial de stock: %s", productName)
	}
	pid := productID
	return Entry{
		Description: desc,
		Amount:      amount,
		ProductID:   &pid,
		Reference:   ReferenceStockAddition,
		Meta:        Meta{Qty: qty},
	}, true
}

// OrderConsumption builds the entry for material consumed by one order line.
func OrderConsumption(orderID, itemID, productID uuid.UUID, folio string, materialCost decimal.Decimal, qty int) (Entry, bool) {
	amount := materialCost.Mul(decimal.NewFromInt(int64(qty)))
	if qty <= 0 || !amount.IsPositive() {
		return Entry{}, false
	}
	oid, iid, pid := orderID, itemID, productID
	return Entry{
		Description: fmt.Sprintf("Consumo de material pedido %s", folio),
		Amount:      amount,
		ProductID:   &pid,
		Reference:   ReferenceOrderConsumption,
		Meta:        Meta{OrderID: &oid, ItemID: &iid, Qty: qty},
	}, true
}
