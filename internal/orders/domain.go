package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending      Status = "PENDIENTE"
	StatusInProduction Status = "EN_PRODUCCION"
	StatusFinished     Status = "TERMINADO"
	StatusDelivered    Status = "ENTREGADO"
	StatusCancelled    Status = "CANCELADO"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProduction, StatusFinished, StatusDelivered, StatusCancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further lifecycle step follows s. Transitions
// are not enforced; this is informational for callers.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

// Order is a customer purchase with its line items and payments.
type Order struct {
	ID           uuid.UUID       `json:"id"`
	Folio        string          `json:"folio"`
	Status       Status          `json:"status"`
	Notes        *string         `json:"notes,omitempty"`
	Total        decimal.Decimal `json:"total"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	ClientID     *uuid.UUID      `json:"client_id,omitempty"`
	ClientName   *string         `json:"client_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Items        []LineItem      `json:"items"`
	Payments     []Payment       `json:"payments"`
}

// Paid sums every payment recorded against the order.
func (o Order) Paid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range o.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Balance is the amount still owed.
func (o Order) Balance() decimal.Decimal {
	return o.Total.Sub(o.Paid())
}

// LineItem is one priced entry of an order, tied to a product or free text.
type LineItem struct {
	ID           uuid.UUID        `json:"id"`
	OrderID      uuid.UUID        `json:"order_id"`
	ProductID    *uuid.UUID       `json:"product_id,omitempty"`
	ProductName  *string          `json:"product_name,omitempty"`
	MaterialCost *decimal.Decimal `json:"material_cost,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Quantity     int              `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	Subtotal     decimal.Decimal  `json:"subtotal"`
}

// Payment is money received against an order.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    *string         `json:"method,omitempty"`
	Reference *string         `json:"reference,omitempty"`
	IsAdvance bool            `json:"is_advance"`
	CreatedAt time.Time       `json:"created_at"`
}

// ItemInput describes a line item to be written.
type ItemInput struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	Description *string         `json:"description,omitempty"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal is quantity times unit price.
func (in ItemInput) Subtotal() decimal.Decimal {
	return in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
}

// CreateInput is the request to place an order.
type CreateInput struct {
	ClientID     *uuid.UUID       `json:"client_id"`
	Notes        *string          `json:"notes,omitempty"`
	DeliveryDate *string          `json:"delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Items        []ItemInput      `json:"items" validate:"required,min=1,dive"`
	Advance      *decimal.Decimal `json:"advance,omitempty"`
}

// ReplaceItemsInput replaces the notes and the full item set of an order.
type ReplaceItemsInput struct {
	Notes *string     `json:"notes"`
	Items []ItemInput `json:"items" validate:"dive"`
}

// PaymentInput records a payment against an order.
type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    *string         `json:"method,omitempty" validate:"omitempty,max=50"`
	Reference *string         `json:"reference,omitempty" validate:"omitempty,max=100"`
	IsAdvance bool            `json:"is_advance"`
}

// ComputeTotal sums quantity times unit price over items. An empty set totals zero.
func ComputeTotal(items []ItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
