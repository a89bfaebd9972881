package reports

import "github.com/shopspring/decimal"

// Window defaults applied when a caller passes zero or a negative count.
const (
	DefaultWeeks   = 8
	DefaultMonths  = 12
	DefaultPeriods = 12
)

// Window caps; larger counts are rejected before reaching the database.
const (
	MaxWeeks   = 520
	MaxMonths  = 120
	MaxPeriods = 120
)

// SalesPoint is one period of the sales aggregation.
type SalesPoint struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

// ProfitPoint is one period of the profit aggregation.
type ProfitPoint struct {
	Period   string          `json:"period"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
