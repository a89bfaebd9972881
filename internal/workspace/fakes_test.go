package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sg-pedidos/pedidos/internal/clients"
	"github.com/sg-pedidos/pedidos/internal/expenses"
	"github.com/sg-pedidos/pedidos/internal/orders"
	"github.com/sg-pedidos/pedidos/internal/products"
	"github.com/sg-pedidos/pedidos/internal/reports"
	"github.com/sg-pedidos/pedidos/internal/shared"
)

var errBackend = shared.Persistence("query", errors.New("connection refused"))

type fakeClients struct {
	items   []clients.Client
	failing bool
}

func (f *fakeClients) List(ctx context.Context) ([]clients.Client, error) {
	if f.failing {
		return nil, errBackend
	}
	return append([]clients.Client{}, f.items...), nil
}

func (f *fakeClients) Get(ctx context.Context, id uuid.UUID) (clients.Client, error) {
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return clients.Client{}, shared.ErrNotFound
}

func (f *fakeClients) Create(ctx context.Context, in clients.Input) (clients.Client, error) {
	if in.Name == "" {
		return clients.Client{}, shared.Validationf("name is required")
	}
	c := clients.Client{ID: uuid.New(), Name: in.Name, Phone: in.Phone, Email: in.Email, CreatedAt: time.Now()}
	f.items = append([]clients.Client{c}, f.items...)
	return c, nil
}

func (f *fakeClients) Update(ctx context.Context, id uuid.UUID, in clients.Input) (clients.Client, error) {
	for i, c := range f.items {
		if c.ID == id {
			c.Name, c.Phone, c.Email = in.Name, in.Phone, in.Email
			f.items[i] = c
			return c, nil
		}
	}
	return clients.Client{}, shared.ErrNotFound
}

func (f *fakeClients) Delete(ctx context.Context, id uuid.UUID) error {
	for i, c := range f.items {
		if c.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeProducts struct {
	items []products.Product
}

func (f *fakeProducts) List(ctx context.Context) ([]products.Product, error) {
	return append([]products.Product{}, f.items...), nil
}

func (f *fakeProducts) Get(ctx context.Context, id uuid.UUID) (products.Product, error) {
	for _, p := range f.items {
		if p.ID == id {
			return p, nil
		}
	}
	return products.Product{}, shared.ErrNotFound
}

func (f *fakeProducts) Create(ctx context.Context, in products.Input) (products.Product, error) {
	p := products.Product{ID: uuid.New(), Name: in.Name, BasePrice: in.BasePrice, Stock: in.Stock, Active: true}
	if in.MaterialCost != nil {
		p.MaterialCost = *in.MaterialCost
	}
	f.items = append(f.items, p)
	return p, nil
}

func (f *fakeProducts) Update(ctx context.Context, id uuid.UUID, in products.Input) (products.Product, error) {
	for i, p := range f.items {
		if p.ID == id {
			p.Name, p.Stock = in.Name, in.Stock
			f.items[i] = p
			return p, nil
		}
	}
	return products.Product{}, shared.ErrNotFound
}

func (f *fakeProducts) Delete(ctx context.Context, id uuid.UUID) error {
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeOrders struct {
	items     []orders.Order
	createErr error
	listErr   error
}

func (f *fakeOrders) find(id uuid.UUID) int {
	for i, o := range f.items {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeOrders) List(ctx context.Context) ([]orders.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]orders.Order{}, f.items...), nil
}

func (f *fakeOrders) Get(ctx context.Context, id uuid.UUID) (orders.Order, error) {
	if i := f.find(id); i >= 0 {
		return f.items[i], nil
	}
	return orders.Order{}, shared.ErrNotFound
}

func (f *fakeOrders) Create(ctx context.Context, in orders.CreateInput) (orders.Order, error) {
	if f.createErr != nil {
		return orders.Order{}, f.createErr
	}
	if len(in.Items) == 0 {
		return orders.Order{}, shared.Validationf("items (required)")
	}
	o := orders.Order{ID: uuid.New(), Folio: "P-000001", Status: orders.StatusPending, Total: orders.ComputeTotal(in.Items), ClientID: in.ClientID}
	if in.Advance != nil {
		o.Payments = []orders.Payment{{ID: uuid.New(), OrderID: o.ID, Amount: *in.Advance, IsAdvance: true}}
	}
	f.items = append([]orders.Order{o}, f.items...)
	return o, nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status orders.Status) error {
	if !status.Valid() {
		return shared.Validationf("unknown status %q", status)
	}
	i := f.find(id)
	if i < 0 {
		return shared.ErrNotFound
	}
	f.items[i].Status = status
	return nil
}

func (f *fakeOrders) ReplaceItems(ctx context.Context, id uuid.UUID, in orders.ReplaceItemsInput) (orders.Order, error) {
	i := f.find(id)
	if i < 0 {
		return orders.Order{}, shared.ErrNotFound
	}
	f.items[i].Total = orders.ComputeTotal(in.Items)
	f.items[i].Items = []orders.LineItem{}
	return f.items[i], nil
}

func (f *fakeOrders) Delete(ctx context.Context, id uuid.UUID) error {
	i := f.find(id)
	if i < 0 {
		return shared.ErrNotFound
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return nil
}

func (f *fakeOrders) RecordPayment(ctx context.Context, orderID uuid.UUID, in orders.PaymentInput) (orders.Payment, error) {
	i := f.find(orderID)
	if i < 0 {
		return orders.Payment{}, shared.ErrNotFound
	}
	p := orders.Payment{ID: uuid.New(), OrderID: orderID, Amount: in.Amount, IsAdvance: in.IsAdvance}
	f.items[i].Payments = append(f.items[i].Payments, p)
	return p, nil
}

type fakeReports struct {
	failing   bool
	lastWeeks int
}

func (f *fakeReports) SalesByWeek(ctx context.Context, weeks int) ([]reports.SalesPoint, error) {
	f.lastWeeks = weeks
	if f.failing {
		return []reports.SalesPoint{}, errBackend
	}
	return []reports.SalesPoint{{Period: "2026-W41", Total: decimal.NewFromInt(150)}}, nil
}

func (f *fakeReports) SalesByMonth(ctx context.Context, months int) ([]reports.SalesPoint, error) {
	if f.failing {
		return []reports.SalesPoint{}, errBackend
	}
	return []reports.SalesPoint{{Period: "2026-10", Total: decimal.NewFromInt(150)}}, nil
}

func (f *fakeReports) ProfitAndExpenses(ctx context.Context, periods int) ([]reports.ProfitPoint, error) {
	if f.failing {
		return []reports.ProfitPoint{}, errBackend
	}
	return []reports.ProfitPoint{{Period: "2026-10", Revenue: decimal.NewFromInt(150), Expenses: decimal.NewFromInt(6), Profit: decimal.NewFromInt(144)}}, nil
}

type fakeExpenses struct {
	lastFilter expenses.ListFilter
}

func (f *fakeExpenses) List(ctx context.Context, filter expenses.ListFilter) ([]expenses.Expense, error) {
	f.lastFilter = filter
	return []expenses.Expense{}, nil
}

type fakes struct {
	clients  *fakeClients
	products *fakeProducts
	orders   *fakeOrders
	reports  *fakeReports
	expenses *fakeExpenses
}

func newFakes() (*fakes, Services) {
	f := &fakes{
		clients:  &fakeClients{},
		products: &fakeProducts{},
		orders:   &fakeOrders{},
		reports:  &fakeReports{},
		expenses: &fakeExpenses{},
	}
	return f, Services{Clients: f.clients, Products: f.products, Orders: f.orders, Reports: f.reports, Expenses: f.expenses}
}
