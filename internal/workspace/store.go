// Package workspace holds per-session state over the domain services and
// exposes it over HTTP.
package workspace

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sg-pedidos/pedidos/internal/clients"
	"github.com/sg-pedidos/pedidos/internal/expenses"
	"github.com/sg-pedidos/pedidos/internal/orders"
	"github.com/sg-pedidos/pedidos/internal/products"
	"github.com/sg-pedidos/pedidos/internal/reports"
)

// ClientService is the client registry as seen by a session.
type ClientService interface {
	List(ctx context.Context) ([]clients.Client, error)
	Get(ctx context.Context, id uuid.UUID) (clients.Client, error)
	Create(ctx context.Context, in clients.Input) (clients.Client, error)
	Update(ctx context.Context, id uuid.UUID, in clients.Input) (clients.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductService is the catalog as seen by a session.
type ProductService interface {
	List(ctx context.Context) ([]products.Product, error)
	Get(ctx context.Context, id uuid.UUID) (products.Product, error)
	Create(ctx context.Context, in products.Input) (products.Product, error)
	Update(ctx context.Context, id uuid.UUID, in products.Input) (products.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderService is the order service as seen by a session.
type OrderService interface {
	List(ctx context.Context) ([]orders.Order, error)
	Get(ctx context.Context, id uuid.UUID) (orders.Order, error)
	Create(ctx context.Context, in orders.CreateInput) (orders.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status orders.Status) error
	ReplaceItems(ctx context.Context, id uuid.UUID, in orders.ReplaceItemsInput) (orders.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordPayment(ctx context.Context, orderID uuid.UUID, in orders.PaymentInput) (orders.Payment, error)
}

// ReportService is the reporting facade.
type ReportService interface {
	SalesByWeek(ctx context.Context, weeks int) ([]reports.SalesPoint, error)
	SalesByMonth(ctx context.Context, months int) ([]reports.SalesPoint, error)
	ProfitAndExpenses(ctx context.Context, periods int) ([]reports.ProfitPoint, error)
}

// ExpenseService lists ledger entries.
type ExpenseService interface {
	List(ctx context.Context, filter expenses.ListFilter) ([]expenses.Expense, error)
}

// Services bundles the domain services shared by every session.
type Services struct {
	Clients  ClientService
	Products ProductService
	Orders   OrderService
	Reports  ReportService
	Expenses ExpenseService
}

// State is a point-in-time copy of a session store.
type State struct {
	Clients   []clients.Client   `json:"clients"`
	Products  []products.Product `json:"products"`
	Orders    []orders.Order     `json:"orders"`
	Loading   bool               `json:"loading"`
	LastError string             `json:"last_error,omitempty"`
}

// Store is the state of one session: cached lists, an in-flight counter and
// the last primary failure. Service calls run outside the lock.
type Store struct {
	svc    Services
	logger *slog.Logger

	mu        sync.Mutex
	clients   []clients.Client
	products  []products.Product
	orders    []orders.Order
	inflight  int
	lastError string
	lastUsed  time.Time
}

// NewStore creates an empty store.
func NewStore(svc Services) *Store {
	return &Store{
		svc:      svc,
		logger:   slog.Default(),
		clients:  []clients.Client{},
		products: []products.Product{},
		orders:   []orders.Order{},
		lastUsed: time.Now(),
	}
}

// Snapshot copies the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Clients:   append([]clients.Client{}, s.clients...),
		Products:  append([]products.Product{}, s.products...),
		Orders:    append([]orders.Order{}, s.orders...),
		Loading:   s.inflight > 0,
		LastError: s.lastError,
	}
}

// LastError returns the message of the last failed primary operation.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearError empties the last-error slot.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

func (s *Store) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// begin marks an operation in flight and clears the error slot. The returned
// func records err, if any, and ends the operation.
func (s *Store) begin() func(err error) {
	s.mu.Lock()
	s.inflight++
	s.lastError = ""
	s.mu.Unlock()
	return func(err error) {
		s.mu.Lock()
		s.inflight--
		if err != nil {
			s.lastError = err.Error()
		}
		s.mu.Unlock()
	}
}

// FetchClients reloads the client list.
func (s *Store) FetchClients(ctx context.Context) (list []clients.Client, err error) {
	done := s.begin()
	defer func() { done(err) }()
	list, err = s.svc.Clients.List(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.clients = list
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// GetClient loads one client without touching the list.
func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (c clients.Client, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.svc.Clients.Get(ctx, id)
}

// CreateClient creates a client and prepends it to the list.
func (s *Store) CreateClient(ctx context.Context, in clients.Input) (c clients.Client, err error) {
	done := s.begin()
	defer func() { done(err) }()
	c, err = s.svc.Clients.Create(ctx, in)
	if err != nil {
		return clients.Client{}, err
	}
	s.mu.Lock()
	s.clients = append([]clients.Client{c}, s.clients...)
	s.mu.Unlock()
	return c, nil
}

// UpdateClient updates a client and replaces it in place.
func (s *Store) UpdateClient(ctx context.Context, id uuid.UUID, in clients.Input) (c clients.Client, err error) {
	done := s.begin()
	defer func() { done(err) }()
	c, err = s.svc.Clients.Update(ctx, id, in)
	if err != nil {
		return clients.Client{}, err
	}
	s.mu.Lock()
	s.clients = replaceByID(s.clients, c, func(c clients.Client) uuid.UUID { return c.ID })
	s.mu.Unlock()
	return c, nil
}

// DeleteClient deletes a client and drops it from the list.
func (s *Store) DeleteClient(ctx context.Context, id uuid.UUID) (err error) {
	done := s.begin()
	defer func() { done(err) }()
	if err = s.svc.Clients.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.clients = removeByID(s.clients, id, func(c clients.Client) uuid.UUID { return c.ID })
	s.mu.Unlock()
	return nil
}

// FetchProducts reloads the product list.
func (s *Store) FetchProducts(ctx context.Context) (list []products.Product, err error) {
	done := s.begin()
	defer func() { done(err) }()
	list, err = s.svc.Products.List(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.products = list
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// GetProduct loads one product without touching the list.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (p products.Product, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.svc.Products.Get(ctx, id)
}

// CreateProduct creates a product and appends it to the list.
func (s *Store) CreateProduct(ctx context.Context, in products.Input) (p products.Product, err error) {
	done := s.begin()
	defer func() { done(err) }()
	p, err = s.svc.Products.Create(ctx, in)
	if err != nil {
		return products.Product{}, err
	}
	s.mu.Lock()
	s.products = append(slices.Clip(s.products), p)
	s.mu.Unlock()
	return p, nil
}

// UpdateProduct updates a product and replaces it in place.
func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, in products.Input) (p products.Product, err error) {
	done := s.begin()
	defer func() { done(err) }()
	p, err = s.svc.Products.Update(ctx, id, in)
	if err != nil {
		return products.Product{}, err
	}
	s.mu.Lock()
	s.products = replaceByID(s.products, p, func(p products.Product) uuid.UUID { return p.ID })
	s.mu.Unlock()
	return p, nil
}

// DeleteProduct deletes a product and drops it from the list.
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) (err error) {
	done := s.begin()
	defer func() { done(err) }()
	if err = s.svc.Products.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.products = removeByID(s.products, id, func(p products.Product) uuid.UUID { return p.ID })
	s.mu.Unlock()
	return nil
}

// FetchOrders reloads the order list.
func (s *Store) FetchOrders(ctx context.Context) (list []orders.Order, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.refreshOrders(ctx)
}

func (s *Store) refreshOrders(ctx context.Context) ([]orders.Order, error) {
	list, err := s.svc.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.orders = list
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// refreshAfterWrite reloads the order list once a write has committed. A
// reload failure lands in the last-error slot; the write still succeeds.
func (s *Store) refreshAfterWrite(ctx context.Context, op string) {
	if _, err := s.refreshOrders(ctx); err != nil {
		s.logger.Warn("workspace order refresh failed", slog.String("op", op), slog.Any("error", err))
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
	}
}

// GetOrder loads one order with full expansion.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (o orders.Order, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.svc.Orders.Get(ctx, id)
}

// CreateOrder places an order and refetches the list. Creating an order
// changes stock, so the product list is refetched too when it was loaded.
func (s *Store) CreateOrder(ctx context.Context, in orders.CreateInput) (o orders.Order, err error) {
	done := s.begin()
	defer func() { done(err) }()
	o, err = s.svc.Orders.Create(ctx, in)
	if err != nil {
		return orders.Order{}, err
	}
	s.refreshAfterWrite(ctx, "create order")
	s.mu.Lock()
	loaded := len(s.products) > 0
	s.mu.Unlock()
	if loaded {
		list, perr := s.svc.Products.List(ctx)
		if perr != nil {
			s.logger.Warn("workspace product refresh failed", slog.Any("error", perr))
		} else {
			s.mu.Lock()
			s.products = list
			s.mu.Unlock()
		}
	}
	return o, nil
}

// UpdateOrderStatus writes a status and refetches the list.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status orders.Status) (err error) {
	done := s.begin()
	defer func() { done(err) }()
	if err = s.svc.Orders.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.refreshAfterWrite(ctx, "update order status")
	return nil
}

// ReplaceOrderItems rewrites an order's items and refetches the list.
func (s *Store) ReplaceOrderItems(ctx context.Context, id uuid.UUID, in orders.ReplaceItemsInput) (o orders.Order, err error) {
	done := s.begin()
	defer func() { done(err) }()
	o, err = s.svc.Orders.ReplaceItems(ctx, id, in)
	if err != nil {
		return orders.Order{}, err
	}
	s.refreshAfterWrite(ctx, "replace order items")
	return o, nil
}

// DeleteOrder deletes an order and refetches the list.
func (s *Store) DeleteOrder(ctx context.Context, id uuid.UUID) (err error) {
	done := s.begin()
	defer func() { done(err) }()
	if err = s.svc.Orders.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAfterWrite(ctx, "delete order")
	return nil
}

// RecordPayment adds a payment and refetches the list.
func (s *Store) RecordPayment(ctx context.Context, orderID uuid.UUID, in orders.PaymentInput) (p orders.Payment, err error) {
	done := s.begin()
	defer func() { done(err) }()
	p, err = s.svc.Orders.RecordPayment(ctx, orderID, in)
	if err != nil {
		return orders.Payment{}, err
	}
	s.refreshAfterWrite(ctx, "record payment")
	return p, nil
}

// ListExpenses queries the ledger.
func (s *Store) ListExpenses(ctx context.Context, filter expenses.ListFilter) (list []expenses.Expense, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.svc.Expenses.List(ctx, filter)
}

// SalesByWeek returns the weekly report. On failure the slice is empty and
// the error is also kept in the last-error slot.
func (s *Store) SalesByWeek(ctx context.Context, weeks int) (out []reports.SalesPoint, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.svc.Reports.SalesByWeek(ctx, weeks)
}

// SalesByMonth returns the monthly report.
func (s *Store) SalesByMonth(ctx context.Context, months int) (out []reports.SalesPoint, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.svc.Reports.SalesByMonth(ctx, months)
}

// ProfitAndExpenses returns the profit report.
func (s *Store) ProfitAndExpenses(ctx context.Context, periods int) (out []reports.ProfitPoint, err error) {
	done := s.begin()
	defer func() { done(err) }()
	return s.svc.Reports.ProfitAndExpenses(ctx, periods)
}

// removeByID and replaceByID return new slices; lists handed out earlier
// are never written to.
func removeByID[T any](list []T, id uuid.UUID, key func(T) uuid.UUID) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if key(v) != id {
			out = append(out, v)
		}
	}
	return out
}

func replaceByID[T any](list []T, v T, key func(T) uuid.UUID) []T {
	out := slices.Clone(list)
	for i := range out {
		if key(out[i]) == key(v) {
			out[i] = v
		}
	}
	return out
}
