package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sg-pedidos/pedidos/internal/expenses"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	Create(ctx context.Context, in Input) (Product, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (Product, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service is the product catalog. Stock increases are expensed through the
// outbox; decreases caused by sales are expensed by the order service.
type Service struct {
	repo   RepositoryPort
	ledger expenses.Recorder
}

// NewService constructs the catalog.
func NewService(repo RepositoryPort, ledger expenses.Recorder) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// List returns all products ordered by name ascending.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Get retrieves a product by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Create persists a product and expenses its initial stock.
func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return Product{}, err
	}
	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	if entry, ok := expenses.StockAddition(p.ID, p.Name, p.MaterialCost, p.StockQty(), true); ok {
		s.ledger.Record(ctx, entry)
	}
	return p, nil
}

// Update replaces the product fields. A stock increase is expensed at the
// resulting material cost, which is the input's or, when omitted, the stored
// one; a decrease records nothing.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return Product{}, err
	}
	p, prior, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	delta := p.StockQty() - prior
	if entry, ok := expenses.StockAddition(p.ID, p.Name, p.MaterialCost, delta, false); ok {
		s.ledger.Record(ctx, entry)
	}
	return p, nil
}

// Delete removes the product unconditionally.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}
