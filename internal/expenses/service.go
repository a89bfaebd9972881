package expenses

import (
	"context"
	"fmt"
)

// Lister reads the ledger.
type Lister interface {
	List(ctx context.Context, filter ListFilter) ([]Expense, error)
}

// Service exposes read access to the ledger. Writes happen only through a Recorder.
type Service struct {
	repo Lister
}

// NewService constructs the ledger service.
func NewService(repo Lister) *Service {
	return &Service{repo: repo}
}

// List returns expenses newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Expense, error) {
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}
