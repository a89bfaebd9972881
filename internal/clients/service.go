package clients

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sg-pedidos/pedidos/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Client, error)
	Get(ctx context.Context, id uuid.UUID) (Client, error)
	Create(ctx context.Context, in Input) (Client, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service is the client registry.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the registry.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all clients ordered by creation time descending.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

// Get retrieves a client by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Client{}, fmt.Errorf("get client %s: %w", id, err)
	}
	return c, nil
}

// Create validates and persists a new client.
func (s *Service) Create(ctx context.Context, in Input) (Client, error) {
	in = in.normalized()
	if err := shared.ValidateStruct(in); err != nil {
		return Client{}, err
	}
	c, err := s.repo.Create(ctx, in)
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// Update replaces all mutable fields of the client.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Client, error) {
	in = in.normalized()
	if err := shared.ValidateStruct(in); err != nil {
		return Client{}, err
	}
	c, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Client{}, fmt.Errorf("update client %s: %w", id, err)
	}
	return c, nil
}

// Delete removes the client. Orders survive with their client reference cleared.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	return nil
}
