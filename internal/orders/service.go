package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sg-pedidos/pedidos/internal/expenses"
	"github.com/sg-pedidos/pedidos/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	CreateWithStock(ctx context.Context, params CreateParams) (uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	InsertPayment(ctx context.Context, orderID uuid.UUID, in PaymentInput) (Payment, error)
}

// Invalidator drops cached report results after a mutation.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service implements order business logic.
type Service struct {
	repo   RepositoryPort
	ledger expenses.Recorder
	cache  Invalidator
	logger *slog.Logger
}

// NewService constructs an order service. cache may be nil.
func NewService(repo RepositoryPort, ledger expenses.Recorder, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledger, cache: cache, logger: logger}
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// Get returns one order with items, payments and product material costs.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// Create places an order through the atomic create_order_with_stock procedure.
// There is no multi-step fallback: a procedure failure is returned as is and
// nothing else is written. Consumption expenses follow on the outbox.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	in.Notes = trimmed(in.Notes)
	delivery, err := in.validate()
	if err != nil {
		return Order{}, err
	}
	var deliveryDate *string
	if delivery != nil {
		d := delivery.Format(DateLayout)
		deliveryDate = &d
	}
	id, err := s.repo.CreateWithStock(ctx, CreateParams{
		ClientID:     in.ClientID,
		Notes:        in.Notes,
		DeliveryDate: deliveryDate,
		Items:        in.Items,
		Advance:      in.Advance,
	})
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", shared.Persistence("create_order_with_stock", err))
	}
	s.invalidate(ctx)

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		// The order exists; only the follow-up read failed.
		s.logger.Warn("order re-read after create failed, consumption expenses skipped",
			slog.String("order_id", id.String()), slog.Any("error", err))
		now := time.Now().UTC()
		return Order{
			ID:           id,
			Status:       StatusPending,
			Notes:        in.Notes,
			Total:        ComputeTotal(in.Items),
			DeliveryDate: delivery,
			ClientID:     in.ClientID,
			CreatedAt:    now,
			UpdatedAt:    now,
			Items:        []LineItem{},
			Payments:     []Payment{},
		}, nil
	}
	s.recordConsumption(ctx, order)
	return order, nil
}

func (s *Service) recordConsumption(ctx context.Context, order Order) {
	for _, it := range order.Items {
		if it.ProductID == nil || it.MaterialCost == nil {
			continue
		}
		entry, ok := expenses.OrderConsumption(order.ID, it.ID, *it.ProductID, order.Folio, *it.MaterialCost, it.Quantity)
		if !ok {
			continue
		}
		s.ledger.Record(ctx, entry)
	}
}

// UpdateStatus writes status regardless of the current one.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return shared.Validationf("unknown status %q", status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// ReplaceItems rewrites notes, the full item set and the total in one
// transaction. Stock and expenses are left untouched.
func (s *Service) ReplaceItems(ctx context.Context, id uuid.UUID, in ReplaceItemsInput) (Order, error) {
	in.Notes = trimmed(in.Notes)
	if err := in.validate(); err != nil {
		return Order{}, err
	}
	total := ComputeTotal(in.Items)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateNotesAndTotal(ctx, id, in.Notes, total); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		return tx.InsertItems(ctx, id, in.Items)
	})
	if err != nil {
		return Order{}, fmt.Errorf("replace order %s items: %w", id, err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes the order with its items and payments. Expenses stay.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		if err := tx.DeletePayments(ctx, id); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// RecordPayment adds a payment to an existing order.
func (s *Service) RecordPayment(ctx context.Context, orderID uuid.UUID, in PaymentInput) (Payment, error) {
	in.Method = trimmed(in.Method)
	in.Reference = trimmed(in.Reference)
	if err := in.validate(); err != nil {
		return Payment{}, err
	}
	p, err := s.repo.InsertPayment(ctx, orderID, in)
	if err != nil {
		return Payment{}, fmt.Errorf("record payment for order %s: %w", orderID, err)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
