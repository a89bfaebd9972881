package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort is the set of aggregation procedures the facade needs.
type RepositoryPort interface {
	SalesByWeek(ctx context.Context, weeks int) ([]SalesPoint, error)
	SalesByMonth(ctx context.Context, months int) ([]SalesPoint, error)
	ProfitAndExpenses(ctx context.Context, periods int) ([]ProfitPoint, error)
}

// Service is a read-only pass-through to the aggregation procedures. Every
// method returns a non-nil slice; on failure it is empty and err is set.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService wires a repository with a cache helper. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Invalidate bumps the cache version.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// SalesByWeek returns weekly sales for the last weeks weeks.
func (s *Service) SalesByWeek(ctx context.Context, weeks int) ([]SalesPoint, error) {
	weeks = orDefault(weeks, DefaultWeeks)
	out := []SalesPoint{}
	err := s.load(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.SalesByWeek(ctx, weeks)
	}, "sales_week", strconv.Itoa(weeks))
	if err != nil {
		return []SalesPoint{}, fmt.Errorf("sales by week: %w", err)
	}
	return nonNil(out), nil
}

// SalesByMonth returns monthly sales for the last months months.
func (s *Service) SalesByMonth(ctx context.Context, months int) ([]SalesPoint, error) {
	months = orDefault(months, DefaultMonths)
	out := []SalesPoint{}
	err := s.load(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.SalesByMonth(ctx, months)
	}, "sales_month", strconv.Itoa(months))
	if err != nil {
		return []SalesPoint{}, fmt.Errorf("sales by month: %w", err)
	}
	return nonNil(out), nil
}

// ProfitAndExpenses returns revenue, expenses and profit per period.
func (s *Service) ProfitAndExpenses(ctx context.Context, periods int) ([]ProfitPoint, error) {
	periods = orDefault(periods, DefaultPeriods)
	out := []ProfitPoint{}
	err := s.load(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.ProfitAndExpenses(ctx, periods)
	}, "profit", strconv.Itoa(periods))
	if err != nil {
		return []ProfitPoint{}, fmt.Errorf("profit and expenses: %w", err)
	}
	if out == nil {
		out = []ProfitPoint{}
	}
	return out, nil
}

// load resolves a versioned key and fills dest through the cache. Concurrent
// misses for the same key share one procedure call. When the version cannot
// be read the loader is called directly.
func (s *Service) load(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.Any("error", err))
		return (*Cache)(nil).FetchJSON(ctx, "", dest, loader)
	}
	raw, err, _ := s.group.Do(key, func() (any, error) {
		return s.cache.FetchRaw(ctx, key, loader)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

func nonNil(in []SalesPoint) []SalesPoint {
	if in == nil {
		return []SalesPoint{}
	}
	return in
}
