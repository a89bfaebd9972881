package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	weekly     []SalesPoint
	monthly    []SalesPoint
	profit     []ProfitPoint
	err        error
	weekCalls  int
	monthCalls int
	lastWeeks  int
	lastMonths int
	lastPeriod int
}

func (m *mockRepo) SalesByWeek(ctx context.Context, weeks int) ([]SalesPoint, error) {
	m.weekCalls++
	m.lastWeeks = weeks
	return m.weekly, m.err
}

func (m *mockRepo) SalesByMonth(ctx context.Context, months int) ([]SalesPoint, error) {
	m.monthCalls++
	m.lastMonths = months
	return m.monthly, m.err
}

func (m *mockRepo) ProfitAndExpenses(ctx context.Context, periods int) ([]ProfitPoint, error) {
	m.lastPeriod = periods
	return m.profit, m.err
}

func newTestService(t *testing.T, repo RepositoryPort) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute), nil), mr
}

func TestSalesByWeekCachesUntilBump(t *testing.T) {
	repo := &mockRepo{weekly: []SalesPoint{{Period: "2026-W41", Total: decimal.RequireFromString("150")}}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.SalesByWeek(ctx, 4)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "2026-W41", first[0].Period)
	assert.True(t, decimal.RequireFromString("150").Equal(first[0].Total))

	_, err = svc.SalesByWeek(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.weekCalls)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.SalesByWeek(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.weekCalls)
}

func TestDefaultsApplied(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.SalesByWeek(ctx, 0)
	require.NoError(t, err)
	_, err = svc.SalesByMonth(ctx, -3)
	require.NoError(t, err)
	_, err = svc.ProfitAndExpenses(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultWeeks, repo.lastWeeks)
	assert.Equal(t, DefaultMonths, repo.lastMonths)
	assert.Equal(t, DefaultPeriods, repo.lastPeriod)
}

func TestEmptyResultIsNonNil(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	out, err := svc.SalesByMonth(context.Background(), 6)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestProcedureFailureYieldsEmptySequence(t *testing.T) {
	repo := &mockRepo{err: errors.New("function report_profit_and_expenses does not exist")}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	profit, err := svc.ProfitAndExpenses(ctx, 6)
	require.Error(t, err)
	assert.NotNil(t, profit)
	assert.Empty(t, profit)

	weekly, err := svc.SalesByWeek(ctx, 6)
	require.Error(t, err)
	assert.NotNil(t, weekly)

	// Errors must not be cached.
	repo.err = nil
	repo.weekly = []SalesPoint{{Period: "2026-W40", Total: decimal.NewFromInt(10)}}
	weekly, err = svc.SalesByWeek(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, weekly, 1)
	assert.Equal(t, 2, repo.weekCalls)
	assert.NotEmpty(t, mr.Keys())
}

func TestRedisOutageFallsBackToRepository(t *testing.T) {
	repo := &mockRepo{monthly: []SalesPoint{{Period: "2026-10", Total: decimal.NewFromInt(42)}}}
	svc, mr := newTestService(t, repo)
	mr.Close()

	out, err := svc.SalesByMonth(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, repo.monthCalls)
}

func TestServiceWithoutCache(t *testing.T) {
	repo := &mockRepo{profit: []ProfitPoint{{
		Period:   "2026-10",
		Revenue:  decimal.NewFromInt(150),
		Expenses: decimal.NewFromInt(6),
		Profit:   decimal.NewFromInt(144),
	}}}
	svc := NewService(repo, nil, nil)
	out, err := svc.ProfitAndExpenses(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, decimal.NewFromInt(144).Equal(out[0].Profit))
	require.NoError(t, svc.Invalidate(context.Background()))
}

func TestCacheVersionInitialisesAndBumps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := NewCache(client, time.Minute)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "sales_week", "8")
	require.NoError(t, err)
	assert.Equal(t, "reports:sales_week:8:1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.BuildKey(ctx, "sales_week", "8")
	require.NoError(t, err)
	assert.Equal(t, "reports:sales_week:8:2", key)
}
