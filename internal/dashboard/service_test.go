package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expertpos/expert-pos/internal/auth"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/sales"
	"github.com/expertpos/expert-pos/internal/shared"
)

type fakeStore struct {
	fail error
}

func (f fakeStore) SalesTotals(context.Context) (Totals, error) {
	return Totals{Count: 3, Amount: decimal.RequireFromString("54000")}, nil
}

func (f fakeStore) PurchaseTotals(context.Context) (Totals, error) {
	if f.fail != nil {
		return Totals{}, f.fail
	}
	return Totals{Count: 1, Amount: decimal.RequireFromString("450000")}, nil
}

func (f fakeStore) ProductCount(context.Context) (int, error) { return 12, nil }

type fakeFeeds struct {
	salesCalls int
}

func (f *fakeFeeds) RecentSales(context.Context, int) ([]sales.Sale, error) {
	f.salesCalls++
	return []sales.Sale{{ID: uuid.New(), Reference: "SAL-1-ABCD"}}, nil
}

func (f *fakeFeeds) RecentSessions(context.Context, int) ([]auth.SessionSummary, error) {
	return nil, nil
}

func TestOverviewCombinesQueries(t *testing.T) {
	feeds := &fakeFeeds{}
	svc := NewService(fakeStore{}, feeds, feeds)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) }

	viewer := &rbac.Principal{ID: uuid.New(), Permissions: rbac.NewPermissionSet(rbac.PermViewSales)}
	out, err := svc.Overview(context.Background(), viewer)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Sales.Count)
	assert.True(t, out.Purchases.Amount.Equal(decimal.RequireFromString("450000")))
	assert.Equal(t, 12, out.ProductCount)
	require.Len(t, out.RecentSales, 1)
	assert.Equal(t, "SAL-1-ABCD", out.RecentSales[0].Reference)
	assert.NotNil(t, out.RecentSessions)
	assert.Equal(t, svc.now(), out.GeneratedAt)
}

func TestOverviewHidesRecentSalesWithoutViewSales(t *testing.T) {
	feeds := &fakeFeeds{}
	svc := NewService(fakeStore{}, feeds, feeds)

	out, err := svc.Overview(context.Background(), &rbac.Principal{ID: uuid.New(), Permissions: rbac.NewPermissionSet(rbac.PermCreatePurchase)})
	require.NoError(t, err)
	assert.NotNil(t, out.RecentSales)
	assert.Empty(t, out.RecentSales)
	assert.Zero(t, feeds.salesCalls)
	assert.Equal(t, 12, out.ProductCount)

	super := &rbac.Principal{ID: uuid.New(), Roles: []string{rbac.RoleSuperUser}}
	out, err = svc.Overview(context.Background(), super)
	require.NoError(t, err)
	assert.Len(t, out.RecentSales, 1)
}

func TestOverviewFailsWhenAnyQueryFails(t *testing.T) {
	feeds := &fakeFeeds{}
	boom := errors.New("connection refused")
	_, err := NewService(fakeStore{fail: boom}, feeds, feeds).Overview(context.Background(), &rbac.Principal{ID: uuid.New()})
	require.ErrorIs(t, err, boom)

	_, err = NewService(fakeStore{}, feeds, feeds).Overview(context.Background(), nil)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}
