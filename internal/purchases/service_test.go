package purchases

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expertpos/expert-pos/internal/inventory"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	products  map[uuid.UUID]inventory.StockItem
	purchases []Purchase
}

func newMemoryRepo(items ...inventory.StockItem) *memoryRepo {
	r := &memoryRepo{products: map[uuid.UUID]inventory.StockItem{}}
	for _, item := range items {
		r.products[item.ProductID] = item
	}
	return r
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryTx{products: map[uuid.UUID]inventory.StockItem{}}
	for id, p := range r.products {
		tx.products[id] = p
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.products = tx.products
	r.purchases = append(r.purchases, tx.inserted...)
	return nil
}

func (r *memoryRepo) ListPurchases(_ context.Context, page shared.PageRequest) ([]Purchase, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := append([]Purchase(nil), r.purchases...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := min(page.Offset(), len(all))
	end := min(start+page.PerPage, len(all))
	return all[start:end], len(all), nil
}

type memoryTx struct {
	products map[uuid.UUID]inventory.StockItem
	inserted []Purchase
}

func (t *memoryTx) LockProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.StockItem, error) {
	found := map[uuid.UUID]inventory.StockItem{}
	for _, id := range ids {
		if p, ok := t.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (t *memoryTx) AdjustStock(_ context.Context, id uuid.UUID, delta int) (bool, error) {
	p := t.products[id]
	if p.Stock+delta < 0 {
		return false, nil
	}
	p.Stock += delta
	t.products[id] = p
	return true, nil
}

func (t *memoryTx) InsertPurchase(_ context.Context, purchase Purchase) error {
	t.inserted = append(t.inserted, purchase)
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func stockItem(name string, stock int) inventory.StockItem {
	return inventory.StockItem{ProductID: uuid.New(), SKU: "SKU-" + name, Name: name, Price: decimal.RequireFromString("20000"), Stock: stock}
}

func cashier() *rbac.Principal {
	return &rbac.Principal{
		ID:          uuid.New(),
		DisplayName: "Kasir",
		Roles:       []string{rbac.RoleCashier},
		Permissions: rbac.NewPermissionSet(rbac.PermCreateSale, rbac.PermCreatePurchase, rbac.PermViewPurchases),
	}
}

func newTestService(repo *memoryRepo) (*Service, *recordingAudit) {
	audit := &recordingAudit{}
	svc := NewService(repo, audit, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC) }
	return svc, audit
}

func TestCreatePurchaseIncrementsStockAndTotalsCosts(t *testing.T) {
	beans := stockItem("Beans", 0)
	milk := stockItem("Milk", 3)
	repo := newMemoryRepo(beans, milk)
	svc, audit := newTestService(repo)

	purchase, err := svc.CreatePurchase(context.Background(), cashier(), CreatePurchaseInput{
		SupplierName: " PT Sumber Kopi ",
		Items: []PurchaseLineInput{
			{ProductID: beans.ProductID, Quantity: 10, UnitCost: decimal.RequireFromString("45000")},
			{ProductID: milk.ProductID, Quantity: 4, UnitCost: decimal.RequireFromString("0")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "PT Sumber Kopi", purchase.SupplierName)
	assert.Regexp(t, `^PUR-\d+-[0-9A-F]{4}$`, purchase.Reference)
	assert.True(t, purchase.TotalAmount.Equal(decimal.RequireFromString("450000")), purchase.TotalAmount.String())
	require.Len(t, purchase.Items, 2)
	assert.Equal(t, "Beans", purchase.Items[0].ProductName)

	assert.Equal(t, 10, repo.products[beans.ProductID].Stock)
	assert.Equal(t, 7, repo.products[milk.ProductID].Stock)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "purchase.create", audit.logs[0].Action)
}

func TestCreatePurchaseValidation(t *testing.T) {
	beans := stockItem("Beans", 2)
	repo := newMemoryRepo(beans)
	svc, audit := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, cashier(), CreatePurchaseInput{Items: []PurchaseLineInput{
		{ProductID: beans.ProductID, Quantity: 1, UnitCost: decimal.RequireFromString("-1")},
	}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePurchase(ctx, cashier(), CreatePurchaseInput{Items: []PurchaseLineInput{
		{ProductID: beans.ProductID, Quantity: 3, UnitCost: decimal.RequireFromString("1.005")},
	}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePurchase(ctx, cashier(), CreatePurchaseInput{Items: []PurchaseLineInput{
		{ProductID: beans.ProductID, Quantity: 0, UnitCost: decimal.RequireFromString("1")},
	}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePurchase(ctx, cashier(), CreatePurchaseInput{})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePurchase(ctx, cashier(), CreatePurchaseInput{Items: []PurchaseLineInput{
		{ProductID: beans.ProductID, Quantity: 5, UnitCost: decimal.RequireFromString("1")},
		{ProductID: uuid.New(), Quantity: 1, UnitCost: decimal.RequireFromString("1")},
	}})
	require.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, 2, repo.products[beans.ProductID].Stock)
	assert.Empty(t, repo.purchases)
	assert.Empty(t, audit.logs)
}

func TestPurchasePermissions(t *testing.T) {
	beans := stockItem("Beans", 2)
	svc, _ := newTestService(newMemoryRepo(beans))
	viewer := &rbac.Principal{ID: uuid.New(), Roles: []string{rbac.RoleNormalUser}, Permissions: rbac.NewPermissionSet(rbac.PermViewProducts)}

	_, err := svc.CreatePurchase(context.Background(), viewer, CreatePurchaseInput{Items: []PurchaseLineInput{
		{ProductID: beans.ProductID, Quantity: 1, UnitCost: decimal.RequireFromString("1")},
	}})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.ListPurchases(context.Background(), viewer, shared.PageRequest{Page: 1, PerPage: 20})
	require.ErrorIs(t, err, shared.ErrForbidden)

	page, err := svc.ListPurchases(context.Background(), cashier(), shared.PageRequest{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.NotNil(t, page.Purchases)
	assert.Equal(t, 0, page.Pagination.Total)
}
