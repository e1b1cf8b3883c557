package products

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

type memoryRepo struct {
	items      map[uuid.UUID]Product
	referenced map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[uuid.UUID]Product{}, referenced: map[uuid.UUID]bool{}}
}

func (r *memoryRepo) List(_ context.Context, filters ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.items {
		if filters.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (Product, error) {
	p, ok := r.items[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) skuTaken(sku string, except uuid.UUID) bool {
	for id, p := range r.items {
		if p.SKU == sku && id != except {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(_ context.Context, p Product) error {
	if r.skuTaken(p.SKU, uuid.Nil) {
		return ErrDuplicateSKU
	}
	r.items[p.ID] = p
	return nil
}

func (r *memoryRepo) Update(_ context.Context, p Product) error {
	if _, ok := r.items[p.ID]; !ok {
		return ErrNotFound
	}
	if r.skuTaken(p.SKU, p.ID) {
		return ErrDuplicateSKU
	}
	r.items[p.ID] = p
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.referenced[id] {
		return ErrInUse
	}
	delete(r.items, id)
	return nil
}

func manager() *rbac.Principal {
	return &rbac.Principal{ID: uuid.New(), Roles: []string{rbac.RoleAdmin}, Permissions: rbac.NewPermissionSet(rbac.PermManageProducts)}
}

func viewer() *rbac.Principal {
	return &rbac.Principal{ID: uuid.New(), Roles: []string{rbac.RoleCashier}, Permissions: rbac.NewPermissionSet(rbac.PermViewProducts)}
}

func kopiForm() ProductForm {
	return ProductForm{SKU: " kopi-01 ", Name: "  Kopi Susu ", Price: decimal.RequireFromString("18000"), Stock: 10}
}

func TestCreateNormalisesAndRejectsDuplicateSKU(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	product, err := svc.Create(context.Background(), manager(), kopiForm())
	require.NoError(t, err)
	assert.Equal(t, "KOPI-01", product.SKU)
	assert.Equal(t, "Kopi Susu", product.Name)
	assert.Equal(t, 10, product.Stock)

	_, err = svc.Create(context.Background(), manager(), ProductForm{SKU: "KOPI-01", Name: "Kopi Hitam", Price: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	cases := map[string]ProductForm{
		"short sku":      {SKU: "K", Name: "Kopi", Price: decimal.Zero},
		"short name":     {SKU: "KP", Name: "Ko", Price: decimal.Zero},
		"negative price": {SKU: "KP", Name: "Kopi", Price: decimal.RequireFromString("-0.01")},
		"sub-cent price": {SKU: "KP", Name: "Kopi", Price: decimal.RequireFromString("1.005")},
		"negative stock": {SKU: "KP", Name: "Kopi", Price: decimal.Zero, Stock: -1},
		"long note":      {SKU: "KP", Name: "Kopi", Price: decimal.Zero, Description: strings.Repeat("x", 501)},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), manager(), form)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCatalogueAccessControl(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	product, err := svc.Create(context.Background(), manager(), kopiForm())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), viewer(), kopiForm())
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.ErrorIs(t, svc.Delete(context.Background(), viewer(), product.ID), shared.ErrForbidden)

	page, err := svc.List(context.Background(), viewer(), ListFilters{PageRequest: shared.PageRequest{Page: 1, PerPage: 20}})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	got, err := svc.Get(context.Background(), viewer(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)

	_, err = svc.List(context.Background(), &rbac.Principal{ID: uuid.New()}, ListFilters{})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	kopi, err := svc.Create(context.Background(), manager(), kopiForm())
	require.NoError(t, err)
	teh, err := svc.Create(context.Background(), manager(), ProductForm{SKU: "TEH-01", Name: "Teh Manis", Price: decimal.RequireFromString("8000")})
	require.NoError(t, err)

	form := kopiForm()
	form.Price = decimal.RequireFromString("20000")
	updated, err := svc.Update(context.Background(), manager(), kopi.ID, form)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("20000")))

	form.SKU = "teh-01"
	_, err = svc.Update(context.Background(), manager(), kopi.ID, form)
	require.ErrorIs(t, err, ErrDuplicateSKU)

	_, err = svc.Update(context.Background(), manager(), uuid.New(), kopiForm())
	require.ErrorIs(t, err, shared.ErrNotFound)

	repo.referenced[teh.ID] = true
	require.ErrorIs(t, svc.Delete(context.Background(), manager(), teh.ID), shared.ErrConflict)
	require.NoError(t, svc.Delete(context.Background(), manager(), kopi.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), manager(), kopi.ID), shared.ErrNotFound)
}
