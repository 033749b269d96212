package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/internal/testdb"
)

type fakeSearcher struct {
	ids       []uint
	err       error
	indexed   []uint
	removed   []uint
	lastQuery string
}

func (s *fakeSearcher) Search(_ context.Context, q string, _, _ int) (int64, []uint, error) {
	s.lastQuery = q
	return int64(len(s.ids)), s.ids, s.err
}

func (s *fakeSearcher) IndexProduct(_ context.Context, p *models.Product) error {
	s.indexed = append(s.indexed, p.ID)
	return nil
}

func (s *fakeSearcher) RemoveProduct(_ context.Context, id uint) error {
	s.removed = append(s.removed, id)
	return nil
}

func newCatalog(t *testing.T) (*CatalogService, *fakeSearcher, *recordingPublisher) {
	t.Helper()
	searcher := &fakeSearcher{}
	pub := &recordingPublisher{}
	return &CatalogService{Repo: &repo.GormRepo{DB: testdb.Open(t)}, Searcher: searcher, Events: pub}, searcher, pub
}

func TestCatalog_CreateDefaultsUnit(t *testing.T) {
	svc, searcher, pub := newCatalog(t)

	p, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:  " Gypsum board ",
		Price: decimal.RequireFromString("12.345"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gypsum board", p.Name)
	assert.Equal(t, models.DefaultUnit, p.Unit)
	assert.Equal(t, "12.35", p.Price.StringFixed(2))
	assert.Equal(t, models.DefaultProductImage, p.ImageURL())
	assert.Equal(t, []uint{p.ID}, searcher.indexed)
	assert.Equal(t, []string{"product_created"}, pub.types())
}

func TestCatalog_CreateValidation(t *testing.T) {
	svc, _, _ := newCatalog(t)

	_, err := svc.CreateProduct(context.Background(), ProductInput{Name: "", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(context.Background(), ProductInput{Name: "Board", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_UpdateAndDelete(t *testing.T) {
	svc, searcher, pub := newCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Board", Price: decimal.NewFromInt(10), Unit: "pcs"})
	require.NoError(t, err)

	p, err = svc.UpdateProduct(ctx, p.ID, ProductInput{Name: "Board XL", Price: decimal.NewFromInt(15), Unit: "pcs"})
	require.NoError(t, err)
	assert.Equal(t, "Board XL", p.Name)
	assert.Equal(t, "15.00", p.Price.StringFixed(2))

	_, err = svc.UpdateProduct(ctx, 999, ProductInput{Name: "X", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	require.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound)
	_, err = svc.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []uint{p.ID}, searcher.removed)
	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, pub.types())
}

func TestCatalog_ListUsesSearcherOrder(t *testing.T) {
	svc, searcher, _ := newCatalog(t)
	db := svc.Repo.DB

	a := testdb.SeedProduct(t, db, "Gypsum board", "10.00")
	b := testdb.SeedProduct(t, db, "Gypsum plaster", "5.00")
	searcher.ids = []uint{b.ID, a.ID}

	total, items, err := svc.ListProducts(context.Background(), "gypsum", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, "gypsum", searcher.lastQuery)
}

func TestCatalog_ListFallsBackToDatabase(t *testing.T) {
	svc, searcher, _ := newCatalog(t)
	db := svc.Repo.DB

	testdb.SeedProduct(t, db, "Gypsum board", "10.00")
	testdb.SeedProduct(t, db, "Plaster", "5.00")
	searcher.err = errors.New("index unavailable")

	total, items, err := svc.ListProducts(context.Background(), "board", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Gypsum board", items[0].Name)
}

func TestCatalog_ListWithoutQuerySkipsSearcher(t *testing.T) {
	svc, searcher, _ := newCatalog(t)
	testdb.SeedProduct(t, svc.Repo.DB, "Gypsum board", "10.00")

	total, _, err := svc.ListProducts(context.Background(), "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Empty(t, searcher.lastQuery)
}

func TestWarehouseService(t *testing.T) {
	db := testdb.Open(t)
	svc := &WarehouseService{Repo: &repo.GormRepo{DB: db}}
	ctx := context.Background()
	p := testdb.SeedProduct(t, db, "Gypsum board", "10.00")

	_, err := svc.CreateStock(ctx, 999, 1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreateStock(ctx, p.ID, -1)
	require.ErrorIs(t, err, ErrValidation)

	w, err := svc.CreateStock(ctx, p.ID, 40)
	require.NoError(t, err)
	assert.EqualValues(t, 40, w.QuantityInStock)

	w, err = svc.UpdateStock(ctx, w.ID, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 12, w.QuantityInStock)

	_, err = svc.UpdateStock(ctx, 999, 1)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteStock(ctx, w.ID))
	_, err = svc.GetStock(ctx, w.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
