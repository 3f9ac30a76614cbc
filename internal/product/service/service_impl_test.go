package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	categorydomain "github.com/smallbiznis/soko/internal/category/domain"
	categoryrepo "github.com/smallbiznis/soko/internal/category/repository"
	"github.com/smallbiznis/soko/internal/clock"
	"github.com/smallbiznis/soko/internal/product/domain"
	"github.com/smallbiznis/soko/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&categorydomain.Category{}, &domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
		Repo:         repository.Provide(),
		CategoryRepo: categoryrepo.Provide(),
	})

	return &fixture{db: db, node: node, svc: svc}
}

func (f *fixture) seedCategory(t *testing.T) snowflake.ID {
	t.Helper()
	cat := categorydomain.Category{
		ID:        f.node.Generate(),
		Name:      "cat-" + f.node.Generate().String(),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&cat).Error)
	return cat.ID
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catID := f.seedCategory(t)

	resp, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Sourdough Loaf",
		Price:      decimal.RequireFromString("6.50"),
		CategoryID: catID.String(),
		Stock:      40,
		Metadata:   map[string]any{"origin": "local"},
	})
	require.NoError(t, err)
	assert.Equal(t, "6.50", resp.Price)
	assert.Equal(t, catID.String(), resp.CategoryID)
	assert.EqualValues(t, 40, resp.Stock)
	assert.Equal(t, "local", resp.Metadata["origin"])
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catID := f.seedCategory(t)

	_, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       " ",
		Price:      decimal.NewFromInt(1),
		CategoryID: catID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Free Bread",
		Price:      decimal.Zero,
		CategoryID: catID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Ghost Stock",
		Price:      decimal.NewFromInt(1),
		CategoryID: catID.String(),
		Stock:      -1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Homeless",
		Price:      decimal.NewFromInt(1),
		CategoryID: f.node.Generate().String(),
	})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestListProductsByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	catA := f.seedCategory(t)
	catB := f.seedCategory(t)

	for _, c := range []snowflake.ID{catA, catA, catB} {
		_, err := f.svc.Create(ctx, domain.CreateRequest{
			Name:       "p-" + f.node.Generate().String(),
			Price:      decimal.NewFromInt(2),
			CategoryID: c.String(),
			Stock:      1,
		})
		require.NoError(t, err)
	}

	inA, err := f.svc.List(ctx, domain.ListRequest{CategoryID: catA.String()})
	require.NoError(t, err)
	assert.Len(t, inA, 2)
	for _, p := range inA {
		assert.Equal(t, catA.String(), p.CategoryID)
	}

	_, err = f.svc.List(ctx, domain.ListRequest{CategoryID: "nonsense"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catID := f.seedCategory(t)

	created, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Cold Brew",
		Price:      decimal.RequireFromString("5.00"),
		CategoryID: catID.String(),
		Stock:      10,
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("5.50")
	newStock := int64(25)
	updated, err := f.svc.Update(ctx, domain.UpdateRequest{
		ID:    created.ID,
		Price: &newPrice,
		Stock: &newStock,
	})
	require.NoError(t, err)
	assert.Equal(t, "5.50", updated.Price)
	assert.EqualValues(t, 25, updated.Stock)
	assert.Equal(t, "Cold Brew", updated.Name)

	bad := decimal.Zero
	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Price: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: f.node.Generate().String(), Stock: &newStock})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catID := f.seedCategory(t)

	created, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Roma Tomatoes",
		Price:      decimal.NewFromInt(4),
		CategoryID: catID.String(),
		Stock:      5,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
