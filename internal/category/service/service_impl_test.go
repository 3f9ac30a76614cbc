package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/soko/internal/category/domain"
	"github.com/smallbiznis/soko/internal/category/repository"
	"github.com/smallbiznis/soko/internal/clock"
	productdomain "github.com/smallbiznis/soko/internal/product/domain"
	productrepo "github.com/smallbiznis/soko/internal/product/repository"
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
	require.NoError(t, db.AutoMigrate(&domain.Category{}, &productdomain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
		Repo:        repository.Provide(),
		ProductRepo: productrepo.Provide(),
	})

	return &fixture{db: db, node: node, svc: svc}
}

func (f *fixture) create(t *testing.T, name string, parentID *string) *domain.Response {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), domain.CreateRequest{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return resp
}

func (f *fixture) seedProduct(t *testing.T, categoryID string, price string) {
	t.Helper()
	catID, err := snowflake.ParseString(categoryID)
	require.NoError(t, err)
	p := productdomain.Product{
		ID:         f.node.Generate(),
		Name:       "p-" + f.node.Generate().String(),
		Price:      decimal.RequireFromString(price),
		CategoryID: catID,
		Stock:      10,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&p).Error)
}

func TestCreateCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.create(t, "Electronics-"+f.node.Generate().String(), nil)
	assert.Nil(t, root.ParentID)

	child := f.create(t, "Phones-"+f.node.Generate().String(), &root.ID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)

	_, err := f.svc.Create(ctx, domain.CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	missing := f.node.Generate().String()
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Groceries-" + f.node.Generate().String()
	f.create(t, name, nil)

	_, err := f.svc.Create(ctx, domain.CreateRequest{Name: name})
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	// Uniqueness is case sensitive; a different casing is a new category.
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "GROCERIES-" + f.node.Generate().String()})
	assert.NoError(t, err)
}

func TestListCategoriesAsTree(t *testing.T) {
	f := newFixture(t)

	suffix := f.node.Generate().String()
	root := f.create(t, "Root-"+suffix, nil)
	mid := f.create(t, "Mid-"+suffix, &root.ID)
	leaf := f.create(t, "Leaf-"+suffix, &mid.ID)

	tree, err := f.svc.List(context.Background())
	require.NoError(t, err)

	var found *domain.TreeNode
	for i := range tree {
		if tree[i].ID == root.ID {
			found = &tree[i]
			break
		}
	}
	require.NotNil(t, found, "root category missing from tree")
	require.Len(t, found.Children, 1)
	assert.Equal(t, mid.ID, found.Children[0].ID)
	require.Len(t, found.Children[0].Children, 1)
	assert.Equal(t, leaf.ID, found.Children[0].Children[0].ID)
}

func TestDescendantIDs(t *testing.T) {
	f := newFixture(t)

	suffix := f.node.Generate().String()
	a := f.create(t, "A-"+suffix, nil)
	b := f.create(t, "B-"+suffix, &a.ID)
	c := f.create(t, "C-"+suffix, &b.ID)
	f.create(t, "Sibling-"+suffix, nil)

	aID, err := snowflake.ParseString(a.ID)
	require.NoError(t, err)

	ids, err := f.svc.DescendantIDs(context.Background(), aID)
	require.NoError(t, err)

	got := make([]string, 0, len(ids))
	for _, id := range ids {
		got = append(got, id.String())
	}
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, got)
}

func TestAveragePriceIncludesDescendants(t *testing.T) {
	f := newFixture(t)

	suffix := f.node.Generate().String()
	parent := f.create(t, "Produce-"+suffix, nil)
	child := f.create(t, "Fruit-"+suffix, &parent.ID)

	f.seedProduct(t, parent.ID, "10.00")
	f.seedProduct(t, child.ID, "20.00")

	resp, err := f.svc.AveragePrice(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Produce-"+suffix, resp.Category)
	assert.InDelta(t, 15.0, resp.AveragePrice, 0.001)
}

func TestAveragePriceNoProducts(t *testing.T) {
	f := newFixture(t)

	empty := f.create(t, "Empty-"+f.node.Generate().String(), nil)

	resp, err := f.svc.AveragePrice(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.Zero(t, resp.AveragePrice)

	_, err = f.svc.AveragePrice(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCategoryCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suffix := f.node.Generate().String()
	parent := f.create(t, "Pantry-"+suffix, nil)
	child := f.create(t, "Spices-"+suffix, &parent.ID)

	f.seedProduct(t, parent.ID, "5.00")
	f.seedProduct(t, child.ID, "7.00")

	require.NoError(t, f.svc.Delete(ctx, parent.ID))

	_, err := f.svc.Get(ctx, parent.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Get(ctx, child.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	childID, err := snowflake.ParseString(child.ID)
	require.NoError(t, err)
	var count int64
	require.NoError(t, f.db.Model(&productdomain.Product{}).Where("category_id = ?", childID).Count(&count).Error)
	assert.Zero(t, count)
}
