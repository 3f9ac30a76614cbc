package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	categorydomain "github.com/smallbiznis/soko/internal/category/domain"
	productdomain "github.com/smallbiznis/soko/internal/product/domain"
	"gorm.io/gorm"
)

type demoProduct struct {
	name        string
	description string
	price       string
	stock       int64
}

var demoCatalog = map[string][]demoProduct{
	"Bakery": {
		{"Sourdough Loaf", "Naturally leavened, baked daily", "6.50", 40},
		{"Butter Croissant", "Classic laminated pastry", "3.20", 60},
	},
	"Produce": {
		{"Hass Avocado", "Ready to eat", "1.80", 120},
		{"Roma Tomatoes 1kg", "Vine ripened", "4.00", 80},
	},
	"Beverages": {
		{"Cold Brew Coffee 500ml", "Single origin, unsweetened", "5.00", 100},
	},
}

// EnsureDemoCatalog seeds a small category tree with products so a fresh
// install has something to browse. Existing categories are left alone,
// so it is safe to run on every startup.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		root, created, err := ensureCategory(ctx, tx, node, "Groceries", nil)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}

		for name, products := range demoCatalog {
			cat, _, err := ensureCategory(ctx, tx, node, name, &root.ID)
			if err != nil {
				return err
			}
			for _, p := range products {
				price, err := decimal.NewFromString(p.price)
				if err != nil {
					return err
				}
				now := time.Now().UTC()
				product := productdomain.Product{
					ID:          node.Generate(),
					Name:        p.name,
					Description: p.description,
					Price:       price,
					CategoryID:  cat.ID,
					Stock:       p.stock,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func ensureCategory(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string, parentID *snowflake.ID) (*categorydomain.Category, bool, error) {
	var existing categorydomain.Category
	err := tx.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	cat := categorydomain.Category{
		ID:        node.Generate(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&cat).Error; err != nil {
		return nil, false, err
	}
	return &cat, true, nil
}
