package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// LockByIDs loads the given product rows under a row-level write lock,
	// ordered by ID so concurrent transactions acquire locks in the same
	// sequence. Callers must run inside a transaction.
	LockByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)

	// AdjustStock applies delta to a product's stock. It refuses to drive
	// stock negative regardless of what the caller computed.
	AdjustStock(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int64) error

	AverageUnitPrice(ctx context.Context, db *gorm.DB, categoryIDs []snowflake.ID) (float64, error)
	DeleteByCategoryIDs(ctx context.Context, db *gorm.DB, categoryIDs []snowflake.ID) error
}

type ListFilter struct {
	CategoryID *snowflake.ID
}
