package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, category *Category) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Category, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Category, error)
	ChildIDs(ctx context.Context, db *gorm.DB, parentIDs []snowflake.ID) ([]snowflake.ID, error)
	DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
}
