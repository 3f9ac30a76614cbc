package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]Order, error)
	UpdateTotal(ctx context.Context, db *gorm.DB, orderID snowflake.ID, total decimal.Decimal, at time.Time) error
	DeleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
}
