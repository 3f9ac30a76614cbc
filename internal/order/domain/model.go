package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Order is a committed purchase. TotalAmount is a denormalized cache of
// the sum of line subtotals and is rewritten whenever the items change.
// CreatedAt is set once and never touched afterwards.
type Order struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	CustomerID  snowflake.ID    `json:"customer_id" gorm:"not null;index"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order. A product appears at most once per
// order; the composite unique index is the source of truth for that rule.
// Subtotals are always derived from the product price, never stored.
type OrderItem struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID   snowflake.ID `json:"order_id" gorm:"not null;uniqueIndex:ux_order_items_order_product,priority:1"`
	ProductID snowflake.ID `json:"product_id" gorm:"not null;uniqueIndex:ux_order_items_order_product,priority:2"`
	Quantity  int64        `json:"quantity" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }
