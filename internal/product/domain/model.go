package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Description string            `json:"description" gorm:"type:text"`
	Price       decimal.Decimal   `json:"price" gorm:"type:decimal(10,2);not null"`
	CategoryID  snowflake.ID      `json:"category_id" gorm:"not null;index"`
	Stock       int64             `json:"stock" gorm:"not null"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// HasSufficientStock reports whether quantity units can be taken from stock.
func (p *Product) HasSufficientStock(quantity int64) bool {
	return p.Stock >= quantity
}
