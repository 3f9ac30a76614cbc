package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is the shop-side profile attached one-to-one to an identity
// user. It is provisioned lazily the first time the user interacts with
// orders; there are no implicit creation hooks.
type Customer struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID      snowflake.ID `json:"user_id" gorm:"not null;uniqueIndex:ux_customers_user"`
	PhoneNumber string       `json:"phone_number" gorm:"type:text"`
	Address     string       `json:"address" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Customer) TableName() string { return "customers" }
