package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Category is a node in the catalog hierarchy. The parent chain forms a
// forest; root categories have a nil ParentID.
type Category struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"type:text;not null;uniqueIndex:ux_categories_name"`
	ParentID  *snowflake.ID `json:"parent_id,omitempty" gorm:"index"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Category) TableName() string { return "categories" }
