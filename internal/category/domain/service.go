package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]TreeNode, error)
	Get(ctx context.Context, id string) (*Response, error)
	Delete(ctx context.Context, id string) error
	DescendantIDs(ctx context.Context, id snowflake.ID) ([]snowflake.ID, error)
	AveragePrice(ctx context.Context, id string) (*AveragePriceResponse, error)
}

type CreateRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TreeNode is the nested read shape for category listings. Children of
// children are attached iteratively, never by recursive loading.
type TreeNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Children []*TreeNode `json:"children"`
}

type AveragePriceResponse struct {
	Category     string  `json:"category"`
	AveragePrice float64 `json:"average_price"`
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNameTaken      = errors.New("name_taken")
	ErrParentNotFound = errors.New("parent_not_found")
	ErrNotFound       = errors.New("not_found")
)
