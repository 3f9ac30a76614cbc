package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateRequest) (*Response, error)
	Update(ctx context.Context, userID snowflake.ID, orderID string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, userID snowflake.ID, orderID string) error
	Get(ctx context.Context, userID snowflake.ID, orderID string) (*Response, error)
	List(ctx context.Context, userID snowflake.ID) ([]Response, error)
}

// LineItem is the write shape for one order line.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CreateRequest struct {
	Items []LineItem `json:"products"`
}

// UpdateRequest replaces the order's items wholesale; there is no partial
// line edit.
type UpdateRequest struct {
	Items []LineItem `json:"products"`
}

// ItemView is the read shape for one order line. UnitPrice and Subtotal
// are fixed to two decimal places.
type ItemView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type Response struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customer_id"`
	TotalAmount string     `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
	Items       []ItemView `json:"products"`
}

var (
	ErrEmptyOrder        = errors.New("empty_order")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrDuplicateProduct  = errors.New("duplicate_product")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
	ErrProductNotFound   = errors.New("product_not_found")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

// ProductNotFoundError reports which referenced product is missing. It
// matches ErrProductNotFound under errors.Is.
type ProductNotFoundError struct {
	ProductID snowflake.ID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product with ID %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// InsufficientStockError reports the first line whose quantity cannot be
// covered by available stock. It matches ErrInsufficientStock under
// errors.Is.
type InsufficientStockError struct {
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Requested: %d, Available: %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
