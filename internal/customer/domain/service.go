package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// EnsureProfile returns the customer profile for userID, creating an
	// empty one on first use.
	EnsureProfile(ctx context.Context, userID snowflake.ID) (*Customer, error)
	Get(ctx context.Context, userID snowflake.ID) (*Response, error)
	Update(ctx context.Context, userID snowflake.ID, req UpdateRequest) (*Response, error)
}

type UpdateRequest struct {
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
}

type Response struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrInvalidUser = errors.New("invalid_user")
	ErrNotFound    = errors.New("not_found")
)
