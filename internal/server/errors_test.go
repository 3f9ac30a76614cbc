package server

import (
	"errors"
	"net/http"
	"testing"

	categorydomain "github.com/smallbiznis/soko/internal/category/domain"
	orderdomain "github.com/smallbiznis/soko/internal/order/domain"
	productdomain "github.com/smallbiznis/soko/internal/product/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation sentinel", orderdomain.ErrEmptyOrder, http.StatusBadRequest, "validation_error"},
		{"invalid quantity", orderdomain.ErrInvalidQuantity, http.StatusBadRequest, "validation_error"},
		{"insufficient stock", &orderdomain.InsufficientStockError{ProductName: "x", Requested: 2, Available: 1}, http.StatusBadRequest, "insufficient_stock"},
		{"missing product", &orderdomain.ProductNotFoundError{}, http.StatusNotFound, "not_found"},
		{"category not found", categorydomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"product category missing", productdomain.ErrCategoryNotFound, http.StatusNotFound, "not_found"},
		{"name conflict", categorydomain.ErrNameTaken, http.StatusConflict, "conflict"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"rate limited", ErrTooManyOrders, http.StatusTooManyRequests, "rate_limited"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, payload.Type)
		})
	}
}

func TestMapErrorCarriesStockMessage(t *testing.T) {
	_, payload := mapError(&orderdomain.InsufficientStockError{
		ProductName: "Sourdough Loaf",
		Requested:   9999,
		Available:   100,
	})
	assert.Equal(t, "Insufficient stock for Sourdough Loaf. Requested: 9999, Available: 100", payload.Message)
}
