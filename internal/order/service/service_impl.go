package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/soko/internal/clock"
	customerdomain "github.com/smallbiznis/soko/internal/customer/domain"
	"github.com/smallbiznis/soko/internal/events"
	obsmetrics "github.com/smallbiznis/soko/internal/observability/metrics"
	"github.com/smallbiznis/soko/internal/order/domain"
	productdomain "github.com/smallbiznis/soko/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxCommitAttempts bounds retries on lock contention; each retry backs
// off a little longer than the last.
const maxCommitAttempts = 3

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	Customers   customerdomain.Service
	Hub         *events.Hub
	Metrics     *obsmetrics.OrderMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	productRepo productdomain.Repository
	customers   customerdomain.Service
	hub         *events.Hub
	metrics     *obsmetrics.OrderMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		customers:   p.Customers,
		hub:         p.Hub,
		metrics:     p.Metrics,
	}
}

type line struct {
	productID snowflake.ID
	quantity  int64
}

// normalizeLines validates the write shape before any database work:
// non-empty, positive quantities, and no product listed twice.
func normalizeLines(items []domain.LineItem) ([]line, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	seen := make(map[snowflake.ID]struct{}, len(items))
	lines := make([]line, 0, len(items))
	for _, item := range items {
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, dup := seen[productID]; dup {
			return nil, domain.ErrDuplicateProduct
		}
		seen[productID] = struct{}{}
		lines = append(lines, line{productID: productID, quantity: item.Quantity})
	}
	return lines, nil
}

func lockOrder(ids map[snowflake.ID]struct{}) []snowflake.ID {
	sorted := make([]snowflake.ID, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

// checkStock verifies every line against the locked product rows before
// anything is mutated, so a late failure can never leave a partial
// decrement behind.
func checkStock(products map[snowflake.ID]*productdomain.Product, available map[snowflake.ID]int64, lines []line) error {
	for _, l := range lines {
		p, ok := products[l.productID]
		if !ok {
			return &domain.ProductNotFoundError{ProductID: l.productID}
		}
		if available[l.productID] < l.quantity {
			return &domain.InsufficientStockError{
				ProductName: p.Name,
				Requested:   l.quantity,
				Available:   available[l.productID],
			}
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateRequest) (*domain.Response, error) {
	lines, err := normalizeLines(req.Items)
	if err != nil {
		s.metrics.RecordFailure(failureReason(err))
		return nil, err
	}

	customer, err := s.customers.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		order *domain.Order
		views []domain.ItemView
		event events.OrderPlaced
	)

	err = s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			wanted := make(map[snowflake.ID]struct{}, len(lines))
			for _, l := range lines {
				wanted[l.productID] = struct{}{}
			}

			locked, err := s.productRepo.LockByIDs(ctx, tx, lockOrder(wanted))
			if err != nil {
				return err
			}
			products := make(map[snowflake.ID]*productdomain.Product, len(locked))
			available := make(map[snowflake.ID]int64, len(locked))
			for i := range locked {
				products[locked[i].ID] = &locked[i]
				available[locked[i].ID] = locked[i].Stock
			}

			if err := checkStock(products, available, lines); err != nil {
				return err
			}

			now := s.clock.Now()
			order = &domain.Order{
				ID:          s.genID.Generate(),
				CustomerID:  customer.ID,
				TotalAmount: decimal.Zero,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.repo.Insert(ctx, tx, order); err != nil {
				return err
			}

			items := make([]domain.OrderItem, 0, len(lines))
			total := decimal.Zero
			views = views[:0]
			for _, l := range lines {
				items = append(items, domain.OrderItem{
					ID:        s.genID.Generate(),
					OrderID:   order.ID,
					ProductID: l.productID,
					Quantity:  l.quantity,
				})
				if err := s.productRepo.AdjustStock(ctx, tx, l.productID, -l.quantity); err != nil {
					return err
				}

				p := products[l.productID]
				subtotal := p.Price.Mul(decimal.NewFromInt(l.quantity))
				total = total.Add(subtotal)
				views = append(views, domain.ItemView{
					ProductID:   l.productID.String(),
					ProductName: p.Name,
					Quantity:    l.quantity,
					UnitPrice:   p.Price.StringFixed(2),
					Subtotal:    subtotal.StringFixed(2),
				})
			}
			if err := s.repo.InsertItems(ctx, tx, items); err != nil {
				return err
			}

			order.TotalAmount = total
			return s.repo.UpdateTotal(ctx, tx, order.ID, total, now)
		})
	})
	if err != nil {
		s.metrics.RecordFailure(failureReason(err))
		return nil, err
	}

	event = events.OrderPlaced{
		OrderID:         order.ID.String(),
		CustomerID:      customer.ID.String(),
		CustomerPhone:   customer.PhoneNumber,
		CustomerAddress: customer.Address,
		TotalAmount:     order.TotalAmount.StringFixed(2),
		PlacedAt:        order.CreatedAt,
	}
	event.Items = make([]events.OrderPlacedItem, 0, len(views))
	for _, v := range views {
		event.Items = append(event.Items, events.OrderPlacedItem{
			ProductID:   v.ProductID,
			ProductName: v.ProductName,
			Quantity:    v.Quantity,
			UnitPrice:   v.UnitPrice,
			Subtotal:    v.Subtotal,
		})
	}
	s.hub.Publish(event)
	s.metrics.RecordPlaced()

	s.log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(views)),
	)

	return s.toResponse(order, views), nil
}

// Update replaces the order's items wholesale. Restoration of old stock,
// validation of the new set, and application all happen in one
// transaction: any failure rolls the order back to exactly its prior
// state.
func (s *Service) Update(ctx context.Context, userID snowflake.ID, orderID string, req domain.UpdateRequest) (*domain.Response, error) {
	lines, err := normalizeLines(req.Items)
	if err != nil {
		return nil, err
	}

	id, err := snowflake.ParseString(strings.TrimSpace(orderID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	customer, err := s.customers.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		order *domain.Order
		views []domain.ItemView
	)

	err = s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			order, err = s.repo.FindByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if order == nil || order.CustomerID != customer.ID {
				return domain.ErrNotFound
			}

			existing, err := s.repo.FindItems(ctx, tx, order.ID)
			if err != nil {
				return err
			}

			union := make(map[snowflake.ID]struct{}, len(existing)+len(lines))
			oldQty := make(map[snowflake.ID]int64, len(existing))
			for _, item := range existing {
				union[item.ProductID] = struct{}{}
				oldQty[item.ProductID] += item.Quantity
			}
			newQty := make(map[snowflake.ID]int64, len(lines))
			for _, l := range lines {
				union[l.productID] = struct{}{}
				newQty[l.productID] = l.quantity
			}

			locked, err := s.productRepo.LockByIDs(ctx, tx, lockOrder(union))
			if err != nil {
				return err
			}
			products := make(map[snowflake.ID]*productdomain.Product, len(locked))
			available := make(map[snowflake.ID]int64, len(locked))
			for i := range locked {
				products[locked[i].ID] = &locked[i]
				// New lines validate against stock as it would be after
				// the old items are handed back.
				available[locked[i].ID] = locked[i].Stock + oldQty[locked[i].ID]
			}

			if err := checkStock(products, available, lines); err != nil {
				return err
			}

			for _, productID := range lockOrder(union) {
				p, ok := products[productID]
				if !ok {
					// Old item whose product row disappeared; nothing to
					// restore stock to.
					continue
				}
				delta := oldQty[productID] - newQty[productID]
				if delta == 0 {
					continue
				}
				if err := s.productRepo.AdjustStock(ctx, tx, p.ID, delta); err != nil {
					return err
				}
			}

			if err := s.repo.DeleteItems(ctx, tx, order.ID); err != nil {
				return err
			}

			items := make([]domain.OrderItem, 0, len(lines))
			total := decimal.Zero
			views = views[:0]
			for _, l := range lines {
				items = append(items, domain.OrderItem{
					ID:        s.genID.Generate(),
					OrderID:   order.ID,
					ProductID: l.productID,
					Quantity:  l.quantity,
				})
				p := products[l.productID]
				subtotal := p.Price.Mul(decimal.NewFromInt(l.quantity))
				total = total.Add(subtotal)
				views = append(views, domain.ItemView{
					ProductID:   l.productID.String(),
					ProductName: p.Name,
					Quantity:    l.quantity,
					UnitPrice:   p.Price.StringFixed(2),
					Subtotal:    subtotal.StringFixed(2),
				})
			}
			if err := s.repo.InsertItems(ctx, tx, items); err != nil {
				return err
			}

			now := s.clock.Now()
			order.TotalAmount = total
			order.UpdatedAt = now
			return s.repo.UpdateTotal(ctx, tx, order.ID, total, now)
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order updated",
		zap.String("order_id", order.ID.String()),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(views)),
	)

	return s.toResponse(order, views), nil
}

// Delete removes the order and hands every item's quantity back to its
// product's stock.
func (s *Service) Delete(ctx context.Context, userID snowflake.ID, orderID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(orderID))
	if err != nil {
		return domain.ErrInvalidID
	}

	customer, err := s.customers.EnsureProfile(ctx, userID)
	if err != nil {
		return err
	}

	return s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			order, err := s.repo.FindByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if order == nil || order.CustomerID != customer.ID {
				return domain.ErrNotFound
			}

			items, err := s.repo.FindItems(ctx, tx, order.ID)
			if err != nil {
				return err
			}

			ids := make(map[snowflake.ID]struct{}, len(items))
			qty := make(map[snowflake.ID]int64, len(items))
			for _, item := range items {
				ids[item.ProductID] = struct{}{}
				qty[item.ProductID] += item.Quantity
			}

			locked, err := s.productRepo.LockByIDs(ctx, tx, lockOrder(ids))
			if err != nil {
				return err
			}
			for i := range locked {
				if err := s.productRepo.AdjustStock(ctx, tx, locked[i].ID, qty[locked[i].ID]); err != nil {
					return err
				}
			}

			if err := s.repo.DeleteItems(ctx, tx, order.ID); err != nil {
				return err
			}
			return s.repo.Delete(ctx, tx, order.ID)
		})
	})
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID, orderID string) (*domain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(orderID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	customer, err := s.customers.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.CustomerID != customer.ID {
		return nil, domain.ErrNotFound
	}

	views, err := s.itemViews(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(order, views), nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]domain.Response, error) {
	customer, err := s.customers.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListByCustomer(ctx, s.db, customer.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(orders))
	for i := range orders {
		views, err := s.itemViews(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, *s.toResponse(&orders[i], views))
	}
	return resp, nil
}

func (s *Service) itemViews(ctx context.Context, orderID snowflake.ID) ([]domain.ItemView, error) {
	items, err := s.repo.FindItems(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, s.db, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]*productdomain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	views := make([]domain.ItemView, 0, len(items))
	for _, item := range items {
		view := domain.ItemView{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		}
		if p, ok := byID[item.ProductID]; ok {
			view.ProductName = p.Name
			view.UnitPrice = p.Price.StringFixed(2)
			view.Subtotal = p.Price.Mul(decimal.NewFromInt(item.Quantity)).StringFixed(2)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) toResponse(order *domain.Order, views []domain.ItemView) *domain.Response {
	if views == nil {
		views = []domain.ItemView{}
	}
	return &domain.Response{
		ID:          order.ID.String(),
		CustomerID:  order.CustomerID.String(),
		TotalAmount: order.TotalAmount.StringFixed(2),
		CreatedAt:   order.CreatedAt,
		Items:       views,
	}
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
			s.log.Warn("retrying order transaction after lock contention",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
		}
		err = fn()
		if err == nil || !isLockContention(err) {
			return err
		}
	}
	return err
}

func isLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "Lock wait timeout") ||
		strings.Contains(msg, "database is locked")
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyOrder):
		return "empty_order"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrDuplicateProduct):
		return "duplicate_product"
	case errors.Is(err, domain.ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "internal"
	}
}
