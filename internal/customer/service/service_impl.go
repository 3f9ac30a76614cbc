package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soko/internal/clock"
	"github.com/smallbiznis/soko/internal/customer/domain"
	"github.com/smallbiznis/soko/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) EnsureProfile(ctx context.Context, userID snowflake.ID) (*domain.Customer, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	existing, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock.Now()
	c := &domain.Customer{
		ID:        s.genID.Generate(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, c); err != nil {
		// Two first-orders for the same user can race here; the unique
		// index on user_id decides the winner and we read it back.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByUserID(ctx, s.db, userID)
		}
		return nil, err
	}

	s.log.Info("customer profile provisioned",
		zap.String("customer_id", c.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return c, nil
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID) (*domain.Response, error) {
	c, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(c)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, userID snowflake.ID, req domain.UpdateRequest) (*domain.Response, error) {
	c, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.PhoneNumber != nil {
		c.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Address != nil {
		c.Address = strings.TrimSpace(*req.Address)
	}
	c.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, c); err != nil {
		return nil, err
	}

	resp := toResponse(c)
	return &resp, nil
}

func toResponse(c *domain.Customer) domain.Response {
	return domain.Response{
		ID:          c.ID.String(),
		UserID:      c.UserID.String(),
		PhoneNumber: c.PhoneNumber,
		Address:     c.Address,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
