package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soko/internal/category/domain"
	"github.com/smallbiznis/soko/internal/clock"
	productdomain "github.com/smallbiznis/soko/internal/product/domain"
	"github.com/smallbiznis/soko/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProductRepo productdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	productRepo productdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("category.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		productRepo: p.ProductRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var parentID *snowflake.ID
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.ParentID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		parent, err := s.repo.FindByID(ctx, s.db, parsed)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, domain.ErrParentNotFound
		}
		id := parsed
		parentID = &id
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrNameTaken
	}

	c := &domain.Category{
		ID:        s.genID.Generate(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, c); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrNameTaken
		}
		return nil, err
	}

	resp := toResponse(c)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.TreeNode, error) {
	items, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		return nil, err
	}

	nodes := make(map[snowflake.ID]*domain.TreeNode, len(items))
	for i := range items {
		nodes[items[i].ID] = &domain.TreeNode{
			ID:       items[i].ID.String(),
			Name:     items[i].Name,
			Children: []*domain.TreeNode{},
		}
	}

	rootIDs := make([]snowflake.ID, 0)
	for i := range items {
		if items[i].ParentID == nil {
			rootIDs = append(rootIDs, items[i].ID)
			continue
		}
		parent, ok := nodes[*items[i].ParentID]
		if !ok {
			// Orphan rows surface as roots rather than disappearing.
			rootIDs = append(rootIDs, items[i].ID)
			continue
		}
		parent.Children = append(parent.Children, nodes[items[i].ID])
	}

	roots := make([]domain.TreeNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		roots = append(roots, *nodes[id])
	}
	return roots, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

// Delete removes the category, every descendant category, and all products
// attached to any of them, in one transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, categoryID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := s.descendantIDs(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if err := s.productRepo.DeleteByCategoryIDs(ctx, tx, ids); err != nil {
			return err
		}
		return s.repo.DeleteByIDs(ctx, tx, ids)
	})
}

// DescendantIDs returns the IDs of the category and everything reachable
// below it, walking the tree level by level.
func (s *Service) DescendantIDs(ctx context.Context, id snowflake.ID) ([]snowflake.ID, error) {
	return s.descendantIDs(ctx, s.db, id)
}

func (s *Service) descendantIDs(ctx context.Context, db *gorm.DB, id snowflake.ID) ([]snowflake.ID, error) {
	visited := map[snowflake.ID]struct{}{id: {}}
	result := []snowflake.ID{id}
	frontier := []snowflake.ID{id}

	for len(frontier) > 0 {
		children, err := s.repo.ChildIDs(ctx, db, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, child := range children {
			// The visited set guards against cyclic parent chains, which
			// should not occur but must not hang the walk if they do.
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			result = append(result, child)
			frontier = append(frontier, child)
		}
	}

	return result, nil
}

func (s *Service) AveragePrice(ctx context.Context, id string) (*domain.AveragePriceResponse, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	ids, err := s.descendantIDs(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}

	avg, err := s.productRepo.AverageUnitPrice(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	return &domain.AveragePriceResponse{
		Category:     item.Name,
		AveragePrice: avg,
	}, nil
}

func toResponse(c *domain.Category) domain.Response {
	resp := domain.Response{
		ID:        c.ID.String(),
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
	if c.ParentID != nil {
		parent := c.ParentID.String()
		resp.ParentID = &parent
	}
	return resp
}
