package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/gypsum_shop/internal/events"
	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
)

// ProductSearcher is a full-text index over the catalog. Search returns
// matching product ids in relevance order.
type ProductSearcher interface {
	Search(ctx context.Context, q string, offset, limit int) (int64, []uint, error)
	IndexProduct(ctx context.Context, p *models.Product) error
	RemoveProduct(ctx context.Context, id uint) error
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Searcher ProductSearcher
	Events   events.Publisher
}

type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Unit        string
	Image       string
}

func (in ProductInput) normalize() (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, fmt.Errorf("%w: name required", ErrValidation)
	}
	if len([]rune(in.Name)) > 100 {
		return in, fmt.Errorf("%w: name longer than 100", ErrValidation)
	}
	if in.Price.IsNegative() {
		return in, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if in.Unit == "" {
		in.Unit = models.DefaultUnit
	}
	in.Price = in.Price.Round(2)
	return in, nil
}

// ListProducts searches the index when one is configured and q is set,
// falling back to the database when the index fails.
func (s *CatalogService) ListProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.list")

	q = strings.TrimSpace(q)
	if q != "" && s.Searcher != nil {
		total, ids, err := s.Searcher.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, orderByIDs(items, ids), nil
		}
		l.Warn("search_error", "reason", "falling back to database", "error", err)
	}
	return s.Repo.ListProducts(ctx, q, offset, limit)
}

func orderByIDs(items []models.Product, ids []uint) []models.Product {
	byID := make(map[uint]models.Product, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(items))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.CreateProduct(ctx, &models.Product{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Unit:        in.Unit,
		Image:       in.Image,
	})
	if err != nil {
		return nil, err
	}
	s.index(ctx, p)
	s.publish(ctx, "product_created", p.ID, p.Name)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}

	p.Name = in.Name
	p.Price = in.Price
	p.Description = in.Description
	p.Unit = in.Unit
	if in.Image != "" {
		p.Image = in.Image
	}

	p, err = s.Repo.SaveProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.index(ctx, p)
	s.publish(ctx, "product_updated", p.ID, p.Name)
	return p, nil
}

// DeleteProduct removes the product together with its orders and stock.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	if s.Searcher != nil {
		if err := s.Searcher.RemoveProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("index_error", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, "product_deleted", id, "")
	return nil
}

func (s *CatalogService) index(ctx context.Context, p *models.Product) {
	if s.Searcher == nil {
		return
	}
	if err := s.Searcher.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_error", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, typ string, id uint, name string) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ev := events.Event{Type: typ, ProductID: id, Name: name, OccurredAt: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, events.TopicProducts, strconv.FormatUint(uint64(id), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_error", "topic", events.TopicProducts, "type", typ, "product_id", id, "error", err)
	}
}
