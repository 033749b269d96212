package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
)

type WarehouseService struct {
	Repo *repo.GormRepo
}

func (s *WarehouseService) ListStock(ctx context.Context, q string, offset, limit int) (int64, []models.Warehouse, error) {
	return s.Repo.ListWarehouse(ctx, q, offset, limit)
}

func (s *WarehouseService) GetStock(ctx context.Context, id uint) (*models.Warehouse, error) {
	w, err := s.Repo.GetWarehouse(ctx, id)
	if err != nil {
		return nil, notFound(err, "warehouse record")
	}
	return w, nil
}

func (s *WarehouseService) CreateStock(ctx context.Context, productID uint, quantity int) (*models.Warehouse, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity_in_stock must be >= 0", ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	return s.Repo.CreateWarehouse(ctx, &models.Warehouse{ProductID: productID, QuantityInStock: uint(quantity)})
}

func (s *WarehouseService) UpdateStock(ctx context.Context, id uint, quantity int) (*models.Warehouse, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity_in_stock must be >= 0", ErrValidation)
	}
	if _, err := s.Repo.GetWarehouse(ctx, id); err != nil {
		return nil, notFound(err, "warehouse record")
	}
	w, err := s.Repo.UpdateWarehouse(ctx, id, map[string]any{"quantity_in_stock": uint(quantity)})
	if err != nil {
		return nil, notFound(err, "warehouse record")
	}
	return w, nil
}

func (s *WarehouseService) DeleteStock(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteWarehouse(ctx, id); err != nil {
		return notFound(err, "warehouse record")
	}
	return nil
}
