package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
)

func (r *GormRepo) GetWarehouse(ctx context.Context, id uint) (*models.Warehouse, error) {
	var w models.Warehouse
	if err := r.DB.WithContext(ctx).Preload("Product").First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormRepo) ListWarehouse(ctx context.Context, q string, offset, limit int) (int64, []models.Warehouse, error) {
	base := r.DB.WithContext(ctx).Model(&models.Warehouse{}).
		Joins("JOIN products ON products.id = warehouse.product_id")
	if q != "" {
		base = base.Where(`LOWER(products.name) LIKE ? ESCAPE '\'`, likePattern(q))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Warehouse, 0, limit)
	if err := base.Session(&gorm.Session{}).
		Preload("Product").
		Order("warehouse.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateWarehouse(ctx context.Context, w *models.Warehouse) (*models.Warehouse, error) {
	if err := r.DB.WithContext(ctx).Omit("Product").Create(w).Error; err != nil {
		return nil, err
	}
	return r.GetWarehouse(ctx, w.ID)
}

func (r *GormRepo) UpdateWarehouse(ctx context.Context, id uint, fields map[string]any) (*models.Warehouse, error) {
	res := r.DB.WithContext(ctx).Model(&models.Warehouse{ID: id}).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	return r.GetWarehouse(ctx, id)
}

func (r *GormRepo) DeleteWarehouse(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Warehouse{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
