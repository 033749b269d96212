package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
)

type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	Query         string
	Offset        int
	Limit         int
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Omit("Product").Create(order).Error; err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, order.ID)
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Product").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) filteredOrders(ctx context.Context, f OrderFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).
		Joins("JOIN products ON products.id = orders.product_id")
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("orders.payment_status = ?", f.PaymentStatus)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where(`(LOWER(orders.client_name) LIKE ? ESCAPE '\' OR LOWER(products.name) LIKE ? ESCAPE '\')`, p, p)
	}
	return q
}

// ListOrders returns a page of orders, newest first. A zero Limit returns
// every matching row.
func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	var total int64
	if err := r.filteredOrders(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	q := r.filteredOrders(ctx, f).Preload("Product").Order("orders.created_at DESC, orders.id DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}

	var items []models.Order
	if err := q.Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateOrder(ctx context.Context, id uint, fields map[string]any) (*models.Order, error) {
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Order{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.GetOrder(ctx, id)
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaid moves the order to Completed/Paid inside one transaction. The
// update only applies while the row is still unpaid, so of two concurrent
// confirmations exactly one reports applied=true.
func (r *GormRepo) MarkPaid(ctx context.Context, id uint, paymentID string) (order *models.Order, applied bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.First(&current, id).Error; err != nil {
			return err
		}
		if current.PaymentStatus == models.PaymentPaid {
			return nil
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status <> ?", id, models.PaymentPaid).
			Updates(map[string]any{
				"status":         models.StatusCompleted,
				"payment_status": models.PaymentPaid,
				"payment_id":     paymentID,
			})
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	order, err = r.GetOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return order, applied, nil
}
