package repository

import (
	"checkout-builder/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByNumber(ctx context.Context, merchantID, orderNumber string) (*model.Order, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]*model.Order, error)
	ListSince(ctx context.Context, merchantID string, since time.Time) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByNumber(ctx context.Context, merchantID, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND order_number = ?", merchantID, orderNumber).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// ListByMerchant returns the merchant's orders, newest first.
func (r *orderRepoImpl) ListByMerchant(ctx context.Context, merchantID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListSince(ctx context.Context, merchantID string, since time.Time) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND created_at >= ?", merchantID, since).
		Order("created_at ASC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}
