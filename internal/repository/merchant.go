package repository

import (
	"checkout-builder/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MerchantRepository interface {
	Create(ctx context.Context, merchant *model.Merchant) error
	Get(ctx context.Context, merchantID string) (*model.Merchant, error)
	FindByEmail(ctx context.Context, email string) (*model.Merchant, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*model.Merchant, error)
	SubdomainTaken(ctx context.Context, subdomain, exceptMerchantID string) (bool, error)
	Update(ctx context.Context, merchant *model.Merchant) error
	List(ctx context.Context) ([]*model.Merchant, error)
}

type merchantRepoImpl struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepoImpl{
		db: db,
	}
}

func (r *merchantRepoImpl) Create(ctx context.Context, merchant *model.Merchant) error {
	for i := range merchant.ShippingMethods {
		merchant.ShippingMethods[i].MerchantID = merchant.ID
		merchant.ShippingMethods[i].Position = i
	}
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *merchantRepoImpl) Get(ctx context.Context, merchantID string) (*model.Merchant, error) {
	return r.findOne(ctx, "id = ?", merchantID)
}

func (r *merchantRepoImpl) FindByEmail(ctx context.Context, email string) (*model.Merchant, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *merchantRepoImpl) FindBySubdomain(ctx context.Context, subdomain string) (*model.Merchant, error) {
	return r.findOne(ctx, "subdomain = ?", subdomain)
}

func (r *merchantRepoImpl) findOne(ctx context.Context, query string, arg interface{}) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).
		Preload("ShippingMethods", orderedMethods).
		Where(query, arg).
		First(&merchant).Error
	if err != nil {
		return nil, err
	}

	return &merchant, nil
}

func orderedMethods(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *merchantRepoImpl) SubdomainTaken(ctx context.Context, subdomain, exceptMerchantID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("subdomain = ?", subdomain).
		Where("id <> ?", exceptMerchantID).
		Count(&count).Error

	return count > 0, err
}

// Update saves the merchant's columns and replaces its shipping methods with
// merchant.ShippingMethods, in list order.
func (r *merchantRepoImpl) Update(ctx context.Context, merchant *model.Merchant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merchant.UpdatedAt = time.Now()
		result := tx.Omit(clause.Associations).Save(merchant)
		if result.Error != nil {
			return result.Error
		}

		if err := tx.Where("merchant_id = ?", merchant.ID).Delete(&model.ShippingMethod{}).Error; err != nil {
			return err
		}

		if len(merchant.ShippingMethods) == 0 {
			return nil
		}
		for i := range merchant.ShippingMethods {
			merchant.ShippingMethods[i].MerchantID = merchant.ID
			merchant.ShippingMethods[i].Position = i
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&merchant.ShippingMethods).Error
	})
}

func (r *merchantRepoImpl) List(ctx context.Context) ([]*model.Merchant, error) {
	var merchants []*model.Merchant
	err := r.db.WithContext(ctx).
		Preload("ShippingMethods", orderedMethods).
		Order("created_at ASC").
		Find(&merchants).Error
	if err != nil {
		return nil, err
	}

	return merchants, nil
}
