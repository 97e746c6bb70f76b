package service

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/dto"
	"checkout-builder/internal/model"
	"checkout-builder/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService interface {
	List(ctx context.Context, merchantID string) ([]*model.Product, error)
	Get(ctx context.Context, merchantID, productID string) (*model.Product, error)
	Create(ctx context.Context, merchantID string, req *dto.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, merchantID, productID string, req *dto.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, merchantID, productID string) error
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
	}
}

var errProductNotFound = apperr.NotFoundErr("Product not found.")

func (s *productServiceImpl) List(ctx context.Context, merchantID string) ([]*model.Product, error) {
	products, err := s.productRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *productServiceImpl) Get(ctx context.Context, merchantID, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, merchantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) Create(ctx context.Context, merchantID string, req *dto.ProductRequest) (*model.Product, error) {
	if err := checkProduct(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
	}
	applyProduct(product, req)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) Update(ctx context.Context, merchantID, productID string, req *dto.ProductRequest) (*model.Product, error) {
	if err := checkProduct(req); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, merchantID, productID)
	if err != nil {
		return nil, err
	}
	applyProduct(product, req)
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) Delete(ctx context.Context, merchantID, productID string) error {
	if err := s.productRepo.Delete(ctx, merchantID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func checkProduct(req *dto.ProductRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "This field is required."
	}
	if req.Price.IsNegative() {
		fields["price"] = "Must be at least 0."
	}
	if req.Stock < 0 {
		fields["stock"] = "Must be at least 0."
	}
	if len(fields) > 0 {
		return apperr.InvalidErr("Some fields are invalid.", fields)
	}
	return nil
}

func applyProduct(p *model.Product, req *dto.ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Price = req.Price.Round(2)
	p.ImageURL = req.ImageURL
	p.Stock = req.Stock
	p.IsActive = req.IsActive
}
