// Package seed loads demo merchants, products and orders from YAML.
package seed

import (
	"checkout-builder/internal/model"
	"checkout-builder/internal/repository"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type Fixtures struct {
	Merchants []MerchantFixture `yaml:"merchants"`
}

type MerchantFixture struct {
	ID                    string           `yaml:"id"`
	Email                 string           `yaml:"email"`
	Password              string           `yaml:"password"`
	CompanyName           string           `yaml:"company_name"`
	Subdomain             string           `yaml:"subdomain"`
	LogoURL               string           `yaml:"logo_url"`
	ThemeColorPrimary     string           `yaml:"theme_color_primary"`
	ThemeColorSecondary   string           `yaml:"theme_color_secondary"`
	PaymentPublishableKey string           `yaml:"payment_publishable_key"`
	Chronopost            CarrierFixture   `yaml:"chronopost"`
	MondialRelay          CarrierFixture   `yaml:"mondial_relay"`
	Products              []ProductFixture `yaml:"products"`
	Orders                []OrderFixture   `yaml:"orders"`
}

// CarrierFixture covers both carriers; each reads the keys it knows.
type CarrierFixture struct {
	Enabled       bool   `yaml:"enabled"`
	AccountNumber string `yaml:"account_number"`
	Password      string `yaml:"password"`
	Enseigne      string `yaml:"enseigne"`
	PrivateKey    string `yaml:"private_key"`
}

type ProductFixture struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	ImageURL    string `yaml:"image_url"`
	Stock       int32  `yaml:"stock"`
	Active      bool   `yaml:"active"`
}

type OrderFixture struct {
	OrderNumber      string `yaml:"order_number"`
	ProductID        string `yaml:"product_id"`
	ProductName      string `yaml:"product_name"`
	Amount           string `yaml:"amount"`
	ShippingCost     string `yaml:"shipping_cost"`
	CustomerName     string `yaml:"customer_name"`
	CustomerEmail    string `yaml:"customer_email"`
	ShippingAddress  string `yaml:"shipping_address"`
	ShippingCity     string `yaml:"shipping_city"`
	ShippingZip      string `yaml:"shipping_zip"`
	ShippingMethodID string `yaml:"shipping_method_id"`
	DaysAgo          int    `yaml:"days_ago"`
}

// Default returns the fixtures bundled with the binary.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, m := range f.Merchants {
		if m.Email == "" || m.Password == "" {
			return nil, fmt.Errorf("merchant #%d: email and password are required", i)
		}
	}
	return &f, nil
}

type Result struct {
	MerchantsCreated int
	MerchantsSkipped int
	Products         int
	OrdersCreated    int
}

type Loader struct {
	merchants repository.MerchantRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewLoader(
	merchants repository.MerchantRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	logger *slog.Logger,
) *Loader {
	return &Loader{
		merchants: merchants,
		products:  products,
		orders:    orders,
		logger:    logger,
		now:       time.Now,
	}
}

// Load inserts the fixtures. Merchants are matched by email and orders by
// number, so loading twice adds nothing.
func (l *Loader) Load(ctx context.Context, f *Fixtures) (Result, error) {
	var res Result

	for _, mf := range f.Merchants {
		merchant, created, err := l.loadMerchant(ctx, mf)
		if err != nil {
			return res, fmt.Errorf("merchant %s: %w", mf.Email, err)
		}
		if created {
			res.MerchantsCreated++
		} else {
			res.MerchantsSkipped++
		}

		products, err := productsFrom(merchant.ID, mf.Products)
		if err != nil {
			return res, fmt.Errorf("merchant %s: %w", mf.Email, err)
		}
		if err := l.products.Seed(ctx, products); err != nil {
			return res, fmt.Errorf("seed products: %w", err)
		}
		res.Products += len(products)

		for _, of := range mf.Orders {
			created, err := l.loadOrder(ctx, merchant.ID, of)
			if err != nil {
				return res, fmt.Errorf("order %s: %w", of.OrderNumber, err)
			}
			if created {
				res.OrdersCreated++
			}
		}
	}

	l.logger.InfoContext(ctx, "fixtures loaded",
		"merchants_created", res.MerchantsCreated,
		"merchants_skipped", res.MerchantsSkipped,
		"orders_created", res.OrdersCreated,
	)
	return res, nil
}

func (l *Loader) loadMerchant(ctx context.Context, mf MerchantFixture) (*model.Merchant, bool, error) {
	existing, err := l.merchants.FindByEmail(ctx, mf.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(mf.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	m := &model.Merchant{
		ID:                    mf.ID,
		Email:                 mf.Email,
		PasswordHash:          string(hash),
		CompanyName:           mf.CompanyName,
		LogoURL:               mf.LogoURL,
		ThemeColorPrimary:     valueOr(mf.ThemeColorPrimary, model.DefaultThemeColorPrimary),
		ThemeColorSecondary:   valueOr(mf.ThemeColorSecondary, model.DefaultThemeColorSecondary),
		PaymentPublishableKey: mf.PaymentPublishableKey,
		Chronopost: model.ChronopostConfig{
			Enabled:       mf.Chronopost.Enabled,
			AccountNumber: mf.Chronopost.AccountNumber,
			Password:      mf.Chronopost.Password,
		},
		MondialRelay: model.MondialRelayConfig{
			Enabled:    mf.MondialRelay.Enabled,
			Enseigne:   mf.MondialRelay.Enseigne,
			PrivateKey: mf.MondialRelay.PrivateKey,
		},
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if mf.Subdomain != "" {
		sub := mf.Subdomain
		m.Subdomain = &sub
		m.ShippingMethods = model.DefaultShippingMethods()
	}

	if err := l.merchants.Create(ctx, m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (l *Loader) loadOrder(ctx context.Context, merchantID string, of OrderFixture) (bool, error) {
	if _, err := l.orders.FindByNumber(ctx, merchantID, of.OrderNumber); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	amount, err := decimal.NewFromString(of.Amount)
	if err != nil {
		return false, fmt.Errorf("amount: %w", err)
	}
	shippingCost := decimal.Zero
	if of.ShippingCost != "" {
		if shippingCost, err = decimal.NewFromString(of.ShippingCost); err != nil {
			return false, fmt.Errorf("shipping cost: %w", err)
		}
	}

	o := &model.Order{
		ID:               uuid.NewString(),
		OrderNumber:      of.OrderNumber,
		MerchantID:       merchantID,
		ProductName:      of.ProductName,
		Amount:           amount,
		ShippingCost:     shippingCost,
		CustomerName:     of.CustomerName,
		CustomerEmail:    of.CustomerEmail,
		ShippingAddress:  of.ShippingAddress,
		ShippingCity:     of.ShippingCity,
		ShippingZip:      of.ShippingZip,
		ShippingCountry:  "France",
		ShippingMethodID: of.ShippingMethodID,
		PaymentStatus:    model.PaymentPaid,
		CreatedAt:        l.now().AddDate(0, 0, -of.DaysAgo),
	}
	if of.ProductID != "" {
		id := of.ProductID
		o.ProductID = &id
	}

	if err := l.orders.Create(ctx, o); err != nil {
		return false, err
	}
	return true, nil
}

func productsFrom(merchantID string, in []ProductFixture) ([]model.Product, error) {
	products := make([]model.Product, 0, len(in))
	for _, pf := range in {
		price, err := decimal.NewFromString(pf.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s price: %w", pf.ID, err)
		}
		id := pf.ID
		if id == "" {
			id = uuid.NewString()
		}
		products = append(products, model.Product{
			ID:          id,
			MerchantID:  merchantID,
			Name:        pf.Name,
			Description: pf.Description,
			Price:       price,
			ImageURL:    pf.ImageURL,
			Stock:       pf.Stock,
			IsActive:    pf.Active,
		})
	}
	return products, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
