package dto

import (
	"checkout-builder/internal/checkout"
	"checkout-builder/internal/model"

	"github.com/shopspring/decimal"
)

// -------- merchant auth --------

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token    string          `json:"token"`
	Merchant *model.Merchant `json:"merchant"`
}

// -------- onboarding & settings --------

type OnboardRequest struct {
	CompanyName string `json:"company_name" validate:"required,max=255"`
	Subdomain   string `json:"subdomain" validate:"required,max=63"`
}

type SubdomainAvailability struct {
	Subdomain string `json:"subdomain"`
	Available bool   `json:"available"`
}

type ShippingMethodInput struct {
	ID       string          `json:"id" validate:"required,max=64"`
	Name     string          `json:"name" validate:"required,max=255"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"is_active"`
}

type ChronopostInput struct {
	Enabled       bool   `json:"enabled"`
	AccountNumber string `json:"account_number" validate:"max=64"`
	Password      string `json:"password" validate:"max=255"`
}

type MondialRelayInput struct {
	Enabled    bool   `json:"enabled"`
	Enseigne   string `json:"enseigne" validate:"max=64"`
	PrivateKey string `json:"private_key" validate:"max=255"`
}

// UpdateMerchantRequest is a partial update: nil fields are left unchanged.
type UpdateMerchantRequest struct {
	CompanyName           *string                `json:"company_name" validate:"omitempty,max=255"`
	LogoURL               *string                `json:"logo_url" validate:"omitempty,url"`
	ThemeColorPrimary     *string                `json:"theme_color_primary" validate:"omitempty,hexcolor"`
	ThemeColorSecondary   *string                `json:"theme_color_secondary" validate:"omitempty,hexcolor"`
	PaymentPublishableKey *string                `json:"payment_publishable_key" validate:"omitempty,max=255"`
	ShippingMethods       *[]ShippingMethodInput `json:"shipping_methods" validate:"omitempty,dive"`
	Chronopost            *ChronopostInput       `json:"chronopost"`
	MondialRelay          *MondialRelayInput     `json:"mondial_relay"`
}

type VerifyChronopostRequest struct {
	AccountNumber string `json:"account_number" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

type VerifyChronopostResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// -------- products --------

type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Stock       int32           `json:"stock" validate:"gte=0"`
	IsActive    bool            `json:"is_active"`
}

// -------- checkout --------

type SetAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type SelectRelayRequest struct {
	RelayPointID string `json:"relay_point_id"`
}

type PayRequest struct {
	Nonce string `json:"nonce"`
}

type CheckoutResponse struct {
	Session checkout.View `json:"session"`
}
