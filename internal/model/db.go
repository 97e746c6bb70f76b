package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultThemeColorPrimary   = "#4f46e5"
	DefaultThemeColorSecondary = "#1e1b4b"
)

type Merchant struct {
	ID                    string             `gorm:"primaryKey;size:64;not null" json:"id"`
	Email                 string             `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash          string             `gorm:"size:255;not null" json:"-"`
	Subdomain             *string            `gorm:"size:63;uniqueIndex" json:"subdomain"` // nil until onboarding
	CompanyName           string             `gorm:"size:255" json:"company_name"`
	LogoURL               string             `gorm:"size:1024" json:"logo_url"`
	ThemeColorPrimary     string             `gorm:"size:16" json:"theme_color_primary"`
	ThemeColorSecondary   string             `gorm:"size:16" json:"theme_color_secondary"`
	PaymentPublishableKey string             `gorm:"size:255" json:"payment_publishable_key"`
	ShippingMethods       []ShippingMethod   `gorm:"foreignKey:MerchantID;references:ID" json:"shipping_methods"`
	Chronopost            ChronopostConfig   `gorm:"embedded;embeddedPrefix:chronopost_" json:"chronopost"`
	MondialRelay          MondialRelayConfig `gorm:"embedded;embeddedPrefix:mondial_relay_" json:"mondial_relay"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// Onboarded reports whether the merchant picked a storefront subdomain.
func (m *Merchant) Onboarded() bool {
	return m.Subdomain != nil && *m.Subdomain != ""
}

// ShippingMethod looks a method up by id, active or not.
func (m *Merchant) ShippingMethod(id string) (*ShippingMethod, bool) {
	for i := range m.ShippingMethods {
		if m.ShippingMethods[i].ID == id {
			return &m.ShippingMethods[i], true
		}
	}
	return nil, false
}

func (m *Merchant) ActiveShippingMethods() []ShippingMethod {
	active := make([]ShippingMethod, 0, len(m.ShippingMethods))
	for _, sm := range m.ShippingMethods {
		if sm.IsActive {
			active = append(active, sm)
		}
	}
	return active
}

type ShippingMethod struct {
	MerchantID string          `gorm:"primaryKey;size:64;not null" json:"-"`
	ID         string          `gorm:"primaryKey;size:64;not null" json:"id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive   bool            `gorm:"not null" json:"is_active"`
	Position   int             `gorm:"not null;default:0" json:"-"`
}

type ChronopostConfig struct {
	Enabled       bool   `json:"enabled"`
	AccountNumber string `gorm:"size:64" json:"account_number"`
	Password      string `gorm:"size:255" json:"password"`
}

type MondialRelayConfig struct {
	Enabled    bool   `json:"enabled"`
	Enseigne   string `gorm:"size:64" json:"enseigne"`
	PrivateKey string `gorm:"size:255" json:"private_key"`
}

// DefaultShippingMethods are installed when a merchant completes onboarding
// so the checkout works immediately.
func DefaultShippingMethods() []ShippingMethod {
	return []ShippingMethod{
		{ID: ReservedChronopostMethodID, Name: "Livraison en Point Relais Chronopost", Price: decimal.RequireFromString("4.50"), IsActive: true, Position: 0},
		{ID: ReservedMondialRelayMethodID, Name: "Mondial Relay", Price: decimal.RequireFromString("3.90"), IsActive: true, Position: 1},
		{ID: "ship_home", Name: "Livraison Domicile (Chronopost)", Price: decimal.RequireFromString("12.90"), IsActive: true, Position: 2},
	}
}

type Product struct {
	ID          string          `gorm:"primaryKey;size:64;not null" json:"id"`
	MerchantID  string          `gorm:"size:64;index;not null" json:"merchant_id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL    string          `gorm:"size:1024" json:"image_url"`
	Stock       int32           `gorm:"not null;default:0" json:"stock"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
