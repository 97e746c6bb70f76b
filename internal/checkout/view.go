package checkout

import (
	"checkout-builder/internal/model"
	"slices"

	"github.com/shopspring/decimal"
)

// Storefront is the merchant branding a checkout page renders.
type Storefront struct {
	MerchantID            string `json:"merchant_id"`
	CompanyName           string `json:"company_name"`
	LogoURL               string `json:"logo_url"`
	ThemeColorPrimary     string `json:"theme_color_primary"`
	ThemeColorSecondary   string `json:"theme_color_secondary"`
	PaymentPublishableKey string `json:"payment_publishable_key"`
}

// View is a read-only snapshot of a session.
type View struct {
	ID              string                 `json:"id"`
	Step            Step                   `json:"step"`
	Storefront      Storefront             `json:"storefront"`
	ShippingMethods []model.ShippingMethod `json:"shipping_methods"`
	Amount          decimal.Decimal        `json:"amount"`
	ShippingCost    decimal.Decimal        `json:"shipping_cost"`
	Total           decimal.Decimal        `json:"total"`
	Form            Form                   `json:"form"`
	CityMode        CityMode               `json:"city_mode"`
	CityChoices     []string               `json:"city_choices"`
	RelayStatus     RelayStatus            `json:"relay_status"`
	RelayPoints     []model.RelayPoint     `json:"relay_points"`
	SelectedRelayID string                 `json:"selected_relay_id,omitempty"`
	Details         *ShippingDetails       `json:"details,omitempty"`
	Order           *model.Order           `json:"order,omitempty"`
}

// View snapshots the session. Reading counts as activity for idle expiry.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.now()

	shippingCost := s.shippingCostLocked()
	v := View{
		ID:   s.id,
		Step: s.step,
		Storefront: Storefront{
			MerchantID:            s.merchant.ID,
			CompanyName:           s.merchant.CompanyName,
			LogoURL:               s.merchant.LogoURL,
			ThemeColorPrimary:     s.merchant.ThemeColorPrimary,
			ThemeColorSecondary:   s.merchant.ThemeColorSecondary,
			PaymentPublishableKey: s.merchant.PaymentPublishableKey,
		},
		ShippingMethods: s.merchant.ActiveShippingMethods(),
		Amount:          s.amount,
		ShippingCost:    shippingCost,
		Total:           s.amount.Add(shippingCost),
		Form:            s.form,
		CityMode:        s.cityMode,
		CityChoices:     slices.Clone(s.cityChoices),
		RelayStatus:     s.relayStatus,
		RelayPoints:     slices.Clone(s.relayPoints),
		SelectedRelayID: s.relayID,
		Order:           s.order,
	}
	if s.details != nil {
		d := *s.details
		v.Details = &d
	}
	return v
}
