package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Order struct {
	ID               string                          `gorm:"primaryKey;size:64;not null" json:"id"`
	OrderNumber      string                          `gorm:"size:32;index;not null" json:"order_number"`
	MerchantID       string                          `gorm:"size:64;index;not null" json:"merchant_id"`
	ProductID        *string                         `gorm:"size:64" json:"product_id"` // nil for free-amount payments
	ProductName      string                          `gorm:"size:255" json:"product_name"`
	Amount           decimal.Decimal                 `gorm:"type:decimal(10,2);not null" json:"amount"`
	ShippingCost     decimal.Decimal                 `gorm:"type:decimal(10,2);not null" json:"shipping_cost"`
	TotalAmount      decimal.Decimal                 `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	CustomerName     string                          `gorm:"size:255" json:"customer_name"`
	CustomerEmail    string                          `gorm:"size:255" json:"customer_email"`
	CustomerPhone    string                          `gorm:"size:32" json:"customer_phone"`
	ShippingAddress  string                          `gorm:"size:512" json:"shipping_address"`
	ShippingCity     string                          `gorm:"size:255" json:"shipping_city"`
	ShippingZip      string                          `gorm:"size:16" json:"shipping_zip"`
	ShippingCountry  string                          `gorm:"size:64" json:"shipping_country"`
	ShippingMethodID string                          `gorm:"size:64" json:"shipping_method_id"`
	RelayPoint       datatypes.JSONType[*RelayPoint] `json:"relay_point"`
	Reference        string                          `gorm:"size:255" json:"reference,omitempty"`
	Pseudo           string                          `gorm:"size:255" json:"pseudo,omitempty"`
	PaymentStatus    PaymentStatus                   `gorm:"size:32;index;not null" json:"payment_status"`
	PaymentReference string                          `gorm:"size:128" json:"payment_reference,omitempty"`
	CreatedAt        time.Time                       `gorm:"index" json:"created_at"`
}

// BeforeSave keeps TotalAmount derived from its parts.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	o.TotalAmount = o.Amount.Add(o.ShippingCost)
	return nil
}

// OrderStats summarizes a merchant's orders for the dashboard.
type OrderStats struct {
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int64           `json:"order_count"`
	AverageValue decimal.Decimal `json:"average_value"`
	Daily        []DailyRevenue  `json:"daily"`
}

type DailyRevenue struct {
	Date   string          `json:"date"` // YYYY-MM-DD
	Amount decimal.Decimal `json:"amount"`
}
