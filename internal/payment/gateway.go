// Package payment captures card payments through a tokenization provider.
// Raw card data never reaches this package: callers hand over the
// single-use nonce produced by the hosted payment fields.
package payment

import (
	"checkout-builder/internal/client"
	"checkout-builder/internal/config"
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

const (
	ProviderSimulated = "simulated"
	ProviderBraintree = "braintree"
)

const declinedMsg = "Your card was declined."

type TokenizeRequest struct {
	Nonce     string
	FirstName string
	LastName  string
	Email     string
}

type Gateway interface {
	// Tokenize exchanges a nonce for a chargeable token.
	Tokenize(ctx context.Context, req TokenizeRequest) (string, error)

	// Settle charges amount on token and returns the transaction reference.
	Settle(ctx context.Context, token string, amount decimal.Decimal) (string, error)
}

// New picks the gateway named by cfg.Provider. bt is only used by the
// braintree provider and may be nil otherwise.
func New(cfg *config.Payment, bt client.BraintreeClient, logger *slog.Logger) (Gateway, error) {
	switch cfg.Provider {
	case "", ProviderSimulated:
		return NewSimulatedGateway(cfg.SettlementDelay), nil
	case ProviderBraintree:
		if bt == nil {
			return nil, fmt.Errorf("braintree provider selected without a braintree client")
		}
		return NewBraintreeGateway(bt, logger), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
