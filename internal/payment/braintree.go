package payment

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/client"
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
)

type braintreeGatewayImpl struct {
	client client.BraintreeClient
	logger *slog.Logger
}

// NewBraintreeGateway vaults the nonce into a customer on Tokenize and
// submits a sale for settlement on Settle.
func NewBraintreeGateway(bt client.BraintreeClient, logger *slog.Logger) Gateway {
	return &braintreeGatewayImpl{client: bt, logger: logger}
}

func (g *braintreeGatewayImpl) Tokenize(ctx context.Context, req TokenizeRequest) (string, error) {
	if req.Nonce == "" {
		return "", apperr.PaymentErr(declinedMsg, nil)
	}

	token, err := g.client.VaultPaymentMethod(ctx, req.Nonce, req.FirstName, req.LastName, req.Email)
	if err != nil {
		g.logger.WarnContext(ctx, "braintree vault failed", "error", err)
		return "", apperr.PaymentErr(declinedMsg, err)
	}
	return token, nil
}

func (g *braintreeGatewayImpl) Settle(ctx context.Context, token string, amount decimal.Decimal) (string, error) {
	txID, err := g.client.ChargeOneTime(ctx, token, amount)
	if err != nil {
		var declined *client.DeclinedError
		if errors.As(err, &declined) {
			return "", apperr.PaymentErr("Payment declined: "+declined.ResponseText, err)
		}
		return "", apperr.PaymentErr("Payment could not be processed, please try again.", err)
	}
	return txID, nil
}
