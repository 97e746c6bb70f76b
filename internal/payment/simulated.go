package payment

import (
	"checkout-builder/internal/apperr"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeclinedNoncePrefix marks test nonces the simulated gateway refuses.
const DeclinedNoncePrefix = "fake-declined"

type simulatedGatewayImpl struct {
	delay time.Duration
}

// NewSimulatedGateway accepts any non-empty nonce and settles after delay.
func NewSimulatedGateway(delay time.Duration) Gateway {
	return &simulatedGatewayImpl{delay: delay}
}

func (g *simulatedGatewayImpl) Tokenize(ctx context.Context, req TokenizeRequest) (string, error) {
	if req.Nonce == "" || strings.HasPrefix(req.Nonce, DeclinedNoncePrefix) {
		return "", apperr.PaymentErr(declinedMsg, nil)
	}
	return "tok_" + uuid.NewString(), nil
}

func (g *simulatedGatewayImpl) Settle(ctx context.Context, token string, amount decimal.Decimal) (string, error) {
	if g.delay > 0 {
		t := time.NewTimer(g.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "txn_" + uuid.NewString(), nil
}
