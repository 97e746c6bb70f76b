package client

import (
	"checkout-builder/internal/config"
	"context"
	"fmt"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

type BraintreeClient interface {
	// VaultPaymentMethod exchanges a hosted-fields nonce for a reusable payment token.
	VaultPaymentMethod(ctx context.Context, nonce, firstName, lastName, email string) (string, error)

	// ChargeOneTime submits a sale on a vaulted token and returns the transaction id.
	ChargeOneTime(ctx context.Context, paymentToken string, amount decimal.Decimal) (string, error)
}

// DeclinedError carries the processor's text for a refused transaction.
type DeclinedError struct {
	ResponseText string
}

func (e *DeclinedError) Error() string {
	return "transaction declined by processor: " + e.ResponseText
}

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

func (c *braintreeClientImpl) VaultPaymentMethod(ctx context.Context, nonce, firstName, lastName, email string) (string, error) {
	req := &braintree.CustomerRequest{
		PaymentMethodNonce: nonce,
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
	}

	customer, err := c.gateway.Customer().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vault payment method: %w", err)
	}

	if customer.DefaultPaymentMethod() == nil {
		return "", fmt.Errorf("no default payment method returned from vault")
	}

	return customer.DefaultPaymentMethod().GetToken(), nil
}

func (c *braintreeClientImpl) ChargeOneTime(ctx context.Context, paymentToken string, amount decimal.Decimal) (string, error) {
	// braintree decimals are unscaled integers: 53.90 EUR -> NewDecimal(5390, 2)
	cents := amount.Round(2).Shift(2).IntPart()

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(cents, 2),
		PaymentMethodToken: paymentToken,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined {
		return "", &DeclinedError{ResponseText: tx.ProcessorResponseText}
	}

	return tx.Id, nil
}
