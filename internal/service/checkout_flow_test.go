package service

import (
	"checkout-builder/internal/checkout"
	"checkout-builder/internal/client"
	"checkout-builder/internal/config"
	"checkout-builder/internal/dto"
	"checkout-builder/internal/payment"
	"checkout-builder/internal/shipping"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticGeo map[string][]string

func (g staticGeo) LookupCities(ctx context.Context, zip string) ([]string, error) {
	return g[zip], nil
}

// A storefront checkout persisted through the real order store.
func TestCheckoutFlow_MondialRelayOrderIsStored(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	m, _, err := env.merchants.Register(ctx, "shop@example.com", "password1")
	require.NoError(t, err)
	_, err = env.merchants.Onboard(ctx, m.ID, "Boutique", "boutique")
	require.NoError(t, err)
	_, err = env.merchants.Update(ctx, m.ID, &dto.UpdateMerchantRequest{
		MondialRelay: &dto.MondialRelayInput{Enabled: true, Enseigne: "BDTEST13", PrivateKey: "PrivateK"},
	})
	require.NoError(t, err)

	store, err := env.merchants.GetStorefront(ctx, "boutique")
	require.NoError(t, err)

	manager := checkout.NewManager(config.Checkout{
		CityDebounce:  time.Millisecond,
		RelayDebounce: time.Millisecond,
		LookupTimeout: time.Second,
		SessionTTL:    time.Minute,
	}, checkout.Deps{
		Geo: staticGeo{"77600": {"BUSSY SAINT GEORGES"}},
		Relays: shipping.NewRelayFinder(
			client.NewChronopostClient(&config.Carrier{}, env.logger),
			client.NewMondialRelayClient(&config.Carrier{}, env.logger),
		),
		Payments: payment.NewSimulatedGateway(0),
		Orders:   env.orders,
		Logger:   env.logger,
	})
	defer manager.Close()

	s, err := manager.Start(store)
	require.NoError(t, err)

	str := func(v string) *string { return &v }
	require.NoError(t, s.SetAmount(decimal.RequireFromString("50.00")))
	require.NoError(t, s.UpdateDetails(checkout.DetailsPatch{
		FirstName:        str("Jeanne"),
		LastName:         str("Martin"),
		Email:            str("jeanne@example.com"),
		Phone:            str("0601020304"),
		ShippingMethodID: str("ship_mr"),
		Zip:              str("77600"),
	}))
	s.Settle()
	require.NoError(t, s.SelectRelay("MR-77002"))
	_, err = s.SubmitDetails()
	require.NoError(t, err)

	_, err = s.Pay(ctx, checkout.PayRequest{Nonce: "fake-valid-nonce"})
	require.NoError(t, err)

	orders, err := env.orders.List(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.True(t, o.Amount.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, o.ShippingCost.Equal(decimal.RequireFromString("3.90")))
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("53.90")))
	assert.Equal(t, "[MONDIAL_RELAY MR-77002] FLEURISTE DES PRES - 3 RUE JEAN JAURES", o.ShippingAddress)
	assert.Equal(t, "BUSSY SAINT GEORGES", o.ShippingCity)
	assert.Equal(t, "77600", o.ShippingZip)
	assert.Equal(t, "France", o.ShippingCountry)
	assert.Nil(t, o.ProductID)

	stats, err := env.orders.Stats(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.OrderCount)
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("53.90")))
}
