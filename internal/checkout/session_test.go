package checkout

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/client"
	"checkout-builder/internal/config"
	"checkout-builder/internal/model"
	"checkout-builder/internal/payment"
	"checkout-builder/internal/shipping"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastCheckout = config.Checkout{
	CityDebounce:  time.Millisecond,
	RelayDebounce: time.Millisecond,
	LookupTimeout: time.Second,
	SessionTTL:    time.Minute,
}

func testMerchant() *model.Merchant {
	sub := "boutique"
	return &model.Merchant{
		ID:              "merchant-1",
		Subdomain:       &sub,
		CompanyName:     "Boutique",
		ShippingMethods: model.DefaultShippingMethods(),
		Chronopost:      model.ChronopostConfig{Enabled: true, AccountNumber: "19869502", Password: "255562"},
		MondialRelay:    model.MondialRelayConfig{Enabled: true, Enseigne: "BDTEST13", PrivateKey: "PrivateK"},
	}
}

type fakeGeo struct {
	cities map[string][]string
	err    error
}

func (g *fakeGeo) LookupCities(ctx context.Context, zip string) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.cities[zip], nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders []*model.Order
	err    error
}

func (f *fakeOrders) Create(ctx context.Context, o *model.Order) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	o.ID = uuid.NewString()
	o.OrderNumber = "ORD-000001"
	o.PaymentStatus = model.PaymentPaid
	if err := o.BeforeSave(nil); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o)
	return o, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func carrierFinder() shipping.RelayFinder {
	logger := discardLogger()
	return shipping.NewRelayFinder(
		client.NewChronopostClient(&config.Carrier{}, logger),
		client.NewMondialRelayClient(&config.Carrier{}, logger),
	)
}

func newTestSession(t *testing.T, merchant *model.Merchant, deps Deps) *Session {
	t.Helper()
	if deps.Geo == nil {
		deps.Geo = &fakeGeo{cities: map[string][]string{
			"77600": {"BUSSY SAINT GEORGES"},
			"75001": {"Paris", "Paris 01"},
		}}
	}
	if deps.Relays == nil {
		deps.Relays = carrierFinder()
	}
	if deps.Payments == nil {
		deps.Payments = payment.NewSimulatedGateway(0)
	}
	if deps.Orders == nil {
		deps.Orders = &fakeOrders{}
	}
	deps.Logger = discardLogger()

	s := newSession(merchant, fastCheckout, deps, time.Now)
	t.Cleanup(s.Close)
	return s
}

func str(s string) *string { return &s }

func fillCustomer(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.UpdateDetails(DetailsPatch{
		FirstName: str("Jeanne"),
		LastName:  str("Martin"),
		Email:     str("jeanne@example.com"),
		Phone:     str("0601020304"),
	}))
}

func TestSession_MondialRelayCheckout(t *testing.T) {
	orders := &fakeOrders{}
	s := newTestSession(t, testMerchant(), Deps{Orders: orders})

	require.NoError(t, s.SetAmount(decimal.RequireFromString("50.00")))
	fillCustomer(t, s)
	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_mr"), Zip: str("77600")}))
	s.Settle()

	v := s.View()
	assert.Equal(t, CityLocked, v.CityMode)
	assert.Equal(t, "BUSSY SAINT GEORGES", v.Form.City)
	assert.Equal(t, RelayReady, v.RelayStatus)
	require.NotEmpty(t, v.RelayPoints)

	require.NoError(t, s.SelectRelay("MR-77002"))
	details, err := s.SubmitDetails()
	require.NoError(t, err)
	assert.Equal(t, "[MONDIAL_RELAY MR-77002] FLEURISTE DES PRES - 3 RUE JEAN JAURES", details.Address)
	assert.Equal(t, StepPayment, s.View().Step)
	assert.True(t, s.Total().Equal(decimal.RequireFromString("53.90")))

	order, err := s.Pay(context.Background(), PayRequest{Nonce: "fake-valid-nonce"})
	require.NoError(t, err)

	assert.True(t, order.Amount.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, order.ShippingCost.Equal(decimal.RequireFromString("3.90")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("53.90")))
	assert.Contains(t, order.ShippingAddress, "[MONDIAL_RELAY MR-77002]")
	assert.Equal(t, "BUSSY SAINT GEORGES", order.ShippingCity)
	assert.Equal(t, "77600", order.ShippingZip)
	assert.Equal(t, "Jeanne Martin", order.CustomerName)
	assert.Nil(t, order.ProductID)
	require.NotNil(t, order.RelayPoint.Data())
	assert.Equal(t, "MR-77002", order.RelayPoint.Data().ID)
	assert.Len(t, orders.orders, 1)

	v = s.View()
	assert.Equal(t, StepConfirmed, v.Step)
	require.NotNil(t, v.Order)

	err = s.SetAmount(decimal.NewFromInt(10))
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
	_, err = s.Pay(context.Background(), PayRequest{Nonce: "fake-valid-nonce"})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestSession_PostalCodeWithSeveralCities(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{})

	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))
	fillCustomer(t, s)
	require.NoError(t, s.UpdateDetails(DetailsPatch{
		ShippingMethodID: str("ship_home"),
		Address:          str("12 rue de Rivoli"),
		Zip:              str("75001"),
	}))
	s.Settle()

	v := s.View()
	assert.Equal(t, CityChoice, v.CityMode)
	assert.Equal(t, []string{"Paris", "Paris 01"}, v.CityChoices)
	assert.Empty(t, v.Form.City)

	_, err := s.SubmitDetails()
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "city")

	err = s.UpdateDetails(DetailsPatch{City: str("Lyon")})
	assert.True(t, apperr.IsKind(err, apperr.Invalid))

	require.NoError(t, s.UpdateDetails(DetailsPatch{City: str("Paris 01")}))
	details, err := s.SubmitDetails()
	require.NoError(t, err)
	assert.Equal(t, "Paris 01", details.City)
}

func TestSession_CityLockedAfterSingleMatch(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))
	require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str("77600")}))
	s.Settle()

	err := s.UpdateDetails(DetailsPatch{City: str("Elsewhere")})
	assert.True(t, apperr.IsKind(err, apperr.Invalid))

	// a new postal code unlocks the field again
	require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str("7760"), City: str("Elsewhere")}))
	v := s.View()
	assert.Equal(t, CityFree, v.CityMode)
	assert.Equal(t, "Elsewhere", v.Form.City)
}

func TestSession_CityLookupFailureLeavesCityEditable(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{Geo: &fakeGeo{err: errors.New("geo api down")}})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))
	require.NoError(t, s.UpdateDetails(DetailsPatch{City: str("Meaux"), Zip: str("77100")}))
	s.Settle()

	v := s.View()
	assert.Equal(t, CityFree, v.CityMode)
	assert.Empty(t, v.Form.City)

	require.NoError(t, s.UpdateDetails(DetailsPatch{City: str("Meaux")}))
	assert.Equal(t, "Meaux", s.View().Form.City)
}

func TestSession_RelayNotConfigured(t *testing.T) {
	m := testMerchant()
	m.MondialRelay.Enabled = false
	finder := &blockingFinder{}
	s := newTestSession(t, m, Deps{Relays: finder})

	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))
	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_mr"), Zip: str("77600")}))
	s.Settle()

	v := s.View()
	assert.Equal(t, RelayNotConfigured, v.RelayStatus)
	assert.Empty(t, v.RelayPoints)
	assert.Equal(t, 0, finder.callCount())
}

func TestSession_RelayStatuses(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))

	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_home")}))
	assert.Equal(t, RelayNone, s.View().RelayStatus)

	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_relay"), Zip: str("776")}))
	assert.Equal(t, RelayAwaitingZip, s.View().RelayStatus)

	require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str("77600")}))
	s.Settle()
	v := s.View()
	assert.Equal(t, RelayReady, v.RelayStatus)
	require.NotEmpty(t, v.RelayPoints)
	assert.Equal(t, model.ShippingChronopost, v.RelayPoints[0].Type)
}

func TestSession_MethodChangeClearsSelectedRelay(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))
	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_mr"), Zip: str("77600")}))
	s.Settle()
	require.NoError(t, s.SelectRelay("MR-77002"))
	assert.Equal(t, "MR-77002", s.View().SelectedRelayID)

	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_relay")}))
	v := s.View()
	assert.Empty(t, v.SelectedRelayID)
	assert.Empty(t, v.RelayPoints)

	s.Settle()
	assert.Error(t, s.SelectRelay("MR-77002"))
}

func TestSession_TotalFollowsMethodAfterBacktracking(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{})
	require.NoError(t, s.SetAmount(decimal.RequireFromString("50.00")))
	fillCustomer(t, s)
	require.NoError(t, s.UpdateDetails(DetailsPatch{
		ShippingMethodID: str("ship_home"),
		Address:          str("1 rue de la Paix"),
		Zip:              str("77600"),
	}))
	s.Settle()

	_, err := s.SubmitDetails()
	require.NoError(t, err)
	assert.True(t, s.Total().Equal(decimal.RequireFromString("62.90")))

	require.NoError(t, s.DismissPayment())
	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_mr")}))
	assert.True(t, s.Total().Equal(decimal.RequireFromString("53.90")))

	require.NoError(t, s.Back())
	require.NoError(t, s.SetAmount(decimal.NewFromInt(10)))
	assert.True(t, s.Total().Equal(decimal.RequireFromString("13.90")))
}

func TestSession_StepGuards(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{})

	assert.True(t, apperr.IsKind(s.Back(), apperr.Conflict))
	assert.True(t, apperr.IsKind(s.UpdateDetails(DetailsPatch{}), apperr.Conflict))
	assert.True(t, apperr.IsKind(s.DismissPayment(), apperr.Conflict))

	assert.True(t, apperr.IsKind(s.SetAmount(decimal.Zero), apperr.Invalid))
	assert.True(t, apperr.IsKind(s.SetAmount(decimal.NewFromInt(-5)), apperr.Invalid))
	assert.Equal(t, StepAmount, s.View().Step)
}

func TestSession_DeclinedPaymentStaysOnPaymentStep(t *testing.T) {
	orders := &fakeOrders{}
	s := newTestSession(t, testMerchant(), Deps{Orders: orders})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(30)))
	fillCustomer(t, s)
	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_home"), Address: str("1 rue"), Zip: str("77600")}))
	s.Settle()
	_, err := s.SubmitDetails()
	require.NoError(t, err)

	_, err = s.Pay(context.Background(), PayRequest{Nonce: "fake-declined-nonce"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.PaymentFailed))
	assert.Equal(t, "Your card was declined.", apperr.PublicMessage(err))
	assert.Equal(t, StepPayment, s.View().Step)
	assert.Empty(t, orders.orders)

	_, err = s.Pay(context.Background(), PayRequest{Nonce: "fake-valid-nonce"})
	require.NoError(t, err)
	assert.Equal(t, StepConfirmed, s.View().Step)
}

func TestSession_OrderFailureIsInternal(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{Orders: &fakeOrders{err: errors.New("db locked")}})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(30)))
	fillCustomer(t, s)
	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_home"), Address: str("1 rue"), Zip: str("77600")}))
	s.Settle()
	_, err := s.SubmitDetails()
	require.NoError(t, err)

	_, err = s.Pay(context.Background(), PayRequest{Nonce: "fake-valid-nonce"})
	assert.True(t, apperr.IsKind(err, apperr.Internal))
	assert.Equal(t, StepPayment, s.View().Step)
}

// blockingFinder parks lookups for blockZip until release is closed.
type blockingFinder struct {
	blockZip string
	started  chan struct{}
	release  chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *blockingFinder) Find(ctx context.Context, kind model.ShippingType, zip string, merchant *model.Merchant) ([]model.RelayPoint, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if zip == f.blockZip {
		close(f.started)
		<-f.release
	}
	return []model.RelayPoint{{ID: "P-" + zip, Name: "Point " + zip, Zip: zip, Type: kind}}, nil
}

func (f *blockingFinder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSession_StaleRelayResultIsDiscarded(t *testing.T) {
	finder := &blockingFinder{
		blockZip: "75001",
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	s := newTestSession(t, testMerchant(), Deps{Relays: finder})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))

	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_mr"), Zip: str("75001")}))
	<-finder.started

	require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str("77600")}))
	require.Eventually(t, func() bool {
		return s.View().RelayStatus == RelayReady
	}, time.Second, time.Millisecond)

	close(finder.release)
	s.Settle()

	v := s.View()
	require.Len(t, v.RelayPoints, 1)
	assert.Equal(t, "P-77600", v.RelayPoints[0].ID)
	assert.Equal(t, 2, finder.callCount())
}

// blockingGeo parks lookups for blockZip until release is closed.
type blockingGeo struct {
	cities   map[string][]string
	blockZip string
	started  chan struct{}
	release  chan struct{}
}

func (g *blockingGeo) LookupCities(ctx context.Context, zip string) ([]string, error) {
	if zip == g.blockZip {
		close(g.started)
		<-g.release
	}
	return g.cities[zip], nil
}

func TestSession_StaleCityResultIsDiscarded(t *testing.T) {
	geo := &blockingGeo{
		cities: map[string][]string{
			"75001": {"Paris", "Paris 01"},
			"77600": {"BUSSY SAINT GEORGES"},
		},
		blockZip: "75001",
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	s := newTestSession(t, testMerchant(), Deps{Geo: geo})
	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))

	require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str("75001")}))
	<-geo.started

	require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str("77600")}))
	require.Eventually(t, func() bool {
		return s.View().CityMode == CityLocked
	}, time.Second, time.Millisecond)

	close(geo.release)
	s.Settle()

	v := s.View()
	assert.Equal(t, CityLocked, v.CityMode)
	assert.Equal(t, "BUSSY SAINT GEORGES", v.Form.City)
	assert.Empty(t, v.CityChoices)
}

func TestSession_DetailsAreTrimmed(t *testing.T) {
	s := newTestSession(t, testMerchant(), Deps{})
	require.NoError(t, s.SetAmount(decimal.RequireFromString("50.00")))
	fillCustomer(t, s)

	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str(" ship_mr "), Zip: str("77600 ")}))
	s.Settle()

	v := s.View()
	assert.Equal(t, "77600", v.Form.Zip)
	assert.Equal(t, "ship_mr", v.Form.ShippingMethodID)
	assert.Equal(t, CityLocked, v.CityMode)
	assert.Equal(t, "BUSSY SAINT GEORGES", v.Form.City)
	require.Equal(t, RelayReady, v.RelayStatus)
	require.NotEmpty(t, v.RelayPoints)
	for _, p := range v.RelayPoints {
		assert.Equal(t, "77600", p.Zip)
		assert.Equal(t, "BUSSY SAINT GEORGES", p.City)
	}

	// same zip once trimmed: no new lookup, locked city accepted with padding
	require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str(" 77600"), City: str(" BUSSY SAINT GEORGES ")}))
	require.NoError(t, s.SelectRelay("MR-77002"))

	details, err := s.SubmitDetails()
	require.NoError(t, err)
	assert.Equal(t, "77600", details.Zip)
	assert.Equal(t, "BUSSY SAINT GEORGES", details.City)
}

func TestSession_DebounceCoalescesKeystrokes(t *testing.T) {
	finder := &blockingFinder{}
	s := newSessionWithDebounce(t, finder, 30*time.Millisecond)
	require.NoError(t, s.SetAmount(decimal.NewFromInt(20)))
	require.NoError(t, s.UpdateDetails(DetailsPatch{ShippingMethodID: str("ship_mr")}))
	for _, zip := range []string{"77601", "77602", "77603", "77600"} {
		require.NoError(t, s.UpdateDetails(DetailsPatch{Zip: str(zip)}))
	}
	s.Settle()

	assert.Equal(t, 1, finder.callCount())
	assert.Equal(t, "P-77600", s.View().RelayPoints[0].ID)
}

func newSessionWithDebounce(t *testing.T, finder shipping.RelayFinder, delay time.Duration) *Session {
	t.Helper()
	cfg := fastCheckout
	cfg.RelayDebounce = delay
	s := newSession(testMerchant(), cfg, Deps{
		Geo:      &fakeGeo{},
		Relays:   finder,
		Payments: payment.NewSimulatedGateway(0),
		Orders:   &fakeOrders{},
		Logger:   discardLogger(),
	}, time.Now)
	t.Cleanup(s.Close)
	return s
}
