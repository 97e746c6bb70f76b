package checkout

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/payment"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(ttl time.Duration) *Manager {
	cfg := fastCheckout
	cfg.SessionTTL = ttl
	return NewManager(cfg, Deps{
		Geo:      &fakeGeo{},
		Relays:   carrierFinder(),
		Payments: payment.NewSimulatedGateway(0),
		Orders:   &fakeOrders{},
		Logger:   discardLogger(),
	})
}

func TestManager_StartAndGet(t *testing.T) {
	m := newTestManager(time.Minute)
	defer m.Close()

	s, err := m.Start(testMerchant())
	require.NoError(t, err)

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, "merchant-1", got.MerchantID())

	_, err = m.Get("missing")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := newTestManager(time.Minute)
	defer m.Close()

	a, err := m.Start(testMerchant())
	require.NoError(t, err)
	b, err := m.Start(testMerchant())
	require.NoError(t, err)

	require.NoError(t, a.SetAmount(decimal.NewFromInt(10)))
	assert.Equal(t, StepDetails, a.View().Step)
	assert.Equal(t, StepAmount, b.View().Step)
}

func TestManager_SessionSnapshotsMerchant(t *testing.T) {
	m := newTestManager(time.Minute)
	defer m.Close()

	merchant := testMerchant()
	s, err := m.Start(merchant)
	require.NoError(t, err)

	merchant.ShippingMethods[0].Price = decimal.NewFromInt(99)
	require.NoError(t, s.SetAmount(decimal.NewFromInt(10)))
	assert.True(t, s.Total().Equal(decimal.RequireFromString("14.50")))
}

func TestManager_SweepExpiresIdleSessions(t *testing.T) {
	m := newTestManager(time.Minute)
	defer m.Close()

	now := time.Now()
	m.now = func() time.Time { return now }

	idle, err := m.Start(testMerchant())
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	active, err := m.Start(testMerchant())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(idle.ID())
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	assert.True(t, apperr.IsKind(idle.SetAmount(decimal.NewFromInt(1)), apperr.NotFound))

	_, err = m.Get(active.ID())
	assert.NoError(t, err)
}

func TestManager_CloseRejectsNewSessions(t *testing.T) {
	m := newTestManager(time.Minute)

	s, err := m.Start(testMerchant())
	require.NoError(t, err)
	m.Close()

	assert.Equal(t, 0, m.Len())
	assert.True(t, apperr.IsKind(s.SetAmount(decimal.NewFromInt(1)), apperr.NotFound))

	_, err = m.Start(testMerchant())
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestManager_ReadingKeepsSessionAlive(t *testing.T) {
	m := newTestManager(time.Minute)
	defer m.Close()

	now := time.Now()
	m.now = func() time.Time { return now }

	s, err := m.Start(testMerchant())
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	s.View()

	now = now.Add(45 * time.Second)
	assert.Equal(t, 0, m.Sweep())

	_, err = m.Get(s.ID())
	assert.NoError(t, err)
}

func TestManager_SweepSkipsPaymentInFlight(t *testing.T) {
	m := newTestManager(time.Minute)
	defer m.Close()

	now := time.Now()
	m.now = func() time.Time { return now }

	s, err := m.Start(testMerchant())
	require.NoError(t, err)

	s.mu.Lock()
	s.paying = true
	s.mu.Unlock()

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, m.Sweep())

	s.mu.Lock()
	s.paying = false
	s.mu.Unlock()
	assert.Equal(t, 1, m.Sweep())
}

func TestManager_RemoveClosesSession(t *testing.T) {
	m := newTestManager(time.Minute)
	defer m.Close()

	s, err := m.Start(testMerchant())
	require.NoError(t, err)

	m.Remove(s.ID())
	assert.Equal(t, 0, m.Len())
	assert.True(t, apperr.IsKind(s.SetAmount(decimal.NewFromInt(1)), apperr.NotFound))

	_, err = m.Get(s.ID())
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	m.Remove(s.ID())
}
