// Package checkout runs the customer side of a merchant storefront: a
// four-step wizard with debounced postal-code lookups.
package checkout

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/client"
	"checkout-builder/internal/config"
	"checkout-builder/internal/debounce"
	"checkout-builder/internal/model"
	"checkout-builder/internal/payment"
	"checkout-builder/internal/shipping"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Step string

const (
	StepAmount    Step = "AMOUNT"
	StepDetails   Step = "DETAILS"
	StepPayment   Step = "PAYMENT"
	StepConfirmed Step = "CONFIRMED"
)

// CityMode tells the form how the city field may be edited.
type CityMode string

const (
	CityFree   CityMode = "FREE"   // typed freely
	CityLocked CityMode = "LOCKED" // single match, read-only
	CityChoice CityMode = "CHOICE" // one of CityChoices
)

type RelayStatus string

const (
	RelayNone          RelayStatus = "NONE"
	RelayAwaitingZip   RelayStatus = "AWAITING_ZIP"
	RelayNotConfigured RelayStatus = "NOT_CONFIGURED"
	RelayLoading       RelayStatus = "LOADING"
	RelayReady         RelayStatus = "READY"
)

const freeAmountProductName = "Custom amount"

// OrderCreator persists the order of a paid checkout.
type OrderCreator interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
}

type Deps struct {
	Geo      client.GeoClient
	Relays   shipping.RelayFinder
	Payments payment.Gateway
	Orders   OrderCreator
	Logger   *slog.Logger
}

// DetailsPatch carries the DETAILS fields to change; nil means unchanged.
type DetailsPatch struct {
	Reference        *string `json:"reference"`
	Pseudo           *string `json:"pseudo"`
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	City             *string `json:"city"`
	Zip              *string `json:"zip"`
	Country          *string `json:"country"`
	ShippingMethodID *string `json:"shipping_method_id"`
}

type PayRequest struct {
	Nonce string `json:"nonce"`
}

// Session is one customer's checkout on one storefront. All methods are safe
// for concurrent use.
type Session struct {
	id       string
	merchant *model.Merchant
	deps     Deps
	timeout  time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	cityDebounce  *debounce.Debouncer
	relayDebounce *debounce.Debouncer

	mu          sync.Mutex
	step        Step
	amount      decimal.Decimal
	form        Form
	cityMode    CityMode
	cityChoices []string
	citySeq     uint64
	relayStatus RelayStatus
	relayPoints []model.RelayPoint
	relayID     string
	relaySeq    uint64
	details     *ShippingDetails
	order       *model.Order
	paying      bool
	closed      bool
	lastActive  time.Time
}

func newSession(merchant *model.Merchant, cfg config.Checkout, deps Deps, now func() time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:            uuid.NewString(),
		merchant:      snapshotMerchant(merchant),
		deps:          deps,
		timeout:       cfg.LookupTimeout,
		now:           now,
		ctx:           ctx,
		cancel:        cancel,
		cityDebounce:  debounce.New(cfg.CityDebounce),
		relayDebounce: debounce.New(cfg.RelayDebounce),
		step:          StepAmount,
		amount:        decimal.Zero,
		form:          Form{Country: DefaultCountry},
		cityMode:      CityFree,
		relayStatus:   RelayNone,
		lastActive:    now(),
	}
	if methods := s.merchant.ActiveShippingMethods(); len(methods) > 0 {
		s.form.ShippingMethodID = methods[0].ID
	}
	s.refreshRelayLocked()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) MerchantID() string { return s.merchant.ID }

// SetAmount records the amount to pay and opens the DETAILS step. It is
// accepted again from DETAILS to change the amount.
func (s *Session) SetAmount(amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepAmount, StepDetails); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return apperr.InvalidErr("Please enter a valid amount.", map[string]string{
			"amount": "Must be greater than 0.",
		})
	}

	s.amount = amount.Round(2)
	s.step = StepDetails
	return nil
}

// Back returns from DETAILS to AMOUNT keeping the form.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepDetails); err != nil {
		return err
	}
	s.step = StepAmount
	return nil
}

// UpdateDetails applies patch to the form. A postal code change schedules
// the city lookup; a postal code or method change resets the relay points
// and schedules a relay lookup when the method needs one.
func (s *Session) UpdateDetails(patch DetailsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepDetails); err != nil {
		return err
	}
	patch = trimPatch(patch)

	zipChanged := patch.Zip != nil && *patch.Zip != s.form.Zip
	methodChanged := patch.ShippingMethodID != nil && *patch.ShippingMethodID != s.form.ShippingMethodID

	if methodChanged {
		if _, ok := lookupMethod(s.merchant, *patch.ShippingMethodID); !ok {
			return apperr.InvalidErr("Some fields are invalid.", map[string]string{
				"shipping_method_id": "Select a shipping method.",
			})
		}
	}

	if patch.City != nil && !zipChanged {
		if err := s.checkCityLocked(*patch.City); err != nil {
			return err
		}
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.form.Reference, patch.Reference)
	set(&s.form.Pseudo, patch.Pseudo)
	set(&s.form.FirstName, patch.FirstName)
	set(&s.form.LastName, patch.LastName)
	set(&s.form.Email, patch.Email)
	set(&s.form.Phone, patch.Phone)
	set(&s.form.Address, patch.Address)
	set(&s.form.City, patch.City)
	set(&s.form.Zip, patch.Zip)
	set(&s.form.Country, patch.Country)
	set(&s.form.ShippingMethodID, patch.ShippingMethodID)

	if zipChanged {
		s.scheduleCityLocked()
	}
	if zipChanged || methodChanged {
		s.refreshRelayLocked()
	}
	return nil
}

func trimPatch(p DetailsPatch) DetailsPatch {
	for _, f := range []**string{
		&p.Reference, &p.Pseudo, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.Address, &p.City, &p.Zip, &p.Country, &p.ShippingMethodID,
	} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return p
}

func (s *Session) checkCityLocked(city string) error {
	switch s.cityMode {
	case CityLocked:
		if city != s.form.City {
			return apperr.InvalidErr("Some fields are invalid.", map[string]string{
				"city": "The city is set from the postal code.",
			})
		}
	case CityChoice:
		if city != "" && !slices.Contains(s.cityChoices, city) {
			return apperr.InvalidErr("Some fields are invalid.", map[string]string{
				"city": "Select a city matching the postal code.",
			})
		}
	}
	return nil
}

// SelectRelay picks one of the loaded relay points. An empty id clears the
// selection.
func (s *Session) SelectRelay(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepDetails); err != nil {
		return err
	}
	if id == "" {
		s.relayID = ""
		return nil
	}
	if s.findRelayLocked(id) == nil {
		return apperr.InvalidErr("Some fields are invalid.", map[string]string{
			"relay_point_id": "Unknown relay point.",
		})
	}
	s.relayID = id
	return nil
}

// SubmitDetails validates the form and opens the payment step.
func (s *Session) SubmitDetails() (ShippingDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepDetails); err != nil {
		return ShippingDetails{}, err
	}

	details, err := ValidateDetails(DetailsInput{
		Form:        s.form,
		Merchant:    s.merchant,
		CityMode:    s.cityMode,
		CityChoices: s.cityChoices,
		RelayPoint:  s.findRelayLocked(s.relayID),
	})
	if err != nil {
		return ShippingDetails{}, err
	}

	s.details = &details
	s.step = StepPayment
	return details, nil
}

// DismissPayment closes the payment step and returns to DETAILS.
func (s *Session) DismissPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepPayment); err != nil {
		return err
	}
	if s.paying {
		return apperr.ConflictErr("A payment is already in progress.")
	}
	s.step = StepDetails
	return nil
}

// Pay tokenizes the nonce, settles the total and records the order. On
// failure the session stays on the payment step so the customer can retry.
func (s *Session) Pay(ctx context.Context, req PayRequest) (*model.Order, error) {
	s.mu.Lock()
	if err := s.expectLocked(StepPayment); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.paying {
		s.mu.Unlock()
		return nil, apperr.ConflictErr("A payment is already in progress.")
	}
	s.paying = true
	details := *s.details
	amount := s.amount
	shippingCost := s.shippingCostLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.paying = false
		s.mu.Unlock()
	}()

	logger := s.deps.Logger.With("session_id", s.id, "merchant_id", s.merchant.ID)
	total := amount.Add(shippingCost)

	token, err := s.deps.Payments.Tokenize(ctx, payment.TokenizeRequest{
		Nonce:     req.Nonce,
		FirstName: details.FirstName,
		LastName:  details.LastName,
		Email:     details.Email,
	})
	if err != nil {
		logger.WarnContext(ctx, "payment tokenization failed", "error", err)
		return nil, asPaymentErr(err)
	}

	txRef, err := s.deps.Payments.Settle(ctx, token, total)
	if err != nil {
		logger.WarnContext(ctx, "payment settlement failed", "error", err)
		return nil, asPaymentErr(err)
	}

	order, err := s.deps.Orders.Create(ctx, buildOrder(s.merchant.ID, amount, shippingCost, details, txRef))
	if err != nil {
		logger.ErrorContext(ctx, "order creation failed", "payment_reference", txRef, "error", err)
		return nil, apperr.Wrap(fmt.Errorf("create order: %w", err))
	}

	s.mu.Lock()
	s.order = order
	s.step = StepConfirmed
	s.mu.Unlock()

	logger.InfoContext(ctx, "checkout confirmed", "order_number", order.OrderNumber, "total", order.TotalAmount.String())
	return order, nil
}

func asPaymentErr(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.PaymentErr("Payment could not be processed, please try again.", err)
}

func buildOrder(merchantID string, amount, shippingCost decimal.Decimal, d ShippingDetails, txRef string) *model.Order {
	o := &model.Order{
		MerchantID:       merchantID,
		ProductName:      freeAmountProductName,
		Amount:           amount,
		ShippingCost:     shippingCost,
		CustomerName:     d.FirstName + " " + d.LastName,
		CustomerEmail:    d.Email,
		CustomerPhone:    d.Phone,
		ShippingAddress:  d.Address,
		ShippingCity:     d.City,
		ShippingZip:      d.Zip,
		ShippingCountry:  d.Country,
		ShippingMethodID: d.ShippingMethodID,
		Reference:        d.Reference,
		Pseudo:           d.Pseudo,
		PaymentReference: txRef,
	}
	if d.RelayPoint != nil {
		p := *d.RelayPoint
		o.RelayPoint = datatypes.NewJSONType(&p)
	}
	return o
}

// Total is the amount plus the price of the currently selected method.
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amount.Add(s.shippingCostLocked())
}

func (s *Session) shippingCostLocked() decimal.Decimal {
	if m, ok := lookupMethod(s.merchant, s.form.ShippingMethodID); ok {
		return m.Price
	}
	return decimal.Zero
}

// Settle blocks until debounced lookups scheduled so far have run.
func (s *Session) Settle() {
	s.cityDebounce.Wait()
	s.relayDebounce.Wait()
}

// Close stops pending lookups and cancels in-flight ones. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cityDebounce.Stop()
	s.relayDebounce.Stop()
	s.cancel()
}

// idleBefore reports whether the session saw no call since deadline. A
// session with a payment in flight is never idle.
func (s *Session) idleBefore(deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.paying && s.lastActive.Before(deadline)
}

// expectLocked checks the current step and marks the session active.
func (s *Session) expectLocked(steps ...Step) error {
	s.lastActive = s.now()

	if s.closed {
		return apperr.NotFoundErr("Checkout session has expired.")
	}
	if s.step == StepConfirmed {
		return apperr.ConflictErr("This checkout is already complete.")
	}
	if !slices.Contains(steps, s.step) {
		return apperr.ConflictErr(fmt.Sprintf("Action not allowed on the %s step.", s.step))
	}
	return nil
}

func (s *Session) findRelayLocked(id string) *model.RelayPoint {
	if id == "" {
		return nil
	}
	for i := range s.relayPoints {
		if s.relayPoints[i].ID == id {
			p := s.relayPoints[i]
			return &p
		}
	}
	return nil
}

func (s *Session) scheduleCityLocked() {
	s.citySeq++
	seq := s.citySeq
	zip := s.form.Zip

	s.cityMode = CityFree
	s.cityChoices = nil

	if !IsPostalCode(zip) {
		s.cityDebounce.Cancel()
		return
	}
	s.cityDebounce.Trigger(func() { s.lookupCities(seq, zip) })
}

func (s *Session) lookupCities(seq uint64, zip string) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	cities, err := s.deps.Geo.LookupCities(ctx, zip)
	if err != nil {
		s.deps.Logger.Warn("city lookup failed", "session_id", s.id, "postal_code", zip, "error", err)
		cities = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.citySeq {
		return
	}

	switch len(cities) {
	case 0:
		s.form.City = ""
		s.cityMode = CityFree
		s.cityChoices = nil
	case 1:
		s.form.City = cities[0]
		s.cityMode = CityLocked
		s.cityChoices = nil
	default:
		s.cityMode = CityChoice
		s.cityChoices = cities
		if !slices.Contains(cities, s.form.City) {
			s.form.City = ""
		}
	}
}

func (s *Session) refreshRelayLocked() {
	s.relaySeq++
	seq := s.relaySeq
	zip := s.form.Zip

	s.relayPoints = nil
	s.relayID = ""

	kind := model.ShippingHome
	if m, ok := lookupMethod(s.merchant, s.form.ShippingMethodID); ok {
		kind = shipping.ClassifyMethod(m)
	}

	switch {
	case !kind.IsRelay():
		s.relayDebounce.Cancel()
		s.relayStatus = RelayNone
	case !shipping.CarrierEnabled(kind, s.merchant):
		s.relayDebounce.Cancel()
		s.relayStatus = RelayNotConfigured
	case len(zip) < 5:
		s.relayDebounce.Cancel()
		s.relayStatus = RelayAwaitingZip
	default:
		s.relayStatus = RelayLoading
		s.relayDebounce.Trigger(func() { s.lookupRelays(seq, kind, zip) })
	}
}

func (s *Session) lookupRelays(seq uint64, kind model.ShippingType, zip string) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	status := RelayReady
	points, err := s.deps.Relays.Find(ctx, kind, zip, s.merchant)
	if err != nil {
		s.deps.Logger.Warn("relay lookup failed", "session_id", s.id, "carrier", kind, "postal_code", zip, "error", err)
		points = nil
		if errors.Is(err, shipping.ErrNotConfigured) || errors.Is(err, client.ErrCarrierNotConfigured) {
			status = RelayNotConfigured
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.relaySeq {
		return
	}
	s.relayStatus = status
	s.relayPoints = points
}

// IsPostalCode reports whether zip is exactly five ASCII digits.
func IsPostalCode(zip string) bool {
	if len(zip) != 5 {
		return false
	}
	for i := 0; i < len(zip); i++ {
		if zip[i] < '0' || zip[i] > '9' {
			return false
		}
	}
	return true
}

func snapshotMerchant(m *model.Merchant) *model.Merchant {
	cp := *m
	cp.ShippingMethods = slices.Clone(m.ShippingMethods)
	return &cp
}
