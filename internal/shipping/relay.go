package shipping

import (
	"checkout-builder/internal/client"
	"checkout-builder/internal/model"
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("relay service not configured")
	ErrNotRelay      = errors.New("shipping type has no relay points")
)

// RelayFinder searches pickup points of the carrier behind a shipping type.
type RelayFinder interface {
	Find(ctx context.Context, kind model.ShippingType, zipCode string, merchant *model.Merchant) ([]model.RelayPoint, error)
}

// CarrierEnabled reports whether the merchant switched on the carrier
// matching kind.
func CarrierEnabled(kind model.ShippingType, merchant *model.Merchant) bool {
	if merchant == nil {
		return false
	}
	switch kind {
	case model.ShippingChronopost:
		return merchant.Chronopost.Enabled
	case model.ShippingMondialRelay:
		return merchant.MondialRelay.Enabled
	default:
		return false
	}
}

type relayFinderImpl struct {
	chronopost   client.ChronopostClient
	mondialRelay client.MondialRelayClient
}

func NewRelayFinder(chronopost client.ChronopostClient, mondialRelay client.MondialRelayClient) RelayFinder {
	return &relayFinderImpl{
		chronopost:   chronopost,
		mondialRelay: mondialRelay,
	}
}

func (f *relayFinderImpl) Find(ctx context.Context, kind model.ShippingType, zipCode string, merchant *model.Merchant) ([]model.RelayPoint, error) {
	if !kind.IsRelay() {
		return nil, ErrNotRelay
	}
	if !CarrierEnabled(kind, merchant) {
		return nil, ErrNotConfigured
	}

	switch kind {
	case model.ShippingChronopost:
		points, err := f.chronopost.SearchRelayPoints(ctx, zipCode, merchant.Chronopost)
		if err != nil {
			return nil, fmt.Errorf("search chronopost points: %w", err)
		}
		out := make([]model.RelayPoint, len(points))
		for i, p := range points {
			out[i] = model.RelayPoint{ID: p.ID, Name: p.Name, Address: p.Address1, City: p.Locality, Zip: p.PostalCode, Type: model.ShippingChronopost}
		}
		return out, nil

	default:
		points, err := f.mondialRelay.SearchPoints(ctx, zipCode, merchant.MondialRelay)
		if err != nil {
			return nil, fmt.Errorf("search mondial relay points: %w", err)
		}
		out := make([]model.RelayPoint, len(points))
		for i, p := range points {
			out[i] = model.RelayPoint{ID: p.ID, Name: p.Name, Address: p.Address, City: p.City, Zip: p.ZipCode, Type: model.ShippingMondialRelay}
		}
		return out, nil
	}
}
