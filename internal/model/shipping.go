package model

// ShippingType is the delivery kind derived from a merchant's shipping method.
type ShippingType string

const (
	ShippingHome         ShippingType = "HOME"
	ShippingChronopost   ShippingType = "CHRONOPOST"
	ShippingMondialRelay ShippingType = "MONDIAL_RELAY"
)

// Method ids with a fixed carrier meaning regardless of their display name.
const (
	ReservedChronopostMethodID   = "ship_relay"
	ReservedMondialRelayMethodID = "ship_mr"
)

func (t ShippingType) IsRelay() bool {
	return t == ShippingChronopost || t == ShippingMondialRelay
}

// RelayPoint is the carrier-agnostic shape of a pickup location.
type RelayPoint struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Address string       `json:"address"`
	City    string       `json:"city"`
	Zip     string       `json:"zip"`
	Type    ShippingType `json:"type"`
}
