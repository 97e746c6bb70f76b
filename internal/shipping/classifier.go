// Package shipping derives delivery kinds from merchant shipping methods and
// resolves relay points through the carrier adapters.
package shipping

import (
	"checkout-builder/internal/model"
	"strings"
)

// Classify maps a shipping method to its delivery kind. Rules are checked in
// priority order; anything unrecognized is home delivery.
func Classify(name, id string) model.ShippingType {
	n := strings.ToLower(name)

	switch {
	case strings.Contains(n, "domicile"):
		return model.ShippingHome
	case id == model.ReservedMondialRelayMethodID || strings.Contains(n, "mondial"):
		return model.ShippingMondialRelay
	case id == model.ReservedChronopostMethodID || strings.Contains(n, "chronopost") || strings.Contains(n, "relais"):
		return model.ShippingChronopost
	default:
		return model.ShippingHome
	}
}

func ClassifyMethod(m *model.ShippingMethod) model.ShippingType {
	if m == nil {
		return model.ShippingHome
	}
	return Classify(m.Name, m.ID)
}
