package checkout

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/model"
	"checkout-builder/internal/shipping"
	"checkout-builder/internal/validation"
	"fmt"
	"slices"
	"strings"
)

const DefaultCountry = "France"

var Countries = []string{"France", "Belgique", "Suisse", "Luxembourg"}

var fieldValidator = validation.New()

// Form holds the DETAILS step fields as typed by the customer.
type Form struct {
	Reference        string `json:"reference"`
	Pseudo           string `json:"pseudo"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	City             string `json:"city"`
	Zip              string `json:"zip"`
	Country          string `json:"country"`
	ShippingMethodID string `json:"shipping_method_id"`
}

// ShippingDetails is the accepted outcome of the DETAILS step. When a relay
// point was chosen, Address, City and Zip describe the point.
type ShippingDetails struct {
	Reference        string            `json:"reference"`
	Pseudo           string            `json:"pseudo,omitempty"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Address          string            `json:"address"`
	City             string            `json:"city"`
	Zip              string            `json:"zip"`
	Country          string            `json:"country"`
	ShippingMethodID string            `json:"shipping_method_id"`
	RelayPoint       *model.RelayPoint `json:"relay_point,omitempty"`
}

// DetailsInput is everything ValidateDetails looks at.
type DetailsInput struct {
	Form        Form
	Merchant    *model.Merchant
	CityMode    CityMode
	CityChoices []string
	RelayPoint  *model.RelayPoint
}

// ValidateDetails checks the DETAILS step and returns the merged shipping
// details on success. Failures are apperr invalid errors keyed by json field.
func ValidateDetails(in DetailsInput) (ShippingDetails, error) {
	f := trimForm(in.Form)
	fields := map[string]string{}

	required := []struct{ key, value string }{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"zip", f.Zip},
		{"city", f.City},
	}
	for _, r := range required {
		if r.value == "" {
			fields[r.key] = "This field is required."
		}
	}

	if f.Email != "" && fieldValidator.Var(f.Email, "email") != nil {
		fields["email"] = "Enter a valid email address."
	}

	if f.City != "" && in.CityMode == CityChoice && !slices.Contains(in.CityChoices, f.City) {
		fields["city"] = "Select a city matching the postal code."
	}

	if f.Country == "" {
		f.Country = DefaultCountry
	}
	if !slices.Contains(Countries, f.Country) {
		fields["country"] = "Must be one of: " + strings.Join(Countries, ", ") + "."
	}

	kind := model.ShippingHome
	method, ok := lookupMethod(in.Merchant, f.ShippingMethodID)
	if !ok {
		fields["shipping_method_id"] = "Select a shipping method."
	} else {
		kind = shipping.ClassifyMethod(method)
	}

	if !kind.IsRelay() && f.Address == "" {
		fields["address"] = "This field is required."
	}

	if len(fields) > 0 {
		return ShippingDetails{}, apperr.InvalidErr("Some fields are invalid.", fields)
	}

	if kind.IsRelay() && in.RelayPoint == nil {
		return ShippingDetails{}, apperr.InvalidErr("Please select a relay point.", map[string]string{
			"relay_point_id": "Please select a relay point.",
		})
	}

	return MergeDetails(f, in.RelayPoint), nil
}

// MergeDetails turns form fields into shipping details, replacing the address
// with the relay point's when one is selected.
func MergeDetails(f Form, point *model.RelayPoint) ShippingDetails {
	d := ShippingDetails{
		Reference:        f.Reference,
		Pseudo:           f.Pseudo,
		FirstName:        f.FirstName,
		LastName:         f.LastName,
		Email:            f.Email,
		Phone:            f.Phone,
		Address:          f.Address,
		City:             f.City,
		Zip:              f.Zip,
		Country:          f.Country,
		ShippingMethodID: f.ShippingMethodID,
	}
	if d.Country == "" {
		d.Country = DefaultCountry
	}

	if point != nil {
		p := *point
		d.RelayPoint = &p
		d.Address = RelayAddress(p)
		d.City = p.City
		d.Zip = p.Zip
	}
	return d
}

// RelayAddress renders a relay point as "[TYPE id] name - address".
func RelayAddress(p model.RelayPoint) string {
	return fmt.Sprintf("[%s %s] %s - %s", p.Type, p.ID, p.Name, p.Address)
}

func lookupMethod(merchant *model.Merchant, id string) (*model.ShippingMethod, bool) {
	if merchant == nil || id == "" {
		return nil, false
	}
	m, ok := merchant.ShippingMethod(id)
	if !ok || !m.IsActive {
		return nil, false
	}
	return m, true
}

func trimForm(f Form) Form {
	for _, p := range []*string{
		&f.Reference, &f.Pseudo, &f.FirstName, &f.LastName, &f.Email, &f.Phone,
		&f.Address, &f.City, &f.Zip, &f.Country, &f.ShippingMethodID,
	} {
		*p = strings.TrimSpace(*p)
	}
	return f
}
