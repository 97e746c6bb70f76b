package main

import (
	"checkout-builder/internal/checkout"
	"checkout-builder/internal/client"
	"checkout-builder/internal/payment"
	"checkout-builder/internal/repository"
	"checkout-builder/internal/service"
	"checkout-builder/internal/shipping"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func checkoutCmd(rt *runtime) *cobra.Command {
	var (
		subdomain string
		amount    string
		methodID  string
		relayID   string
		nonce     string
		form      checkout.Form
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Run a checkout against a storefront and record the order",
		Long: `Walk a storefront checkout from amount to confirmation using the
configured payment provider. Postal-code lookups run as they do on the
checkout page; when several cities match and --city is empty the first
one is taken, and when the method uses relay points and --relay is empty
the first point found is selected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			db, err := rt.DB()
			if err != nil {
				return err
			}

			merchants := service.NewMerchantService(
				repository.NewMerchantRepository(db),
				service.NewTokenService(rt.cfg.Auth),
				client.NewChronopostClient(&rt.cfg.Chronopost, rt.logger),
				rt.logger,
			)
			merchant, err := merchants.GetStorefront(ctx, subdomain)
			if err != nil {
				return err
			}

			var bt client.BraintreeClient
			if rt.cfg.Payment.Provider == payment.ProviderBraintree {
				bt = client.NewBraintreeClient(&rt.cfg.BrainTree)
			}
			gateway, err := payment.New(&rt.cfg.Payment, bt, rt.logger)
			if err != nil {
				return err
			}

			sessions := checkout.NewManager(rt.cfg.Checkout, checkout.Deps{
				Geo: client.NewGeoClient(&rt.cfg.Geo),
				Relays: shipping.NewRelayFinder(
					client.NewChronopostClient(&rt.cfg.Chronopost, rt.logger),
					client.NewMondialRelayClient(&rt.cfg.MondialRelay, rt.logger),
				),
				Payments: gateway,
				Orders:   service.NewOrderService(repository.NewOrderRepository(db), rt.logger),
				Logger:   rt.logger,
			})
			defer sessions.Close()

			s, err := sessions.Start(merchant)
			if err != nil {
				return err
			}
			if err := s.SetAmount(value); err != nil {
				return err
			}

			patch := checkout.DetailsPatch{
				Reference: &form.Reference,
				Pseudo:    &form.Pseudo,
				FirstName: &form.FirstName,
				LastName:  &form.LastName,
				Email:     &form.Email,
				Phone:     &form.Phone,
				Address:   &form.Address,
				City:      &form.City,
				Zip:       &form.Zip,
				Country:   &form.Country,
			}
			if methodID != "" {
				patch.ShippingMethodID = &methodID
			}
			if err := s.UpdateDetails(patch); err != nil {
				return err
			}
			s.Settle()

			view := s.View()
			var city string
			switch {
			case view.CityMode == checkout.CityChoice && form.City == "":
				city = view.CityChoices[0]
			case view.Form.City == "" && form.City != "":
				// the lookup clears a typed city it could not confirm
				city = form.City
			}
			if city != "" {
				if err := s.UpdateDetails(checkout.DetailsPatch{City: &city}); err != nil {
					return err
				}
			}
			if view.RelayStatus == checkout.RelayReady && len(view.RelayPoints) > 0 {
				id := relayID
				if id == "" {
					id = view.RelayPoints[0].ID
				}
				if err := s.SelectRelay(id); err != nil {
					return err
				}
			}

			details, err := s.SubmitDetails()
			if err != nil {
				return err
			}

			order, err := s.Pay(ctx, checkout.PayRequest{Nonce: nonce})
			if err != nil {
				return err
			}
			sessions.Remove(s.ID())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %s confirmed\n", order.OrderNumber)
			fmt.Fprintf(out, "  Amount:   %s\n", order.Amount.StringFixed(2))
			fmt.Fprintf(out, "  Shipping: %s\n", order.ShippingCost.StringFixed(2))
			fmt.Fprintf(out, "  Total:    %s\n", order.TotalAmount.StringFixed(2))
			fmt.Fprintf(out, "  Ship to:  %s, %s %s\n", details.Address, details.Zip, details.City)
			fmt.Fprintf(out, "  Payment:  %s\n", order.PaymentReference)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&subdomain, "merchant", "m", "", "Storefront subdomain")
	f.StringVarP(&amount, "amount", "a", "", "Amount to pay, e.g. 49.90")
	f.StringVar(&methodID, "method", "", "Shipping method id (defaults to the first active one)")
	f.StringVar(&relayID, "relay", "", "Relay point id")
	f.StringVar(&nonce, "nonce", "fake-valid-nonce", "Payment nonce")
	f.StringVar(&form.FirstName, "first-name", "", "Customer first name")
	f.StringVar(&form.LastName, "last-name", "", "Customer last name")
	f.StringVar(&form.Email, "email", "", "Customer email")
	f.StringVar(&form.Phone, "phone", "", "Customer phone")
	f.StringVar(&form.Address, "address", "", "Street address")
	f.StringVar(&form.City, "city", "", "City")
	f.StringVar(&form.Zip, "zip", "", "Postal code")
	f.StringVar(&form.Country, "country", checkout.DefaultCountry, "Country")
	f.StringVar(&form.Reference, "reference", "", "Order reference")
	f.StringVar(&form.Pseudo, "pseudo", "", "Customer pseudo")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
