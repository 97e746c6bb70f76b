package main

import (
	"checkout-builder/internal/checkout"
	"checkout-builder/internal/client"
	"checkout-builder/internal/model"
	"checkout-builder/internal/repository"
	"checkout-builder/internal/service"
	"checkout-builder/internal/shipping"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func relayCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Query carrier relay points",
	}

	search := &cobra.Command{
		Use:   "search <chronopost|mondial-relay> <zip>",
		Short: "List relay points near a postal code",
		Long: `List relay points of a carrier near a French postal code. With
--merchant the merchant's carrier settings are used, otherwise the
carrier is queried with demo credentials.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseCarrier(args[0])
			if err != nil {
				return err
			}
			zip := args[1]
			if !checkout.IsPostalCode(zip) {
				return fmt.Errorf("%q is not a 5-digit postal code", zip)
			}

			merchant, err := relayMerchant(cmd, rt)
			if err != nil {
				return err
			}

			finder := shipping.NewRelayFinder(
				client.NewChronopostClient(&rt.cfg.Chronopost, rt.logger),
				client.NewMondialRelayClient(&rt.cfg.MondialRelay, rt.logger),
			)
			points, err := finder.Find(cmd.Context(), kind, zip, merchant)
			if errors.Is(err, shipping.ErrNotConfigured) {
				return fmt.Errorf("%s is not enabled for this merchant", strings.ToLower(string(kind)))
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS")
			for _, p := range points {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, checkout.RelayAddress(p))
			}
			return w.Flush()
		},
	}
	search.Flags().StringP("merchant", "m", "", "Use this merchant's carrier settings (subdomain)")

	cmd.AddCommand(search)
	return cmd
}

func parseCarrier(s string) (model.ShippingType, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "-")) {
	case "chronopost":
		return model.ShippingChronopost, nil
	case "mondial-relay", "mondialrelay", "mr":
		return model.ShippingMondialRelay, nil
	default:
		return "", fmt.Errorf("unknown carrier %q (want chronopost or mondial-relay)", s)
	}
}

func relayMerchant(cmd *cobra.Command, rt *runtime) (*model.Merchant, error) {
	subdomain, _ := cmd.Flags().GetString("merchant")
	if subdomain == "" {
		return &model.Merchant{
			Chronopost:   model.ChronopostConfig{Enabled: true, AccountNumber: "19869502", Password: "255562"},
			MondialRelay: model.MondialRelayConfig{Enabled: true, Enseigne: "BDTEST13", PrivateKey: "PrivateK"},
		}, nil
	}

	db, err := rt.DB()
	if err != nil {
		return nil, err
	}
	merchant, err := repository.NewMerchantRepository(db).FindBySubdomain(cmd.Context(), service.NormalizeSubdomain(subdomain))
	if err != nil {
		return nil, fmt.Errorf("merchant %q: %w", subdomain, err)
	}
	return merchant, nil
}

func citiesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cities <zip>",
		Short: "Resolve a postal code to city names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !checkout.IsPostalCode(args[0]) {
				return fmt.Errorf("%q is not a 5-digit postal code", args[0])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Checkout.LookupTimeout)
			defer cancel()

			cities, err := client.NewGeoClient(&rt.cfg.Geo).LookupCities(ctx, args[0])
			if err != nil {
				return err
			}
			if len(cities) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no city found")
				return nil
			}
			for _, c := range cities {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <method name> [method id]",
		Short: "Show the delivery kind of a shipping method",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			var id string
			if len(args) == 2 {
				id = args[1]
			}
			fmt.Fprintln(cmd.OutOrStdout(), shipping.Classify(args[0], id))
		},
	}
}
