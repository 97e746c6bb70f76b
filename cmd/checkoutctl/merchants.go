package main

import (
	"checkout-builder/internal/model"
	"checkout-builder/internal/repository"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func merchantsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "merchants",
		Short: "List merchants with their storefront and carriers",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rt.DB()
			if err != nil {
				return err
			}

			merchants, err := repository.NewMerchantRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tSUBDOMAIN\tCOMPANY\tMETHODS\tCARRIERS")
			for _, m := range merchants {
				subdomain := "-"
				if m.Onboarded() {
					subdomain = *m.Subdomain
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					m.Email,
					subdomain,
					m.CompanyName,
					len(m.ActiveShippingMethods()),
					carriers(m),
				)
			}
			return w.Flush()
		},
	}
}

func carriers(m *model.Merchant) string {
	switch {
	case m.Chronopost.Enabled && m.MondialRelay.Enabled:
		return "chronopost,mondial-relay"
	case m.Chronopost.Enabled:
		return "chronopost"
	case m.MondialRelay.Enabled:
		return "mondial-relay"
	default:
		return "-"
	}
}
