package main

import (
	"checkout-builder/internal/model"
	"checkout-builder/internal/repository"
	"checkout-builder/internal/service"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func ordersCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect a merchant's orders",
	}
	cmd.PersistentFlags().StringP("merchant", "m", "", "Merchant subdomain")
	_ = cmd.MarkPersistentFlagRequired("merchant")

	cmd.AddCommand(ordersListCmd(rt))
	cmd.AddCommand(ordersStatsCmd(rt))
	return cmd
}

func ordersListCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			merchant, orders, err := merchantOrders(cmd, rt)
			if err != nil {
				return err
			}

			since, _ := cmd.Flags().GetDuration("since")
			var list []*model.Order
			if since > 0 {
				list, err = orders.ListSince(cmd.Context(), merchant.ID, time.Now().Add(-since))
			} else {
				list, err = orders.List(cmd.Context(), merchant.ID)
			}
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tDATE\tCUSTOMER\tTOTAL\tSHIP TO")
			for _, o := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					o.OrderNumber,
					o.CreatedAt.Format("2006-01-02 15:04"),
					o.CustomerName,
					o.TotalAmount.StringFixed(2),
					strings.TrimSpace(o.ShippingZip+" "+o.ShippingCity),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Duration("since", 0, "Only orders placed within this duration (e.g. 24h)")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func ordersStatsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Revenue, order count and daily revenue",
		RunE: func(cmd *cobra.Command, args []string) error {
			merchant, orders, err := merchantOrders(cmd, rt)
			if err != nil {
				return err
			}

			stats, err := orders.Stats(cmd.Context(), merchant.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Revenue:       %s\n", stats.Revenue.StringFixed(2))
			fmt.Fprintf(out, "Orders:        %d\n", stats.OrderCount)
			fmt.Fprintf(out, "Average order: %s\n", stats.AverageValue.StringFixed(2))
			for _, d := range stats.Daily {
				fmt.Fprintf(out, "  %s  %s\n", d.Date, d.Amount.StringFixed(2))
			}
			return nil
		},
	}
}

func merchantOrders(cmd *cobra.Command, rt *runtime) (*model.Merchant, service.OrderService, error) {
	subdomain, _ := cmd.Flags().GetString("merchant")

	db, err := rt.DB()
	if err != nil {
		return nil, nil, err
	}

	merchant, err := repository.NewMerchantRepository(db).FindBySubdomain(cmd.Context(), service.NormalizeSubdomain(subdomain))
	if err != nil {
		return nil, nil, fmt.Errorf("merchant %q: %w", subdomain, err)
	}
	return merchant, service.NewOrderService(repository.NewOrderRepository(db), rt.logger), nil
}
