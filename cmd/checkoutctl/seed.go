package main

import (
	"checkout-builder/internal/repository"
	"checkout-builder/internal/seed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func seedCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo merchants, products and orders",
		Long: `Load demo data into the configured database. Without --file the
fixtures bundled with the binary are used. Existing merchants (by email)
and orders (by number) are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			fixtures, err := loadFixtures(file)
			if err != nil {
				return err
			}

			db, err := rt.DB()
			if err != nil {
				return err
			}

			loader := seed.NewLoader(
				repository.NewMerchantRepository(db),
				repository.NewProductRepository(db),
				repository.NewOrderRepository(db),
				rt.logger,
			)
			res, err := loader.Load(cmd.Context(), fixtures)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "merchants: %d created, %d already present\n", res.MerchantsCreated, res.MerchantsSkipped)
			fmt.Fprintf(cmd.OutOrStdout(), "products:  %d\n", res.Products)
			fmt.Fprintf(cmd.OutOrStdout(), "orders:    %d created\n", res.OrdersCreated)
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "YAML fixtures file")
	return cmd
}

func loadFixtures(file string) (*seed.Fixtures, error) {
	if file == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return seed.Parse(data)
}
