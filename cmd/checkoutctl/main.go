package main

import (
	"checkout-builder/internal/client"
	"checkout-builder/internal/config"
	"checkout-builder/internal/logger"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

// runtime is what subcommands share: configuration, logger and a lazily
// opened database.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

func (r *runtime) DB() (*gorm.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := client.OpenDB(r.cfg.DBDriver, r.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := client.Migrate(db); err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *runtime) Close() {
	if r.db == nil {
		return
	}
	if sqlDB, err := r.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newRootCmd(rt *runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "checkoutctl",
		Short:         "Operator tool for the checkout builder",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")

			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				cfg.Log.Level = "debug"
			}

			rt.cfg = cfg
			rt.logger = logger.NewWithWriter(cmd.ErrOrStderr(), config.Log{Level: cfg.Log.Level, Format: "text"})
			return nil
		},
	}
	rootCmd.PersistentFlags().String("env-file", "", "Load environment from this file instead of .env")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(seedCmd(rt))
	rootCmd.AddCommand(merchantsCmd(rt))
	rootCmd.AddCommand(ordersCmd(rt))
	rootCmd.AddCommand(relayCmd(rt))
	rootCmd.AddCommand(citiesCmd(rt))
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(checkoutCmd(rt))
	return rootCmd
}

func main() {
	rt := &runtime{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(rt).ExecuteContext(ctx)
	stop()
	rt.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
