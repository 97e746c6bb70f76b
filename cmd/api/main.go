package main

import (
	"checkout-builder/internal/checkout"
	"checkout-builder/internal/client"
	"checkout-builder/internal/config"
	"checkout-builder/internal/logger"
	"checkout-builder/internal/payment"
	"checkout-builder/internal/repository"
	"checkout-builder/internal/server"
	"checkout-builder/internal/service"
	"checkout-builder/internal/shipping"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	db := client.InitDBClient(cfg.DBDriver, cfg.DatabaseURL)

	geoClient := client.NewGeoClient(&cfg.Geo)
	chronopostClient := client.NewChronopostClient(&cfg.Chronopost, log)
	mondialRelayClient := client.NewMondialRelayClient(&cfg.MondialRelay, log)

	var braintreeClient client.BraintreeClient
	if cfg.Payment.Provider == payment.ProviderBraintree {
		braintreeClient = client.NewBraintreeClient(&cfg.BrainTree)
	}
	gateway, err := payment.New(&cfg.Payment, braintreeClient, log)
	if err != nil {
		log.Error("payment gateway", "error", err)
		os.Exit(1)
	}

	merchantRepo := repository.NewMerchantRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	tokenService := service.NewTokenService(cfg.Auth)
	merchantService := service.NewMerchantService(merchantRepo, tokenService, chronopostClient, log)
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo, log)

	sessions := checkout.NewManager(cfg.Checkout, checkout.Deps{
		Geo:      geoClient,
		Relays:   shipping.NewRelayFinder(chronopostClient, mondialRelayClient),
		Payments: gateway,
		Orders:   orderService,
		Logger:   log,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sessions.Run(sweepCtx, time.Minute)

	srv := server.NewServer(log, tokenService, merchantService, productService, orderService, sessions)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name, "payment_provider", cfg.Payment.Provider)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	stopSweep()
	sessions.Close()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("shutdown complete")
}
