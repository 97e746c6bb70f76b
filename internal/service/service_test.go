package service

import (
	"checkout-builder/internal/client"
	"checkout-builder/internal/config"
	"checkout-builder/internal/repository"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	merchants MerchantService
	products  ProductService
	orders    OrderService
	tokens    TokenService
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := client.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewTokenService(config.Auth{JWTSecret: "test-secret", TokenTTL: time.Hour})

	return &testEnv{
		db:        db,
		merchants: NewMerchantService(repository.NewMerchantRepository(db), tokens, client.NewChronopostClient(&config.Carrier{}, logger), logger),
		products:  NewProductService(repository.NewProductRepository(db)),
		orders:    NewOrderService(repository.NewOrderRepository(db), logger),
		tokens:    tokens,
		logger:    logger,
	}
}
