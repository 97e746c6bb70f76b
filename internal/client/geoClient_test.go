package client

import (
	"checkout-builder/internal/config"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoClient_LookupCities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/communes", r.URL.Path)
		assert.Equal(t, "75001", r.URL.Query().Get("codePostal"))
		assert.Equal(t, "nom", r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"nom":"Paris"},{"nom":"Paris 1er Arrondissement"}]`))
	}))
	defer srv.Close()

	c := NewGeoClient(&config.Geo{BaseURL: srv.URL + "/", Timeout: time.Second})

	cities, err := c.LookupCities(context.Background(), "75001")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Paris 1er Arrondissement"}, cities)
}

func TestGeoClient_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewGeoClient(&config.Geo{BaseURL: srv.URL, Timeout: time.Second})

	cities, err := c.LookupCities(context.Background(), "00000")
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestGeoClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewGeoClient(&config.Geo{BaseURL: srv.URL, Timeout: time.Second})

	_, err := c.LookupCities(context.Background(), "77600")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestGeoClient_CancelledContext(t *testing.T) {
	c := NewGeoClient(&config.Geo{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, RateLimit: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LookupCities(ctx, "77600")
	assert.Error(t, err)
}
