package client

import (
	"checkout-builder/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// GeoClient resolves French postal codes to commune names using the public
// geo.api.gouv.fr service (read-only, no auth).
type GeoClient interface {
	LookupCities(ctx context.Context, postalCode string) ([]string, error)
}

type geoClientImpl struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

type geoCommune struct {
	Nom string `json:"nom"`
}

func NewGeoClient(cfg *config.Geo) GeoClient {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &geoClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *geoClientImpl) LookupCities(ctx context.Context, postalCode string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geo rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("codePostal", postalCode)
	q.Set("fields", "nom")
	q.Set("format", "json")
	q.Set("geometry", "centre")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/communes?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("geo api error %d: %s", resp.StatusCode, string(b))
	}

	var communes []geoCommune
	if err := json.NewDecoder(resp.Body).Decode(&communes); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}

	names := make([]string, 0, len(communes))
	for _, commune := range communes {
		if commune.Nom != "" {
			names = append(names, commune.Nom)
		}
	}
	return names, nil
}
