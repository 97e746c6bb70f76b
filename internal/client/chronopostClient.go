package client

import (
	"checkout-builder/internal/config"
	"checkout-builder/internal/model"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrCarrierNotConfigured = errors.New("carrier not configured")
	ErrInvalidCredentials   = errors.New("invalid carrier credentials")
)

// ChronopostPoint mirrors a point returned by recherchePointChronopostInter.
type ChronopostPoint struct {
	ID         string `xml:"identifiant"`
	Name       string `xml:"nom"`
	Address1   string `xml:"adresse1"`
	PostalCode string `xml:"codePostal"`
	Locality   string `xml:"localite"`
	Hours      string `xml:"horaires,omitempty"`
}

type ChronopostClient interface {
	SearchRelayPoints(ctx context.Context, zipCode string, cfg model.ChronopostConfig) ([]ChronopostPoint, error)
	VerifyAccount(ctx context.Context, accountNumber, password string) error
}

// chronopostSearchRequest is the body of the point search call. The web
// service itself is not reachable from here; responses are canned.
type chronopostSearchRequest struct {
	XMLName            xml.Name `xml:"cxf:recherchePointChronopostInter"`
	AccountNumber      string   `xml:"accountNumber"`
	Password           string   `xml:"password"`
	PostalCode         string   `xml:"codePostal"`
	Date               string   `xml:"date"`
	MaxPointChronopost int      `xml:"maxPointChronopost"`
	MaxDistanceSearch  int      `xml:"maxDistanceSearch"`
	HolidayTolerant    int      `xml:"holidayTolerant"`
}

type chronopostClientImpl struct {
	latency time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewChronopostClient(cfg *config.Carrier, logger *slog.Logger) ChronopostClient {
	return &chronopostClientImpl{
		latency: cfg.Latency,
		logger:  logger,
		now:     time.Now,
	}
}

func (c *chronopostClientImpl) SearchRelayPoints(ctx context.Context, zipCode string, cfg model.ChronopostConfig) ([]ChronopostPoint, error) {
	if !cfg.Enabled || cfg.AccountNumber == "" {
		return nil, fmt.Errorf("chronopost: %w", ErrCarrierNotConfigured)
	}

	body, err := xml.Marshal(&chronopostSearchRequest{
		AccountNumber:      cfg.AccountNumber,
		Password:           cfg.Password,
		PostalCode:         zipCode,
		Date:               c.now().Format("02/01/2006"),
		MaxPointChronopost: 10,
		MaxDistanceSearch:  10,
		HolidayTolerant:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chronopost request: %w", err)
	}
	c.logger.DebugContext(ctx, "chronopost point search", "zip", zipCode, "body", redactPassword(string(body), cfg.Password))

	if err := sleepCtx(ctx, c.latency); err != nil {
		return nil, fmt.Errorf("chronopost point search: %w", err)
	}

	return chronopostFixtures(zipCode), nil
}

func (c *chronopostClientImpl) VerifyAccount(ctx context.Context, accountNumber, password string) error {
	if err := sleepCtx(ctx, c.latency); err != nil {
		return fmt.Errorf("chronopost verify account: %w", err)
	}

	if len(accountNumber) < 8 || password == "" {
		return fmt.Errorf("chronopost: %w", ErrInvalidCredentials)
	}
	return nil
}

func chronopostFixtures(zipCode string) []ChronopostPoint {
	switch {
	case zipCode == "77600":
		return []ChronopostPoint{
			{ID: "P7701", Name: "AU PANIER DE BUSSY", Address1: "28 BOULEVARD DE LAGNY", PostalCode: "77600", Locality: "BUSSY SAINT GEORGES"},
			{ID: "P7702", Name: "PRESSING DU GOLF", Address1: "12 AVENUE DU GENERAL DE GAULLE", PostalCode: "77600", Locality: "BUSSY SAINT GEORGES"},
			{ID: "P7703", Name: "TABAC DE LA GARE RER", Address1: "PLACE DE LA GARE", PostalCode: "77600", Locality: "BUSSY SAINT GEORGES"},
			{ID: "P7704", Name: "LIBRAIRIE GRAND PLACE", Address1: "8 GRAND PLACE", PostalCode: "77600", Locality: "BUSSY SAINT GEORGES"},
		}
	case strings.HasPrefix(zipCode, "75"):
		return []ChronopostPoint{
			{ID: "P1234", Name: "TABAC DE LA MAIRIE", Address1: "12 RUE DE RIVOLI", PostalCode: zipCode, Locality: "PARIS"},
			{ID: "P5678", Name: "PRESSING ECOLOGIQUE", Address1: "45 BD SEBASTOPOL", PostalCode: zipCode, Locality: "PARIS"},
			{ID: "P9012", Name: "AU BON COIN", Address1: "8 RUE DES HALLES", PostalCode: zipCode, Locality: "PARIS"},
		}
	case strings.HasPrefix(zipCode, "69"):
		return []ChronopostPoint{
			{ID: "L3321", Name: "RELAIS LYONNAIS", Address1: "5 PLACE BELLECOUR", PostalCode: zipCode, Locality: "LYON"},
			{ID: "L4455", Name: "KIOSQUE JOURNAUX", Address1: "12 RUE VICTOR HUGO", PostalCode: zipCode, Locality: "LYON"},
		}
	default:
		return []ChronopostPoint{
			{ID: "X9999", Name: "SUPERETTE DU COIN", Address1: "1 PLACE DU MARCHE", PostalCode: zipCode, Locality: "VILLE"},
			{ID: "X8888", Name: "FLEURISTE PASSION", Address1: "14 AVENUE DE LA GARE", PostalCode: zipCode, Locality: "VILLE"},
		}
	}
}

func redactPassword(body, password string) string {
	if password == "" {
		return body
	}
	return strings.ReplaceAll(body, password, "***")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
