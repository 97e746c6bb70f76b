package client

import (
	"checkout-builder/internal/config"
	"checkout-builder/internal/model"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const mondialRelayCountry = "FR"

// MondialRelayPoint mirrors a point of a WSI4_PointRelais_Recherche answer.
type MondialRelayPoint struct {
	ID      string `xml:"Num"`
	Name    string `xml:"LgAdr1"`
	Address string `xml:"LgAdr3"`
	ZipCode string `xml:"CP"`
	City    string `xml:"Ville"`
}

type MondialRelayClient interface {
	SearchPoints(ctx context.Context, zipCode string, cfg model.MondialRelayConfig) ([]MondialRelayPoint, error)
}

type mondialRelaySearchRequest struct {
	XMLName         xml.Name `xml:"web:WSI4_PointRelais_Recherche"`
	Enseigne        string   `xml:"web:Enseigne"`
	Country         string   `xml:"web:Pays"`
	PostalCode      string   `xml:"web:CP"`
	City            string   `xml:"web:Ville"`
	NumberOfResults int      `xml:"web:NombreResultats"`
}

type mondialRelayClientImpl struct {
	latency time.Duration
	logger  *slog.Logger
}

func NewMondialRelayClient(cfg *config.Carrier, logger *slog.Logger) MondialRelayClient {
	return &mondialRelayClientImpl{
		latency: cfg.Latency,
		logger:  logger,
	}
}

func (c *mondialRelayClientImpl) SearchPoints(ctx context.Context, zipCode string, cfg model.MondialRelayConfig) ([]MondialRelayPoint, error) {
	if !cfg.Enabled || cfg.Enseigne == "" {
		return nil, fmt.Errorf("mondial relay: %w", ErrCarrierNotConfigured)
	}

	body, err := xml.Marshal(&mondialRelaySearchRequest{
		Enseigne:        cfg.Enseigne,
		Country:         mondialRelayCountry,
		PostalCode:      zipCode,
		NumberOfResults: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal mondial relay request: %w", err)
	}
	c.logger.DebugContext(ctx, "mondial relay point search", "zip", zipCode, "body", string(body))

	if err := sleepCtx(ctx, c.latency); err != nil {
		return nil, fmt.Errorf("mondial relay point search: %w", err)
	}

	return mondialRelayFixtures(zipCode), nil
}

func mondialRelayFixtures(zipCode string) []MondialRelayPoint {
	switch {
	case zipCode == "77600":
		return []MondialRelayPoint{
			{ID: "MR-77001", Name: "LOTO PRESSE DE LA MAIRIE", Address: "14 PLACE DU MARCHE", ZipCode: "77600", City: "BUSSY SAINT GEORGES"},
			{ID: "MR-77002", Name: "FLEURISTE DES PRES", Address: "3 RUE JEAN JAURES", ZipCode: "77600", City: "BUSSY SAINT GEORGES"},
			{ID: "MR-77003", Name: "CORDONNERIE EXPRESS", Address: "85 BOULEVARD ANTOINE GIRARD", ZipCode: "77600", City: "BUSSY SAINT GEORGES"},
			{ID: "MR-77004", Name: "AUCHAN DRIVE", Address: "RUE DE MENTON", ZipCode: "77600", City: "BUSSY SAINT GEORGES"},
		}
	case strings.HasPrefix(zipCode, "75"):
		return []MondialRelayPoint{
			{ID: "MR-75001", Name: "KIOSQUE PARISIEN", Address: "12 RUE DE RIVOLI", ZipCode: zipCode, City: "PARIS"},
			{ID: "MR-75002", Name: "LIBRAIRIE DU CENTRE", Address: "5 BD SEBASTOPOL", ZipCode: zipCode, City: "PARIS"},
			{ID: "MR-75003", Name: "TABAC DES HALLES", Address: "1 RUE PIERRE LESCOT", ZipCode: zipCode, City: "PARIS"},
		}
	default:
		return []MondialRelayPoint{
			{ID: "MR-001", Name: "POINT RELAIS MONDIAL", Address: "10 RUE DU COMMERCE", ZipCode: zipCode, City: "VILLE"},
			{ID: "MR-002", Name: "SUPERETTE MR", Address: "5 AVENUE DE LA REPUBLIQUE", ZipCode: zipCode, City: "VILLE"},
		}
	}
}
