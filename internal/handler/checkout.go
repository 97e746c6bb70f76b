package handler

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/checkout"
	"checkout-builder/internal/dto"
	"checkout-builder/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CheckoutHandler serves the public storefront checkout under
// /store/:subdomain.
type CheckoutHandler struct {
	merchantService service.MerchantService
	sessions        *checkout.Manager
}

func NewCheckoutHandler(merchantService service.MerchantService, sessions *checkout.Manager) *CheckoutHandler {
	return &CheckoutHandler{
		merchantService: merchantService,
		sessions:        sessions,
	}
}

func (h *CheckoutHandler) Storefront(c echo.Context) error {
	merchant, err := h.merchantService.GetStorefront(c.Request().Context(), c.Param("subdomain"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"company_name":          merchant.CompanyName,
		"logo_url":              merchant.LogoURL,
		"theme_color_primary":   merchant.ThemeColorPrimary,
		"theme_color_secondary": merchant.ThemeColorSecondary,
		"shipping_methods":      merchant.ActiveShippingMethods(),
	})
}

func (h *CheckoutHandler) Start(c echo.Context) error {
	merchant, err := h.merchantService.GetStorefront(c.Request().Context(), c.Param("subdomain"))
	if err != nil {
		return err
	}

	s, err := h.sessions.Start(merchant)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) Get(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) SetAmount(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req dto.SetAmountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := s.SetAmount(req.Amount); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) Back(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := s.Back(); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) UpdateDetails(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var patch checkout.DetailsPatch
	if err := c.Bind(&patch); err != nil {
		return apperr.InvalidErr("Malformed request body.", nil)
	}
	if err := s.UpdateDetails(patch); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) SelectRelay(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req dto.SelectRelayRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := s.SelectRelay(req.RelayPointID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) SubmitDetails(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if _, err := s.SubmitDetails(); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) DismissPayment(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := s.DismissPayment(); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

func (h *CheckoutHandler) Pay(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req dto.PayRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := s.Pay(c.Request().Context(), checkout.PayRequest{Nonce: req.Nonce}); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{Session: s.View()})
}

// Abandon discards the session. Pending lookups are cancelled.
func (h *CheckoutHandler) Abandon(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	h.sessions.Remove(s.ID())

	return c.NoContent(http.StatusNoContent)
}

// session finds the session named in the path and checks it belongs to the
// storefront in the path.
func (h *CheckoutHandler) session(c echo.Context) (*checkout.Session, error) {
	merchant, err := h.merchantService.GetStorefront(c.Request().Context(), c.Param("subdomain"))
	if err != nil {
		return nil, err
	}

	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	if s.MerchantID() != merchant.ID {
		return nil, apperr.NotFoundErr("Checkout session not found.")
	}
	return s, nil
}
