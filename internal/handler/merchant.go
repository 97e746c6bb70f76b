package handler

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/dto"
	"checkout-builder/internal/middleware"
	"checkout-builder/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type MerchantHandler struct {
	merchantService service.MerchantService
}

func NewMerchantHandler(merchantService service.MerchantService) *MerchantHandler {
	return &MerchantHandler{
		merchantService: merchantService,
	}
}

func (h *MerchantHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	merchant, token, err := h.merchantService.Register(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.AuthResponse{Token: token, Merchant: merchant})
}

func (h *MerchantHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	merchant, token, err := h.merchantService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.AuthResponse{Token: token, Merchant: merchant})
}

func (h *MerchantHandler) Me(c echo.Context) error {
	merchant, err := h.merchantService.GetMerchant(c.Request().Context(), middleware.MerchantID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, merchant)
}

func (h *MerchantHandler) Onboard(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.OnboardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	merchant, err := h.merchantService.Onboard(ctx, middleware.MerchantID(c), req.CompanyName, req.Subdomain)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, merchant)
}

func (h *MerchantHandler) SubdomainAvailability(c echo.Context) error {
	ctx := c.Request().Context()

	value := c.QueryParam("subdomain")
	if value == "" {
		value = service.SuggestSubdomain(c.QueryParam("company_name"))
	}

	sub, available, err := h.merchantService.SubdomainAvailable(ctx, middleware.MerchantID(c), value)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.SubdomainAvailability{Subdomain: sub, Available: available})
}

func (h *MerchantHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateMerchantRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	merchant, err := h.merchantService.Update(ctx, middleware.MerchantID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, merchant)
}

func (h *MerchantHandler) VerifyChronopost(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyChronopostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.merchantService.VerifyChronopost(ctx, req.AccountNumber, req.Password)
	if apperr.IsKind(err, apperr.Invalid) {
		return c.JSON(http.StatusOK, dto.VerifyChronopostResponse{Valid: false, Message: apperr.PublicMessage(err)})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.VerifyChronopostResponse{Valid: true, Message: "Chronopost account verified."})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.InvalidErr("Malformed request body.", nil)
	}
	return c.Validate(req)
}
