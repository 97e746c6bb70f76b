package handler

import (
	"checkout-builder/internal/middleware"
	"checkout-builder/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.orderService.List(c.Request().Context(), middleware.MerchantID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Stats(c echo.Context) error {
	stats, err := h.orderService.Stats(c.Request().Context(), middleware.MerchantID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}
