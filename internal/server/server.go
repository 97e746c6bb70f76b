package server

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/checkout"
	"checkout-builder/internal/handler"
	authmw "checkout-builder/internal/middleware"
	"checkout-builder/internal/service"
	"checkout-builder/internal/validation"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo            *echo.Echo
	logger          *slog.Logger
	tokens          service.TokenService
	merchantHandler *handler.MerchantHandler
	productHandler  *handler.ProductHandler
	orderHandler    *handler.OrderHandler
	checkoutHandler *handler.CheckoutHandler
}

func NewServer(
	logger *slog.Logger,
	tokens service.TokenService,
	merchantService service.MerchantService,
	productService service.ProductService,
	orderService service.OrderService,
	sessions *checkout.Manager,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		logger:          logger,
		tokens:          tokens,
		merchantHandler: handler.NewMerchantHandler(merchantService),
		productHandler:  handler.NewProductHandler(productService),
		orderHandler:    handler.NewOrderHandler(orderService),
		checkoutHandler: handler.NewCheckoutHandler(merchantService, sessions),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- merchant auth --------
	api.POST("/auth/register", s.merchantHandler.Register)
	api.POST("/auth/login", s.merchantHandler.Login)

	// -------- merchant dashboard --------
	me := api.Group("/merchant", authmw.AuthMiddleware(s.tokens))
	me.GET("", s.merchantHandler.Me)
	me.PATCH("", s.merchantHandler.Update)
	me.POST("/onboarding", s.merchantHandler.Onboard)
	me.GET("/subdomain-availability", s.merchantHandler.SubdomainAvailability)
	me.POST("/chronopost/verify", s.merchantHandler.VerifyChronopost)

	me.GET("/products", s.productHandler.List)
	me.POST("/products", s.productHandler.Create)
	me.GET("/products/:id", s.productHandler.Get)
	me.PUT("/products/:id", s.productHandler.Update)
	me.DELETE("/products/:id", s.productHandler.Delete)

	me.GET("/orders", s.orderHandler.List)
	me.GET("/orders/stats", s.orderHandler.Stats)

	// -------- storefront checkout --------
	store := api.Group("/store/:subdomain")
	store.GET("", s.checkoutHandler.Storefront)
	store.POST("/checkout", s.checkoutHandler.Start)
	store.GET("/checkout/:id", s.checkoutHandler.Get)
	store.DELETE("/checkout/:id", s.checkoutHandler.Abandon)
	store.POST("/checkout/:id/amount", s.checkoutHandler.SetAmount)
	store.POST("/checkout/:id/back", s.checkoutHandler.Back)
	store.PATCH("/checkout/:id/details", s.checkoutHandler.UpdateDetails)
	store.POST("/checkout/:id/relay", s.checkoutHandler.SelectRelay)
	store.POST("/checkout/:id/details/submit", s.checkoutHandler.SubmitDetails)
	store.POST("/checkout/:id/payment/dismiss", s.checkoutHandler.DismissPayment)
	store.POST("/checkout/:id/payment", s.checkoutHandler.Pay)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errorHandler renders apperr errors with their public message and logs
// server-side failures.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := apperr.HTTPStatus(err)
		resp := errorResponse{Error: apperr.PublicMessage(err)}

		var he *echo.HTTPError
		if ae, ok := apperr.As(err); ok {
			resp.Fields = ae.Fields
		} else if errors.As(err, &he) {
			status = he.Code
			resp.Error = http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok {
				resp.Error = msg
			}
		}

		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

// ServeHTTP exposes the router, mostly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
