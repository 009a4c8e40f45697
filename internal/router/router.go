package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"resultpay/internal/config"
	"resultpay/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	paymentHandler *handler.PaymentHandler,
	webhookHandler *handler.WebhookHandler,
	adminHandler *handler.AdminHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Payment routes; session tokens are optional on all of them
	api.POST("/payments/initiate", paymentHandler.Initiate)
	api.POST("/payments/verify", paymentHandler.Verify)
	api.GET("/payments/status", paymentHandler.LedgerStatus)

	// Provider-facing ingress
	api.POST("/payments/webhook", webhookHandler.HandleProviderPush)

	// Operator-only
	api.POST("/admin/reconcile", adminHandler.Reconcile)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
