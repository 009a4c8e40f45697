package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resultpay/internal/errors"
	"resultpay/internal/service"
)

// SignatureHeader carries the provider's HMAC-SHA256 hex digest of the body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler is the provider-facing ingress endpoint.
type WebhookHandler struct {
	webhookService service.WebhookService
	secret         string
	logger         *zap.Logger
}

// NewWebhookHandler creates a new webhook handler. An empty secret disables
// signature verification (degraded mode).
func NewWebhookHandler(webhookService service.WebhookService, secret string, logger *zap.Logger) *WebhookHandler {
	if secret == "" {
		logger.Warn("webhook signature verification disabled, accepting unsigned pushes")
	}
	return &WebhookHandler{
		webhookService: webhookService,
		secret:         secret,
		logger:         logger,
	}
}

// WebhookRequest is the provider push payload.
type WebhookRequest struct {
	InvoiceID    string `json:"invoice_id"`
	State        string `json:"state"`
	APIRef       string `json:"api_ref"`
	Value        string `json:"value"`
	Currency     string `json:"currency"`
	Account      string `json:"account"`
	FailedReason string `json:"failed_reason,omitempty"`
}

// WebhookResponse acknowledges a provider push.
type WebhookResponse struct {
	Status string `json:"status"`
}

// HandleProviderPush godoc
// @Summary Ingest a provider payment notification
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string false "HMAC-SHA256 hex digest of the body"
// @Param request body WebhookRequest true "Provider push payload"
// @Success 200 {object} WebhookResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /payments/webhook [post]
func (h *WebhookHandler) HandleProviderPush(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
			Error: "unreadable request body",
			Code:  "UNREADABLE_BODY",
		})
	}

	if h.secret != "" && !h.verifySignature(body, c.Request().Header.Get(SignatureHeader)) {
		h.logger.Warn("webhook signature mismatch", zap.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid signature",
			Code:  "UNAUTHORIZED",
		})
	}

	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
			Error: "unparseable webhook body",
			Code:  "UNPARSEABLE_BODY",
		})
	}

	// every failure past this point is logged and swallowed; the provider
	// is acknowledged so it does not retry over downstream problems
	h.webhookService.ProcessEvent(c.Request().Context(), service.WebhookEvent{
		ChargeID:     req.InvoiceID,
		StatusToken:  req.State,
		APIRef:       req.APIRef,
		Value:        req.Value,
		Currency:     req.Currency,
		Account:      req.Account,
		FailedReason: req.FailedReason,
		Raw:          body,
	})

	return c.JSON(http.StatusOK, WebhookResponse{Status: "received"})
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
