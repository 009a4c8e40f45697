package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"resultpay/internal/auth"
	"resultpay/internal/errors"
	"resultpay/internal/service"
)

// PaymentHandler handles payment initiation and verification endpoints.
type PaymentHandler struct {
	initiation   service.InitiationService
	verification service.VerificationService
	sessions     auth.SessionVerifier
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(
	initiation service.InitiationService,
	verification service.VerificationService,
	sessions auth.SessionVerifier,
) *PaymentHandler {
	return &PaymentHandler{
		initiation:   initiation,
		verification: verification,
		sessions:     sessions,
	}
}

// InitiateRequest asks for a new unlock charge.
type InitiateRequest struct {
	ExamID string  `json:"exam_id" validate:"required"`
	Phone  string  `json:"phone" validate:"required,min=9"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Amount string  `json:"amount,omitempty"`
}

// InitiateResponse returns the charge the provider opened.
type InitiateResponse struct {
	ChargeID string `json:"charge_id"`
	APIRef   string `json:"api_ref"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// VerifyRequest identifies the payment to verify.
type VerifyRequest struct {
	ExamID       string `json:"exam_id,omitempty"`
	ChargeID     string `json:"charge_id,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

// Initiate godoc
// @Summary Initiate an unlock charge for an exam result
// @Tags payments
// @Accept json
// @Produce json
// @Param request body InitiateRequest true "Charge data"
// @Success 200 {object} InitiateResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /payments/initiate [post]
func (h *PaymentHandler) Initiate(c echo.Context) error {
	var req InitiateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid amount",
				Code:  "INVALID_AMOUNT",
			})
		}
		amount = parsed
	}

	record, err := h.initiation.Initiate(c.Request().Context(), service.InitiateInput{
		ExamID: req.ExamID,
		Phone:  req.Phone,
		Email:  req.Email,
		Amount: amount,
		UserID: h.sessionUserID(c),
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, InitiateResponse{
		ChargeID: record.ProviderChargeID,
		APIRef:   record.APIRef,
		Status:   string(record.Status),
		Message:  "charge initiated, confirm on your phone",
	})
}

// Verify godoc
// @Summary Verify whether a payment unlocks an exam result
// @Tags payments
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Exactly one of exam_id / charge_id"
// @Success 200 {object} service.VerificationResult
// @Failure 400 {object} errors.ErrorResponse
// @Router /payments/verify [post]
func (h *PaymentHandler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	result, err := h.verification.Verify(c.Request().Context(), service.VerifyInput{
		ExamID:       req.ExamID,
		ChargeID:     req.ChargeID,
		ForceRefresh: req.ForceRefresh,
		UserID:       h.sessionUserID(c),
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, result)
}

// LedgerStatus godoc
// @Summary Answer an unlock check strictly from the ledger
// @Tags payments
// @Produce json
// @Param exam_id query string false "Exam identifier"
// @Param charge_id query string false "Provider charge identifier"
// @Success 200 {object} service.VerificationResult
// @Failure 400 {object} errors.ErrorResponse
// @Router /payments/status [get]
func (h *PaymentHandler) LedgerStatus(c echo.Context) error {
	result, err := h.verification.CheckLedgerOnly(c.Request().Context(), service.VerifyInput{
		ExamID:   c.QueryParam("exam_id"),
		ChargeID: c.QueryParam("charge_id"),
		UserID:   h.sessionUserID(c),
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, result)
}

// sessionUserID resolves the optional bearer session token to a user id.
// Anonymous payers are first-class, so a missing or invalid token just
// yields no user binding.
func (h *PaymentHandler) sessionUserID(c echo.Context) *uint {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil
	}
	userID, err := h.sessions.UserIDFromToken(token)
	if err != nil {
		return nil
	}
	return &userID
}
