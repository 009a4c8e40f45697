package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"resultpay/internal/errors"
	"resultpay/internal/service"
)

// OperatorSecretHeader authenticates operator-only endpoints.
const OperatorSecretHeader = "X-Operator-Secret"

// AdminHandler exposes the operator reconciliation sweep.
type AdminHandler struct {
	reconciler     service.ReconcileService
	operatorSecret string
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(reconciler service.ReconcileService, operatorSecret string) *AdminHandler {
	return &AdminHandler{
		reconciler:     reconciler,
		operatorSecret: operatorSecret,
	}
}

// ReconcileRequest selects what to sweep.
type ReconcileRequest struct {
	ExamID string `json:"exam_id" validate:"required"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// Reconcile godoc
// @Summary Sweep pending charges for an exam against the provider
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Operator-Secret header string true "Operator shared secret"
// @Param request body ReconcileRequest true "Sweep selection"
// @Success 200 {object} service.SweepReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c echo.Context) error {
	secret := c.Request().Header.Get(OperatorSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.operatorSecret)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid operator secret",
			Code:  "UNAUTHORIZED",
		})
	}

	var req ReconcileRequest
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

	report, err := h.reconciler.SweepExam(c.Request().Context(), req.ExamID, req.DryRun)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, report)
}
