package provider

import (
	"strings"

	"resultpay/internal/model"
)

// NormalizeStatus maps a provider status token to the canonical vocabulary.
// It is total and case-insensitive. Unknown tokens map to pending so an
// unrecognized provider word is never misread as a terminal outcome.
func NormalizeStatus(token string) model.CanonicalStatus {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "COMPLETE", "COMPLETED", "SUCCESS", "SUCCESSFUL", "PAID", "SETTLED":
		return model.StatusCompleted
	case "FAILED", "FAILURE", "ERROR", "DECLINED", "REJECTED":
		return model.StatusFailed
	case "CANCELLED", "CANCELED", "VOIDED", "REVERSED":
		return model.StatusCancelled
	default:
		return model.StatusPending
	}
}
