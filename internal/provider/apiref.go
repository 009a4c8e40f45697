package provider

import (
	"fmt"
	"regexp"
	"time"

	"resultpay/internal/errors"
)

// api_ref format: "exam_<examID>_<unix millis>". The exam id is recovered
// from provider callbacks that do not carry it directly.
const apiRefPrefix = "exam_"

var apiRefPattern = regexp.MustCompile(`^exam_(.+)_(\d{10,16})$`)

// NewAPIRef builds the correlation reference for a charge on the given exam.
func NewAPIRef(examID string) string {
	return fmt.Sprintf("%s%s_%d", apiRefPrefix, examID, time.Now().UnixMilli())
}

// ParseAPIRef recovers the exam id embedded in an api_ref. The exam id is
// the substring between the fixed prefix and the trailing numeric token;
// exam ids containing underscores are handled by anchoring on the last one.
func ParseAPIRef(ref string) (string, error) {
	m := apiRefPattern.FindStringSubmatch(ref)
	if m == nil || m[1] == "" {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidAPIRef, ref)
	}
	return m[1], nil
}
