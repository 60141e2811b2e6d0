package plans

import (
	"strings"

	"tipbox-backend/internal/domain/companies"
)

// NormalizePaymentStatus maps a processor subscription status onto the
// ledger's payment-status values.
func NormalizePaymentStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "active", "trialing":
		return companies.StatusActive
	case "past_due", "unpaid":
		return companies.StatusPastDue
	case "canceled", "incomplete_expired":
		return companies.StatusCanceled
	default:
		return companies.StatusUnpaid
	}
}
