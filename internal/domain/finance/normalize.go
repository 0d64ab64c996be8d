// Package finance derives the financial state of client engagements from the
// payment and team-ledger logs. Everything here is pure: no I/O, no errors.
package finance

import (
	"strings"

	"clientbook-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// SignedAmount is the single place where payment sign convention is decided.
// Debit and Refund subtract, anything else (Credit and unknown types) adds.
// Type matching is case-insensitive and ignores surrounding space.
func SignedAmount(paymentType string, amount decimal.Decimal) decimal.Decimal {
	magnitude := amount.Abs()
	switch strings.ToLower(strings.TrimSpace(paymentType)) {
	case "debit", "refund":
		return magnitude.Neg()
	default:
		return magnitude
	}
}

// Normalize returns the signed contribution of a payment.
func Normalize(p domain.Payment) decimal.Decimal {
	return SignedAmount(string(p.Type), p.Amount)
}

// SumPayments totals the normalized amounts of the payments accepted by keep.
// A nil keep accepts every payment.
func SumPayments(payments []domain.Payment, keep func(domain.Payment) bool) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if keep != nil && !keep(p) {
			continue
		}
		total = total.Add(Normalize(p))
	}
	return total
}

// PaidByClient groups normalized payment totals by client id.
func PaidByClient(payments []domain.Payment) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, p := range payments {
		out[p.ClientID] = out[p.ClientID].Add(Normalize(p))
	}
	return out
}

// IsMode compares a payment mode case-insensitively.
func IsMode(p domain.Payment, mode domain.PaymentMode) bool {
	return strings.EqualFold(strings.TrimSpace(string(p.Mode)), string(mode))
}
