package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue codes.
const (
	IssueOverpayment        = "overpayment"
	IssueTeamOverdraft      = "team_overdraft"
	IssueRevenueMismatch    = "revenue_mismatch"
	IssueProgressOutOfRange = "progress_out_of_range"
	IssueNegativeTotalValue = "negative_total_value"
)

// Epsilon is the tolerance for revenue/paid equality.
var Epsilon = decimal.New(1, -2)

type Issue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
}

// Validation is advisory. Warnings describe legitimate business states;
// errors mean the calculation engine or its inputs are defective.
type Validation struct {
	IsValid bool    `json:"isValid"`
	Issues  []Issue `json:"issues"`
}

func (v Validation) Errors() []Issue {
	return v.filter(SeverityError)
}

func (v Validation) Warnings() []Issue {
	return v.filter(SeverityWarning)
}

func (v Validation) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range v.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks a snapshot for internal consistency. It never fails.
func Validate(s Snapshot) Validation {
	v := Validation{IsValid: true, Issues: []Issue{}}
	warn := func(code, field, msg string) {
		v.Issues = append(v.Issues, Issue{Code: code, Severity: SeverityWarning, Field: field, Message: msg})
	}
	fail := func(code, field, msg string) {
		v.IsValid = false
		v.Issues = append(v.Issues, Issue{Code: code, Severity: SeverityError, Field: field, Message: msg})
	}

	if s.Pending.IsNegative() {
		warn(IssueOverpayment, "pending", fmt.Sprintf("client overpaid by %s", s.Pending.Neg().StringFixed(2)))
	}
	if s.TeamWallet.IsNegative() {
		warn(IssueTeamOverdraft, "teamWallet", fmt.Sprintf("team wallet overdrawn by %s", s.TeamWallet.Neg().StringFixed(2)))
	}
	if s.TotalRevenue.Sub(s.TotalPaid).Abs().GreaterThan(Epsilon) {
		fail(IssueRevenueMismatch, "totalRevenue",
			fmt.Sprintf("totalRevenue %s differs from totalPaid %s", s.TotalRevenue.StringFixed(2), s.TotalPaid.StringFixed(2)))
	}
	if s.ProgressPercent < 0 || s.ProgressPercent > 100 {
		fail(IssueProgressOutOfRange, "progressPercent", fmt.Sprintf("progress %d outside [0,100]", s.ProgressPercent))
	}
	if s.TotalValue.IsNegative() {
		fail(IssueNegativeTotalValue, "totalValue", fmt.Sprintf("total value %s is negative", s.TotalValue.StringFixed(2)))
	}
	return v
}
