package finance

import (
	"strings"

	"clientbook-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// GlobalSnapshot aggregates all clients passed in.
type GlobalSnapshot struct {
	ClientCount   int                        `json:"clientCount"`
	TotalValue    decimal.Decimal            `json:"totalValue"`
	TotalRevenue  decimal.Decimal            `json:"totalRevenue"`
	TotalPending  decimal.Decimal            `json:"totalPending"`
	TotalProfit   decimal.Decimal            `json:"totalProfit"`
	CashCollected decimal.Decimal            `json:"cashCollected"`
	ByMode        map[string]decimal.Decimal `json:"byMode"`
}

// DeriveGlobalFinance sums per-client value and revenue across clients and
// aggregates the payment log per mode with the same sign rule as totalPaid.
// Mode aggregates cover every payment passed in, including those of clients
// not in the list.
func DeriveGlobalFinance(clients []domain.Client, payments []domain.Payment) GlobalSnapshot {
	paid := PaidByClient(payments)
	g := GlobalSnapshot{
		ClientCount: len(clients),
		ByMode:      map[string]decimal.Decimal{},
	}
	for _, c := range clients {
		d := Derive(c.CostInputs, paid[c.ID])
		g.TotalValue = g.TotalValue.Add(d.TotalValue)
		g.TotalRevenue = g.TotalRevenue.Add(d.TotalPaid)
		g.TotalPending = g.TotalPending.Add(d.Pending)
		g.TotalProfit = g.TotalProfit.Add(d.Profit)
	}
	g.CashCollected = SumPayments(payments, func(p domain.Payment) bool {
		return IsMode(p, domain.ModeCash)
	})
	for _, p := range payments {
		key := modeKey(p.Mode)
		g.ByMode[key] = g.ByMode[key].Add(Normalize(p))
	}
	return g
}

func modeKey(m domain.PaymentMode) string {
	if canonical, ok := domain.ParsePaymentMode(string(m)); ok {
		return string(canonical)
	}
	if s := strings.TrimSpace(string(m)); s != "" {
		return s
	}
	return "Unspecified"
}
