package finance

import (
	"clientbook-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Snapshot is the derived finance state of one client.
type Snapshot struct {
	ClientID        string          `json:"clientId"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	Pending         decimal.Decimal `json:"pending"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	Profit          decimal.Decimal `json:"profit"`
	DomainMargin    decimal.Decimal `json:"domainMargin"`
	TeamGiven       decimal.Decimal `json:"teamGiven"`
	TeamSpent       decimal.Decimal `json:"teamSpent"`
	TeamInvestment  decimal.Decimal `json:"teamInvestment"`
	TeamWallet      decimal.Decimal `json:"teamWallet"`
	ProgressPercent int             `json:"progressPercent"`
}

// TotalValue is the contract value. It depends on cost inputs only.
func TotalValue(c domain.CostInputs) decimal.Decimal {
	return c.ServiceCost.Add(c.DomainCharged).Add(c.ExtraFeatures).Add(c.ExtraProductionCharges)
}

// Profit is totalValue minus the actual domain cost. The service cost basis is
// not subtracted.
func Profit(c domain.CostInputs) decimal.Decimal {
	return TotalValue(c).Sub(c.ActualDomainCost)
}

// DomainMargin is the mark-up on the domain, for display only.
func DomainMargin(c domain.CostInputs) decimal.Decimal {
	return c.DomainCharged.Sub(c.ActualDomainCost)
}

// Progress is round(100 * paid / value) clamped to [0, 100]; 0 when value <= 0.
func Progress(paid, value decimal.Decimal) int {
	if !value.IsPositive() {
		return 0
	}
	pct := paid.Mul(hundred).Div(value).Round(0).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}

// Derive computes the materialized summary block from cost inputs and the
// normalized payment total. Both the batch recalculation and the pricing edit
// path go through here.
func Derive(c domain.CostInputs, totalPaid decimal.Decimal) domain.DerivedFields {
	tv := TotalValue(c)
	return domain.DerivedFields{
		TotalValue: tv,
		TotalPaid:  totalPaid,
		Pending:    tv.Sub(totalPaid),
		Profit:     Profit(c),
	}
}

// DeriveFinance builds the snapshot of one client from the full payment and
// ledger logs; rows of other clients are ignored.
func DeriveFinance(client domain.Client, payments []domain.Payment, entries []domain.LedgerEntry) Snapshot {
	paid := SumPayments(payments, func(p domain.Payment) bool { return p.ClientID == client.ID })

	var mine []domain.LedgerEntry
	for _, e := range entries {
		if e.ForClient(client.ID) {
			mine = append(mine, e)
		}
	}
	team := TeamAggregate(mine)

	d := Derive(client.CostInputs, paid)
	return Snapshot{
		ClientID:        client.ID,
		TotalValue:      d.TotalValue,
		TotalPaid:       d.TotalPaid,
		Pending:         d.Pending,
		TotalRevenue:    d.TotalPaid,
		Profit:          d.Profit,
		DomainMargin:    DomainMargin(client.CostInputs),
		TeamGiven:       team.Given,
		TeamSpent:       team.Spent,
		TeamInvestment:  team.Investment,
		TeamWallet:      team.Wallet,
		ProgressPercent: Progress(d.TotalPaid, d.TotalValue),
	}
}
