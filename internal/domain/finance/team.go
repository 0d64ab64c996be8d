package finance

import (
	"sort"

	"clientbook-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// TeamTotals aggregates team-ledger entries. Wallet may go negative (overdraft).
type TeamTotals struct {
	Given      decimal.Decimal `json:"given"`
	Spent      decimal.Decimal `json:"spent"`
	Investment decimal.Decimal `json:"investment"`
	Wallet     decimal.Decimal `json:"wallet"`
}

// TeamAggregate sums absolute amounts per ledger type. Type matching follows
// domain.ParseLedgerType; unrecognised entries are ignored.
func TeamAggregate(entries []domain.LedgerEntry) TeamTotals {
	t := TeamTotals{}
	for _, e := range entries {
		kind, ok := domain.ParseLedgerType(string(e.Type))
		if !ok {
			continue
		}
		amt := e.Amount.Abs()
		switch kind {
		case domain.LedgerGiven:
			t.Given = t.Given.Add(amt)
		case domain.LedgerSpent:
			t.Spent = t.Spent.Add(amt)
		case domain.LedgerInvestment:
			t.Investment = t.Investment.Add(amt)
		}
	}
	t.Wallet = t.Given.Sub(t.Spent)
	return t
}

type MemberBalance struct {
	MemberID string `json:"memberId"`
	TeamTotals
}

// MemberBalances aggregates the whole ledger per team member, ordered by id.
func MemberBalances(entries []domain.LedgerEntry) []MemberBalance {
	byMember := map[string][]domain.LedgerEntry{}
	for _, e := range entries {
		byMember[e.MemberID] = append(byMember[e.MemberID], e)
	}
	out := make([]MemberBalance, 0, len(byMember))
	for id, es := range byMember {
		out = append(out, MemberBalance{MemberID: id, TeamTotals: TeamAggregate(es)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}
