package overview

import (
	"context"
	"sync"
	"testing"
	"time"

	"clientbook-backend/internal/application/alerts"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/infrastructure/database"
	"clientbook-backend/internal/infrastructure/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type recordingNotifier struct {
	mu      sync.Mutex
	delay   time.Duration
	defects []alerts.Defect
	ctxErrs []error
}

func (n *recordingNotifier) NotifyDefect(ctx context.Context, d alerts.Defect) error {
	time.Sleep(n.delay)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.defects = append(n.defects, d)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return nil
}

func (n *recordingNotifier) sent() []alerts.Defect {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alerts.Defect(nil), n.defects...)
}

func setup(t *testing.T) (*Service, *repository.Gorm, *recordingNotifier) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	repo := repository.New(db)
	n := &recordingNotifier{}
	svc := NewService(repo)
	svc.Alerts = n
	return svc, repo, n
}

func addClient(t *testing.T, repo *repository.Gorm, name string, status domain.ClientStatus, costs domain.CostInputs) *domain.Client {
	t.Helper()
	c := &domain.Client{Name: name, Status: status, CostInputs: costs}
	require.NoError(t, repo.CreateClient(context.Background(), c))
	return c
}

func pay(t *testing.T, repo *repository.Gorm, clientID string, typ domain.PaymentType, mode domain.PaymentMode, amount int64) {
	t.Helper()
	require.NoError(t, repo.AppendPayment(context.Background(), &domain.Payment{
		ClientID: clientID, Date: time.Now(), Amount: d(amount), Type: typ, Mode: mode,
	}))
}

func TestOverview(t *testing.T) {
	svc, repo, n := setup(t)
	ctx := context.Background()
	a := addClient(t, repo, "A", domain.ClientActive, domain.CostInputs{ServiceCost: d(8000), DomainCharged: d(75), ExtraFeatures: d(1200)})
	b := addClient(t, repo, "B", domain.ClientDelivered, domain.CostInputs{ServiceCost: d(1000)})
	gone := addClient(t, repo, "Gone", domain.ClientDeleted, domain.CostInputs{ServiceCost: d(500)})

	pay(t, repo, a.ID, domain.PaymentCredit, domain.ModeCash, 4000)
	pay(t, repo, a.ID, domain.PaymentDebit, domain.ModeCash, 500)
	pay(t, repo, b.ID, domain.PaymentCredit, domain.ModeOnline, 1200)
	pay(t, repo, gone.ID, domain.PaymentCredit, domain.ModeCash, 100)

	cid := a.ID
	require.NoError(t, repo.AppendLedgerEntry(ctx, &domain.LedgerEntry{MemberID: "m1", ClientID: &cid, Date: time.Now(), Amount: d(300), Type: domain.LedgerSpent}))
	require.NoError(t, repo.AppendLedgerEntry(ctx, &domain.LedgerEntry{MemberID: "m2", Date: time.Now(), Amount: d(100), Type: domain.LedgerGiven}))

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, ov.Clients, 2)
	assert.Equal(t, 2, ov.Global.ClientCount)
	assert.True(t, ov.Global.TotalValue.Equal(d(10275)))
	assert.True(t, ov.Global.TotalRevenue.Equal(d(4700)))
	assert.True(t, ov.Global.CashCollected.Equal(d(3600)), ov.Global.CashCollected.String())
	assert.True(t, ov.Global.ByMode["Online"].Equal(d(1200)))

	assert.True(t, ov.Team.Wallet.Equal(d(-200)))
	require.Len(t, ov.Members, 2)

	var viewA, viewB ClientView
	for _, v := range ov.Clients {
		switch v.Client.ID {
		case a.ID:
			viewA = v
		case b.ID:
			viewB = v
		}
	}
	assert.True(t, viewA.Finance.TotalPaid.Equal(d(3500)))
	assert.Equal(t, 38, viewA.Finance.ProgressPercent)
	assert.True(t, viewA.Finance.TeamSpent.Equal(d(300)))
	assert.True(t, viewA.Stale, "summary block not yet recalculated")

	// A's attributed ledger is overdrawn and B is overpaid: warnings, not errors
	assert.True(t, viewA.Validation.IsValid)
	require.Len(t, viewA.Validation.Warnings(), 1)
	assert.Equal(t, "team_overdraft", viewA.Validation.Warnings()[0].Code)
	assert.True(t, viewB.Validation.IsValid)
	require.Len(t, viewB.Validation.Warnings(), 1)
	assert.Equal(t, "overpayment", viewB.Validation.Warnings()[0].Code)
	assert.Equal(t, 2, ov.WarnCount)
	assert.Equal(t, 0, ov.ErrorCount)
	svc.sends.Wait()
	assert.Empty(t, n.sent())
}

func TestOverview_NegativePricingAlerts(t *testing.T) {
	svc, repo, n := setup(t)
	addClient(t, repo, "Broken", domain.ClientActive, domain.CostInputs{ServiceCost: d(-50)})

	ov, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, ov.Clients, 1)
	assert.False(t, ov.Clients[0].Validation.IsValid)
	assert.Equal(t, 1, ov.ErrorCount)
	svc.sends.Wait()
	sent := n.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Lines[0], "Broken")
}

func TestOverview_AlertsOffRequestPathOncePerDefect(t *testing.T) {
	svc, repo, n := setup(t)
	n.delay = 300 * time.Millisecond
	broken := addClient(t, repo, "Broken", domain.ClientActive, domain.CostInputs{ServiceCost: d(-50)})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		start := time.Now()
		ov, err := svc.Overview(ctx)
		cancel()
		require.NoError(t, err)
		assert.Equal(t, 1, ov.ErrorCount)
		assert.Less(t, time.Since(start), 200*time.Millisecond, "read waited on the notifier")
	}
	_, err := svc.Client(context.Background(), broken.ID)
	require.NoError(t, err)
	svc.sends.Wait()
	require.Len(t, n.sent(), 1)
	n.mu.Lock()
	assert.NoError(t, n.ctxErrs[0], "alert context must outlive the request")
	n.mu.Unlock()

	// Fixed, then broken again: a new alert.
	n.delay = 0
	require.NoError(t, repo.DB.Model(&domain.Client{}).Where("id = ?", broken.ID).Update("service_cost", 10).Error)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.DB.Model(&domain.Client{}).Where("id = ?", broken.ID).Update("service_cost", -50).Error)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	svc.sends.Wait()
	assert.Len(t, n.sent(), 2)
}

func TestClient(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	c := addClient(t, repo, "A", domain.ClientDeleted, domain.CostInputs{ServiceCost: d(100)})
	pay(t, repo, c.ID, domain.PaymentCredit, domain.ModeCash, 100)

	v, err := svc.Client(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, v.Finance.ProgressPercent)
	assert.True(t, v.Finance.Pending.IsZero())

	_, err = svc.Client(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}
