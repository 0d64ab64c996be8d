package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/infrastructure/database"
	"clientbook-backend/internal/infrastructure/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func setup(t *testing.T) (*Service, *repository.Gorm) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	repo := repository.New(db)
	return NewService(repo), repo
}

func baseCosts() domain.CostInputs {
	return domain.CostInputs{ServiceCost: d(8000), DomainCharged: d(75), ExtraFeatures: d(1200)}
}

func seed(t *testing.T, repo *repository.Gorm) *domain.Client {
	t.Helper()
	c := &domain.Client{Name: "Acme", CostInputs: baseCosts()}
	require.NoError(t, repo.CreateClient(context.Background(), c))
	return c
}

func TestUpdatePricing_Ok(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := seed(t, repo)
	require.NoError(t, repo.AppendPayment(ctx, &domain.Payment{ClientID: c.ID, Date: time.Now(), Amount: d(4000), Type: domain.PaymentCredit}))
	_, err := repo.WriteDerivedFieldBatch(ctx, []domain.DerivedRow{{ClientID: c.ID, Version: 1, DerivedFields: domain.DerivedFields{TotalValue: d(9275), TotalPaid: d(4000), Pending: d(5275), Profit: d(9275)}}})
	require.NoError(t, err)

	costs := baseCosts()
	costs.ActualDomainCost = d(60)
	res, err := svc.UpdatePricing(ctx, c.ID, costs, 1, "alice")
	require.NoError(t, err)
	require.Equal(t, Ok, res.Kind)
	assert.Equal(t, 2, res.ServerVersion)
	assert.True(t, res.Client.TotalValue.Equal(d(9275)))
	assert.True(t, res.Client.Profit.Equal(d(9215)))
	assert.True(t, res.Client.Pending.Equal(d(5275)))
	assert.True(t, res.Client.TotalPaid.Equal(d(4000)))
	assert.Equal(t, "alice", res.Client.LastModifiedBy)

	logs, _ := repo.ReadLogs(ctx, 5)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionPricingUpdated, logs[0].Action)
	assert.Contains(t, string(logs[0].Details), "actualDomainCost")
}

func TestUpdatePricing_StaleVersionConflicts(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := seed(t, repo)

	first := baseCosts()
	first.ServiceCost = d(9000)
	res, err := svc.UpdatePricing(ctx, c.ID, first, 1, "alice")
	require.NoError(t, err)
	require.Equal(t, Ok, res.Kind)

	second := baseCosts()
	second.ServiceCost = d(1)
	res, err = svc.UpdatePricing(ctx, c.ID, second, 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, Conflict, res.Kind)
	assert.Equal(t, 2, res.ServerVersion)
	assert.True(t, res.ServerCosts.Equal(first))
	assert.Contains(t, res.Reason, "alice")

	got, _ := repo.FindClient(ctx, c.ID)
	assert.True(t, got.ServiceCost.Equal(d(9000)))
}

func TestUpdatePricing_ConcurrentEditorsAtVersion3(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := seed(t, repo)
	for v := 1; v <= 2; v++ {
		res, err := svc.UpdatePricing(ctx, c.ID, baseCosts(), v, "setup")
		require.NoError(t, err)
		require.Equal(t, Ok, res.Kind)
	}

	edits := []domain.CostInputs{baseCosts(), baseCosts()}
	edits[0].ExtraFeatures = d(1500)
	edits[1].ExtraFeatures = d(2500)

	results := make([]Result, 2)
	var wg sync.WaitGroup
	for i := range edits {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.UpdatePricing(ctx, c.ID, edits[i], 3, "editor")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	winner, loser := -1, -1
	for i, r := range results {
		switch r.Kind {
		case Ok:
			winner = i
		case Conflict:
			loser = i
		}
	}
	require.NotEqual(t, -1, winner, "one edit must commit")
	require.NotEqual(t, -1, loser, "the other edit must conflict")
	assert.Equal(t, 4, results[winner].ServerVersion)
	assert.Equal(t, 4, results[loser].ServerVersion)
	assert.True(t, results[loser].ServerCosts.Equal(edits[winner]))

	got, _ := repo.FindClient(ctx, c.ID)
	assert.Equal(t, 4, got.Version)
	assert.True(t, got.ExtraFeatures.Equal(edits[winner].ExtraFeatures))
}

func TestUpdatePricing_NotFoundAndInvalid(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := seed(t, repo)

	res, err := svc.UpdatePricing(ctx, "missing", baseCosts(), 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Kind)

	neg := baseCosts()
	neg.DomainCharged = d(-1)
	res, err = svc.UpdatePricing(ctx, c.ID, neg, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, Invalid, res.Kind)

	res, err = svc.UpdatePricing(ctx, c.ID, baseCosts(), 1, " ")
	require.NoError(t, err)
	assert.Equal(t, Invalid, res.Kind)

	got, _ := repo.FindClient(ctx, c.ID)
	assert.Equal(t, 1, got.Version)
}

type brokenStore struct{ Store }

func (brokenStore) FindClient(context.Context, string) (*domain.Client, error) {
	return nil, errors.New("db down")
}

func TestUpdatePricing_StoreFailureIsError(t *testing.T) {
	svc := NewService(brokenStore{})
	_, err := svc.UpdatePricing(context.Background(), "c1", baseCosts(), 1, "alice")
	assert.EqualError(t, err, "db down")
}

func TestChangedFields(t *testing.T) {
	before := baseCosts()
	after := baseCosts()
	after.DomainCharged = decimal.RequireFromString("75.00")
	assert.Empty(t, ChangedFields(before, after))
	after.ExtraProductionCharges = d(10)
	assert.Equal(t, []string{"extraProductionCharges"}, ChangedFields(before, after))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "conflict", Conflict.String())
	assert.Equal(t, "not_found", NotFound.String())
}

func TestPatchPricing(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := seed(t, repo)

	res, err := svc.PatchPricing(ctx, c.ID, CostPatch{}, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, Invalid, res.Kind)

	cost := d(60)
	res, err = svc.PatchPricing(ctx, c.ID, CostPatch{ActualDomainCost: &cost}, 1, "alice")
	require.NoError(t, err)
	require.Equal(t, Ok, res.Kind)
	assert.True(t, res.ServerCosts.ServiceCost.Equal(d(8000)))
	assert.True(t, res.ServerCosts.ExtraFeatures.Equal(d(1200)))
	assert.True(t, res.Client.TotalValue.Equal(d(9275)))
	assert.True(t, res.Client.Profit.Equal(d(9215)))

	logs, _ := repo.ReadLogs(ctx, 1)
	require.Len(t, logs, 1)
	assert.Contains(t, string(logs[0].Details), `"fields":["actualDomainCost"]`)

	// The merge base is the stored row, so a stale version never writes it.
	res, err = svc.PatchPricing(ctx, c.ID, CostPatch{ActualDomainCost: &cost}, 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, Conflict, res.Kind)
	assert.Equal(t, 2, res.ServerVersion)

	res, err = svc.PatchPricing(ctx, "missing", CostPatch{ActualDomainCost: &cost}, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Kind)
}
