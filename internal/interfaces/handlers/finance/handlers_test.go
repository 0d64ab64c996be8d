package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/application/overview"
	"clientbook-backend/internal/application/recalc"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/infrastructure/database"
	"clientbook-backend/internal/infrastructure/lockstore"
	"clientbook-backend/internal/infrastructure/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app   *fiber.App
	repo  *repository.Gorm
	locks *lockstore.Memory
}

func setupFinance(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	repo := repository.New(db)
	locks := lockstore.NewMemory()
	h := &Handlers{
		Reader: overview.NewService(repo),
		Recalc: recalc.NewService(repo, locking.NewManager(locks)),
	}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"actor": "alice", "role": "admin"})
		return c.Next()
	})
	app.Get("/overview", h.Overview)
	app.Get("/clients/:id", h.Client)
	app.Post("/clients/:id/recalculate", h.RecalculateClient)
	app.Get("/export", h.Export)
	app.Post("/recalculate", h.Recalculate)
	return &fixture{app: app, repo: repo, locks: locks}
}

func (f *fixture) seed(t *testing.T) *domain.Client {
	t.Helper()
	ctx := context.Background()
	c := &domain.Client{Name: "Acme", CostInputs: domain.CostInputs{
		ServiceCost:   decimal.NewFromInt(8000),
		DomainCharged: decimal.NewFromInt(75),
		ExtraFeatures: decimal.NewFromInt(1200),
	}}
	require.NoError(t, f.repo.CreateClient(ctx, c))
	require.NoError(t, f.repo.AppendPayment(ctx, &domain.Payment{
		ClientID: c.ID, Date: time.Now(), Amount: decimal.NewFromInt(5000), Type: domain.PaymentCredit, Mode: domain.ModeCash,
	}))
	return c
}

func TestOverview_OK(t *testing.T) {
	f := setupFinance(t)
	f.seed(t)

	resp, err := f.app.Test(httptest.NewRequest("GET", "/overview", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Data struct {
			Clients []json.RawMessage `json:"clients"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Len(t, body.Data.Clients, 1)
}

func TestClient_NotFound(t *testing.T) {
	f := setupFinance(t)
	resp, err := f.app.Test(httptest.NewRequest("GET", "/clients/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExport_XLSX(t *testing.T) {
	f := setupFinance(t)
	f.seed(t)

	resp, err := f.app.Test(httptest.NewRequest("GET", "/export", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	raw, _ := io.ReadAll(resp.Body)
	require.True(t, len(raw) > 2)
	assert.Equal(t, "PK", string(raw[:2]))
}

func TestRecalculate_WritesSummary(t *testing.T) {
	f := setupFinance(t)
	c := f.seed(t)

	resp, err := f.app.Test(httptest.NewRequest("POST", "/recalculate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, true, body.Data["success"])
	assert.EqualValues(t, 1, body.Data["clientsUpdated"])
	assert.Equal(t, "alice", body.Data["actor"])
	assert.Contains(t, body.Data, "timeTaken")
	ts, ok := body.Data["timestamp"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339Nano, ts)
	assert.NoError(t, err)

	got, err := f.repo.FindClient(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPaid.Equal(decimal.NewFromInt(5000)))
	assert.True(t, got.Pending.Equal(decimal.NewFromInt(4275)))
}

func TestRecalculate_ActorFromBody(t *testing.T) {
	f := setupFinance(t)
	f.seed(t)

	req := httptest.NewRequest("POST", "/recalculate", bytes.NewReader([]byte(`{"actor":"scheduler"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"actor":"scheduler"`)
}

func TestRecalculate_Contention(t *testing.T) {
	f := setupFinance(t)
	f.seed(t)
	require.NoError(t, f.locks.WriteLock(context.Background(), domain.LockRecord{
		Name:      domain.RecalculationLock,
		Status:    domain.Locked,
		Holder:    "carol",
		Timestamp: time.Now().Add(-10 * time.Second).UTC(),
	}))

	resp, err := f.app.Test(httptest.NewRequest("POST", "/recalculate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Status string `json:"status"`
		Error  struct {
			StatusCode int `json:"statusCode"`
			Details    struct {
				Holder     string `json:"holder"`
				AgeSeconds int64  `json:"ageSeconds"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, fiber.StatusConflict, body.Error.StatusCode)
	assert.Equal(t, "carol", body.Error.Details.Holder)
	assert.InDelta(t, 10, body.Error.Details.AgeSeconds, 2)

	// The holder's lock is untouched.
	rec, err := f.locks.ReadLock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "carol", rec.Holder)
	assert.True(t, rec.IsLocked())
}

func TestRecalculateClient_NotFound(t *testing.T) {
	f := setupFinance(t)
	resp, err := f.app.Test(httptest.NewRequest("POST", "/clients/missing/recalculate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRecalculateClient_OK(t *testing.T) {
	f := setupFinance(t)
	c := f.seed(t)

	resp, err := f.app.Test(httptest.NewRequest("POST", "/clients/"+c.ID+"/recalculate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	got, err := f.repo.FindClient(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPaid.Equal(decimal.NewFromInt(5000)))

	rec, err := f.locks.ReadLock(context.Background())
	require.NoError(t, err)
	assert.False(t, rec.IsLocked())
}
