package logs

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/infrastructure/database"
	"clientbook-backend/internal/infrastructure/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_NewestFirstWithLimit(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	repo := repository.New(db)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, action := range []string{domain.ActionClientCreated, domain.ActionPricingUpdated, domain.ActionRecalculation} {
		require.NoError(t, repo.AppendLog(context.Background(), domain.NewLogEntry(base.Add(time.Duration(i)*time.Minute), "alice", action, nil)))
	}

	app := fiber.New()
	h := &Handlers{Reader: repo}
	app.Get("/logs", h.List)

	resp, err := app.Test(httptest.NewRequest("GET", "/logs?limit=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Data []domain.LogEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, domain.ActionRecalculation, body.Data[0].Action)
	assert.Equal(t, domain.ActionPricingUpdated, body.Data[1].Action)

	resp, err = app.Test(httptest.NewRequest("GET", "/logs?limit=-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
