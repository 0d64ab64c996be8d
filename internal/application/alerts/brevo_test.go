package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyDefect_DisabledIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL}
	require.NoError(t, c.NotifyDefect(context.Background(), Defect{Subject: "x"}))
	assert.False(t, called)

	var nilClient *BrevoClient
	assert.False(t, nilClient.Enabled())
}

func TestNotifyDefect_SendsEmail(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "secret", MailFrom: "noreply@example.com", To: "ops@example.com", Endpoint: srv.URL}
	err := c.NotifyDefect(context.Background(), Defect{
		Subject: "Recalculation failed",
		Fields:  map[string]string{"actor": "<alice>"},
		Lines:   []string{"database is locked"},
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", apiKey)
	assert.Equal(t, "[clientbook] Recalculation failed", got.Subject)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ops@example.com", got.To[0].Email)
	assert.Contains(t, got.HTMLContent, "&lt;alice&gt;")
	assert.Contains(t, got.HTMLContent, "database is locked")
}

func TestNotifyDefect_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := &BrevoClient{APIKey: "bad", To: "ops@example.com", Endpoint: srv.URL}
	assert.Error(t, c.NotifyDefect(context.Background(), Defect{Subject: "x"}))
}
