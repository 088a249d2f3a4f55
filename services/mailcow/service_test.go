package mailcow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteshifted/mailpanel/config"
	"github.com/byteshifted/mailpanel/interfaces"
	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/utils"
)

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(t *testing.T, handler http.HandlerFunc) interfaces.MailcowService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMailcowService(getTestLogger(), &config.MailcowConfig{
		ApiUrl: srv.URL,
		ApiKey: "test-key",
	})
}

func successEnvelope(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`[{"type":"success","msg":"ok"}]`))
}

func TestCreateDomain(t *testing.T) {
	var gotPath, gotKey string
	var payload map[string]interface{}

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		successEnvelope(w)
	})

	id, err := svc.CreateDomain(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", id)
	assert.Equal(t, "/add/domain", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "example.com", payload["domain"])
	assert.Equal(t, true, payload["active"])
}

func TestCreateMailboxFailureEnvelope(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"type":"danger","msg":["object_exists","alice@example.com"]}]`))
	})

	_, err := svc.CreateMailbox(context.Background(), "alice", "example.com", "secretpass", 1024, "Alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create mailbox")
	assert.Contains(t, err.Error(), "object_exists")
}

func TestCreateMailboxReturnsCanonicalAddress(t *testing.T) {
	var payload map[string]interface{}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		successEnvelope(w)
	})

	id, err := svc.CreateMailbox(context.Background(), "alice", "example.com", "secretpass", 2048, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id)
	assert.Equal(t, "alice", payload["local_part"])
	assert.Equal(t, "example.com", payload["domain"])
	assert.Equal(t, float64(2048), payload["quota"])
}

func TestUpdateMailboxSendsOnlyPresentFields(t *testing.T) {
	var payload struct {
		Items []string               `json:"items"`
		Attr  map[string]interface{} `json:"attr"`
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/edit/mailbox", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		successEnvelope(w)
	})

	patch := &interfaces.MailcowMailboxPatch{Password: utils.Ptr("newsecret123")}
	err := svc.UpdateMailbox(context.Background(), "alice@example.com", patch)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com"}, payload.Items)
	assert.Equal(t, map[string]interface{}{"password": "newsecret123"}, payload.Attr)
}

func TestDeleteAliasSendsAddressList(t *testing.T) {
	var payload []string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/delete/alias", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		successEnvelope(w)
	})

	err := svc.DeleteAlias(context.Background(), "sales@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales@example.com"}, payload)
}

func TestNon2xxResponse(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	err := svc.DeleteDomain(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailcow api error: 500")
}

func TestMissingApiKeyFailsBeforeNetwork(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		successEnvelope(w)
	}))
	t.Cleanup(srv.Close)

	svc := NewMailcowService(getTestLogger(), &config.MailcowConfig{ApiUrl: srv.URL})

	_, err := svc.CreateDomain(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrMailcowNotConfigured))
	assert.False(t, hit)
}

func TestGetMailboxUsage(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/get/mailbox/alice@example.com", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"alice@example.com","quota_used":512,"quota":1024}`))
	})

	usage := svc.GetMailboxUsage(context.Background(), "alice@example.com")
	assert.Equal(t, int64(512), usage.Used)
	assert.Equal(t, int64(1024), usage.Quota)
}

func TestGetMailboxUsageDegradesToZero(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	usage := svc.GetMailboxUsage(context.Background(), "ghost@example.com")
	assert.Equal(t, interfaces.MailboxUsage{}, usage)
}
