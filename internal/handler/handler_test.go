package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mail-routing-engine/internal/db"
	"mail-routing-engine/internal/engine"
	"mail-routing-engine/internal/metrics"
	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/store"
)

type okSender struct{}

func (okSender) Send(ctx context.Context, event *engine.InboundEvent, target string) error {
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	configs := store.NewConfigStore(gdb)
	audit := store.NewAuditStore(gdb)
	m := metrics.New(prometheus.NewRegistry())

	handlers := map[model.Action]engine.ActionHandler{
		model.ActionForward: engine.NewForwardHandler(audit, okSender{}, m),
		model.ActionWebhook: engine.NewWebhookHandler(audit, &http.Client{Timeout: 2 * time.Second}, "mail-routing-engine/1.0", m),
		model.ActionStore:   engine.NewStoreHandler(audit, m),
	}
	dispatcher := engine.NewDispatcher(configs, audit, handlers, m)

	r := gin.New()
	NewHandlers(gdb, dispatcher, configs, audit).SetupRoutes(r)
	return r, gdb
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPutConfigAndGet(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/configs", gin.H{
		"address": "support@example.com",
		"action":  "forward",
		"targets": []string{"a@example.org"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.RoutingConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "support@example.com", created.Address)

	w = doJSON(t, r, http.MethodGet, "/api/v1/configs/support@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got model.RoutingConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
}

func TestPutConfigValidationErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	// Binding-level rejection: unknown action.
	w := doJSON(t, r, http.MethodPost, "/api/v1/configs", gin.H{
		"address": "support@example.com",
		"action":  "bounce",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Store-level rejection: forward without targets, with field detail.
	w = doJSON(t, r, http.MethodPost, "/api/v1/configs", gin.H{
		"address": "support@example.com",
		"action":  "forward",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_config", resp.Error)
	assert.Contains(t, resp.Message, "targets")
}

func TestDeleteConfig(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/configs", gin.H{
		"address": "archive@example.com",
		"action":  "store",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/configs/archive@example.com", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Idempotent: deleting again still succeeds.
	w = doJSON(t, r, http.MethodDelete, "/api/v1/configs/archive@example.com", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/configs/archive@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitEventUnconfigured(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/events", gin.H{
		"from":    "someone@example.org",
		"to":      "ghost@example.com",
		"subject": "hello",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result engine.RouteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, engine.ErrAddressNotConfigured, result.Error)
}

func TestSubmitEventStore(t *testing.T) {
	r, gdb := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/configs", gin.H{
		"address": "archive@example.com",
		"action":  "store",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/events", gin.H{
		"message_id": "msg-1",
		"from":       "someone@example.org",
		"to":         "archive@example.com",
		"subject":    "keep this",
		"body":       "the body",
		"headers":    []gin.H{{"name": "X-Test", "value": "1"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result engine.RouteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, model.ActionStore, result.Action)

	var stored int64
	gdb.Model(&model.StoredEmail{}).Count(&stored)
	assert.Equal(t, int64(1), stored)
}

func TestSubmitEventRejectsMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/events", gin.H{"subject": "no addresses"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEmailLogs(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/configs", gin.H{"address": "archive@example.com", "action": "store"})
	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/v1/events", gin.H{
			"message_id": fmt.Sprintf("msg-%d", i),
			"from":       "someone@example.org",
			"to":         "archive@example.com",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/logs?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Logs       []model.EmailLog `json:"logs"`
		Pagination struct {
			Limit  int   `json:"limit"`
			Offset int   `json:"offset"`
			Total  int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Logs, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	for _, l := range resp.Logs {
		assert.Equal(t, model.EmailStatusProcessed, l.Status)
	}
}

func TestGetDebugSnapshot(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/configs", gin.H{"address": "archive@example.com", "action": "store"})
	doJSON(t, r, http.MethodPost, "/api/v1/events", gin.H{
		"from": "someone@example.org",
		"to":   "archive@example.com",
	})

	w := doJSON(t, r, http.MethodGet, "/api/v1/debug", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TotalConfigs int64          `json:"total_configs"`
		Snapshot     store.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.TotalConfigs)
	assert.Equal(t, int64(1), resp.Snapshot.EmailLogsByStatus[model.EmailStatusProcessed])
	assert.Equal(t, int64(1), resp.Snapshot.StoredEmails)
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Database)
}
