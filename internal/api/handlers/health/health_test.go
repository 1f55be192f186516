package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-ingestor/internal/core/pipeline"
	"recipe-ingestor/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type statusStub map[string]bool

func (s statusStub) ProviderStatus(context.Context) map[string]bool { return s }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	queue := pipeline.NewQueue(config.QueueConfig{MaxSize: 5}, pipeline.NewProcessor(pipeline.Options{}))
	w := serve(NewHandler("1.2.3", queue), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Contains(t, resp.Runtime, "goroutines")
	require.NotNil(t, resp.Queue)
	assert.Equal(t, 5, resp.Queue.MaxQueueSize)
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()

	h := NewHandler("dev", nil).
		AddProviders("cuisine", statusStub{"huggingface": false, "openrouter": true}).
		AddProviders("macros", statusStub{"api_ninjas": true}).
		AddCheck("database", func(context.Context) error { return nil })

	w := serve(h, "/ready")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Dependencies["database"])
	assert.False(t, resp.Providers["cuisine"]["huggingface"])
}

func TestReadinessCheck_NotReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		h    *Handler
	}{
		{"database down", NewHandler("dev", nil).AddCheck("database", func(context.Context) error {
			return errors.New("connection refused")
		})},
		{"no provider available", NewHandler("dev", nil).AddProviders("macros", statusStub{"api_ninjas": false, "usda": false})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.h, "/ready")
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Contains(t, w.Body.String(), "not_ready")
		})
	}
}

func TestReadinessCheck_ClosedQueue(t *testing.T) {
	t.Parallel()

	queue := pipeline.NewQueue(config.QueueConfig{MaxSize: 1}, pipeline.NewProcessor(pipeline.Options{}))
	queue.Close()

	w := serve(NewHandler("dev", queue), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()

	w := serve(NewHandler("dev", nil), "/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}
