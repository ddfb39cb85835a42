package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jupyterchat/internal/config"
	"jupyterchat/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Server.BaseURL = "/"
	cfg.Server.SessionSecret = "test-secret"
	cfg.Server.Token = "tok"
	cfg.OpenTelemetry.ServiceName = config.DefaultServiceName
	return cfg
}

func TestNewApplication_ServesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := NewApplication(newTestConfig(), nil, observability.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, ":0", app.server.Addr)
	assert.Equal(t, config.ServerReadHeaderTimeout, app.server.ReadHeaderTimeout)

	w := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/jupyterlab-chat/config", nil)
	req.Header.Set("Authorization", "token tok")
	w = httptest.NewRecorder()
	app.server.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"feedbackUrl":""}`, w.Body.String())
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := NewApplication(newTestConfig(), nil, observability.NewNopLogger())
	require.NoError(t, err)
	app.server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_ReturnsExitCodeOnServeFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  session_secret: test-secret\n"), 0o600))
	t.Setenv(config.ConfigFileEnv, configFile)
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_SERVICE_VERSION", "")

	assert.Equal(t, 1, run())
}

func TestRun_ReturnsExitCodeOnInvalidConfig(t *testing.T) {
	t.Setenv(config.ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, 1, run())
}
