package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return NewServer("0", zerolog.Nop())
}

func TestHealthz(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestStatus(t *testing.T) {
	s := newTestServer()
	s.startedAt = time.Now().Add(-time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.NotZero(t, snap["pid"])
	assert.Contains(t, snap, "hostname")
	assert.GreaterOrEqual(t, snap["uptime_seconds"].(float64), 60.0)
}

func TestStatusRejectsPost(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
