package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shareit/pkg/config"
	"shareit/pkg/dto"
	"shareit/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method    string
	path      string
	query     string
	userID    string
	requestID string
	body      string
}

// fakeServer records every call and answers with status and body.
type fakeServer struct {
	mu     sync.Mutex
	calls  []recorded
	status int
	body   string
	srv    *httptest.Server
}

func newFakeServer(t *testing.T, status int, body string) *fakeServer {
	t.Helper()
	f := &fakeServer{status: status, body: body}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, recorded{
			method:    r.Method,
			path:      r.URL.Path,
			query:     r.URL.RawQuery,
			userID:    r.Header.Get(UserIDHeader),
			requestID: r.Header.Get(logging.RequestIDHeader),
			body:      string(data),
		})
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) recorded() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.calls...)
}

func testConfig(serverURL string) config.GatewayConfig {
	return config.GatewayConfig{
		ServerURL: serverURL,
		Timeout:   2 * time.Second,
		Breaker:   config.BreakerConfig{MaxFailures: 1, Timeout: time.Minute, Window: time.Minute},
	}
}

func setupGateway(t *testing.T, cfg config.GatewayConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.Nop()
	g := New(NewClient(cfg, logger), NewUserLimiter(cfg.RateLimit), logger)
	return NewRouter(g)
}

func send(r *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRelaysServerResponseVerbatim(t *testing.T) {
	server := newFakeServer(t, http.StatusNotFound, `{"error":"item with id 7 not found"}`)
	r := setupGateway(t, testConfig(server.srv.URL))

	w := send(r, http.MethodGet, "/items/7", "1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"item with id 7 not found"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logging.RequestIDHeader))

	calls := server.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "/items/7", calls[0].path)
	assert.Equal(t, "1", calls[0].userID)
	assert.Equal(t, w.Header().Get(logging.RequestIDHeader), calls[0].requestID)
}

func TestValidationHappensBeforeForwarding(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `{}`)
	r := setupGateway(t, testConfig(server.srv.URL))
	now := time.Now().UTC()

	tests := []struct {
		name   string
		method string
		path   string
		userID string
		body   interface{}
	}{
		{"missing user header", http.MethodGet, "/bookings", "", nil},
		{"non-integer user header", http.MethodGet, "/items", "abc", nil},
		{"unknown state", http.MethodGet, "/bookings?state=SOMETIMES", "1", nil},
		{"negative from", http.MethodGet, "/requests/all?from=-1&size=10", "1", nil},
		{"zero size", http.MethodGet, "/items?from=0&size=0", "1", nil},
		{"bad approved flag", http.MethodPatch, "/bookings/1?approved=perhaps", "1", nil},
		{"bad path id", http.MethodGet, "/bookings/abc", "1", nil},
		{"invalid email", http.MethodPost, "/users", "", map[string]string{"name": "a", "email": "nope"}},
		{"blank item name", http.MethodPost, "/items", "1", map[string]interface{}{"name": " ", "description": "d", "available": true}},
		{"missing available", http.MethodPost, "/items", "1", map[string]interface{}{"name": "n", "description": "d"}},
		{"blank comment", http.MethodPost, "/items/1/comment", "1", map[string]string{"text": "  "}},
		{"booking in the past", http.MethodPost, "/bookings", "1", map[string]interface{}{
			"itemId": 1,
			"start":  now.Add(-time.Hour).Format(dto.DateTimeLayout),
			"end":    now.Add(time.Hour).Format(dto.DateTimeLayout),
		}},
		{"booking end before start", http.MethodPost, "/bookings", "1", map[string]interface{}{
			"itemId": 1,
			"start":  now.Add(2 * time.Hour).Format(dto.DateTimeLayout),
			"end":    now.Add(time.Hour).Format(dto.DateTimeLayout),
		}},
		{"booking without item", http.MethodPost, "/bookings", "1", map[string]interface{}{
			"start": now.Add(time.Hour).Format(dto.DateTimeLayout),
			"end":   now.Add(2 * time.Hour).Format(dto.DateTimeLayout),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(r, tt.method, tt.path, tt.userID, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Empty(t, server.recorded())
}

func TestUnknownStateMessage(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `[]`)
	r := setupGateway(t, testConfig(server.srv.URL))

	w := send(r, http.MethodGet, "/bookings/owner?state=UNSUPPORTED_STATUS", "1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Unknown state: UNSUPPORTED_STATUS"}`, w.Body.String())
}

func TestStateIsNormalized(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `[]`)
	r := setupGateway(t, testConfig(server.srv.URL))

	w := send(r, http.MethodGet, "/bookings/owner?state=current&from=0&size=5", "2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	calls := server.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "/bookings/owner", calls[0].path)
	assert.Contains(t, calls[0].query, "state=CURRENT")
	assert.Contains(t, calls[0].query, "size=5")
}

func TestBlankSearchIsAnsweredLocally(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `[{"id":1}]`)
	r := setupGateway(t, testConfig(server.srv.URL))

	w := send(r, http.MethodGet, "/items/search?text=%20", "1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Empty(t, server.recorded())

	w = send(r, http.MethodGet, "/items/search?text=drill", "1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, server.recorded(), 1)
}

func TestForwardsValidatedBody(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `{"id":1,"status":"WAITING"}`)
	r := setupGateway(t, testConfig(server.srv.URL))
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	w := send(r, http.MethodPost, "/bookings", "2", map[string]interface{}{
		"itemId": 3,
		"start":  start.Format(dto.DateTimeLayout),
		"end":    start.Add(time.Hour).Format(dto.DateTimeLayout),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	calls := server.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.JSONEq(t, fmt.Sprintf(`{"itemId":3,"start":%q,"end":%q}`,
		start.Format(dto.DateTimeLayout), start.Add(time.Hour).Format(dto.DateTimeLayout)), calls[0].body)

	w = send(r, http.MethodPatch, "/bookings/1?approved=TRUE", "2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved=true", server.recorded()[1].query)
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	server := newFakeServer(t, http.StatusInternalServerError, `{"error":"an unexpected error occurred"}`)
	r := setupGateway(t, testConfig(server.srv.URL))

	for i := 0; i < 2; i++ {
		w := send(r, http.MethodGet, "/users", "", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}

	w := send(r, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"service unavailable"}`, w.Body.String())
	assert.Len(t, server.recorded(), 2)
}

func TestUnreachableServer(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `[]`)
	url := server.srv.URL
	server.srv.Close()
	r := setupGateway(t, testConfig(url))

	w := send(r, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimitPerUser(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `[]`)
	cfg := testConfig(server.srv.URL)
	cfg.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 2}
	r := setupGateway(t, cfg)

	for i := 0; i < 2; i++ {
		w := send(r, http.MethodGet, "/requests", "1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := send(r, http.MethodGet, "/requests", "1", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = send(r, http.MethodGet, "/requests", "2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimiterDisabled(t *testing.T) {
	assert.Nil(t, NewUserLimiter(config.RateLimitConfig{RPS: 0, Burst: 5}))
}

func TestHealth(t *testing.T) {
	server := newFakeServer(t, http.StatusOK, `[]`)
	r := setupGateway(t, testConfig(server.srv.URL))

	w := send(r, http.MethodGet, "/manage/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, server.recorded())
}
