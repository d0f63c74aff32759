package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	req  events.APIGatewayProxyRequest
	resp events.APIGatewayProxyResponse
	err  error
}

func (s *stubHandler) Handle(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	s.req = req
	return s.resp, s.err
}

func newTestServer(t *testing.T, h EventHandler, opts Options) *Server {
	t.Helper()
	s, err := New(h, opts)
	require.NoError(t, err)
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestNew_ValidatesHandler(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)
}

func TestNew_RejectsOriginWithoutScheme(t *testing.T) {
	var (
		s   *Server
		err error
	)
	require.NotPanics(t, func() {
		s, err = New(&stubHandler{}, Options{AllowedOrigins: []string{"parkerelectrical.co.uk"}})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cors")
	require.Nil(t, s)
}

func TestServeEvent_ForwardsRequestAndResponse(t *testing.T) {
	h := &stubHandler{resp: events.APIGatewayProxyResponse{
		StatusCode: http.StatusCreated,
		Headers:    map[string]string{"Content-Type": "application/json", "X-Correlation-Id": "corr-1"},
		Body:       `{"success":true}`,
	}}
	s := newTestServer(t, h, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat?debug=1", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", "corr-1")
	req.RemoteAddr = "203.0.113.7:5555"
	rec := do(s, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.Equal(t, "corr-1", rec.Header().Get("X-Correlation-Id"))

	require.Equal(t, http.MethodPost, h.req.HTTPMethod)
	require.Equal(t, "/api/chat", h.req.Path)
	require.Equal(t, `{"message":"hi"}`, h.req.Body)
	require.Equal(t, "application/json", h.req.Headers["Content-Type"])
	require.Equal(t, "1", h.req.QueryStringParameters["debug"])
	require.Equal(t, "203.0.113.7", h.req.RequestContext.Identity.SourceIP)
}

func TestServeEvent_Base64Response(t *testing.T) {
	h := &stubHandler{resp: events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Body:            "aGVsbG8=",
		IsBase64Encoded: true,
	}}
	s := newTestServer(t, h, Options{})
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, "hello", rec.Body.String())
}

func TestServeEvent_HandlerError(t *testing.T) {
	s := newTestServer(t, &stubHandler{err: errors.New("boom")}, Options{})
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestServeEvent_BodyTooLarge(t *testing.T) {
	h := &stubHandler{}
	s := newTestServer(t, h, Options{})
	big := strings.Repeat("a", maxBodyBytes+1)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(big)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Empty(t, h.req.HTTPMethod)
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, &stubHandler{}, Options{})
	s.Engine().GET("/panic", func(*gin.Context) { panic("kaboom") })
	rec := do(s, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Internal server error")
}

func TestCORSPreflight(t *testing.T) {
	h := &stubHandler{}
	s := newTestServer(t, h, Options{AllowedOrigins: []string{"https://parkerelectrical.co.uk"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://parkerelectrical.co.uk")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := do(s, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://parkerelectrical.co.uk", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, h.req.HTTPMethod)
}

func TestRateLimit(t *testing.T) {
	h := &stubHandler{resp: events.APIGatewayProxyResponse{StatusCode: http.StatusOK}}
	s := newTestServer(t, h, Options{RateLimitPerMin: 2})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
		req.RemoteAddr = ip + ":1234"
		return do(s, req).Code
	}
	require.Equal(t, http.StatusOK, send("198.51.100.1"))
	require.Equal(t, http.StatusOK, send("198.51.100.1"))
	require.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	require.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestRateLimitDisabled(t *testing.T) {
	h := &stubHandler{resp: events.APIGatewayProxyResponse{StatusCode: http.StatusOK}}
	s := newTestServer(t, h, Options{RateLimitPerMin: 0})
	for range 5 {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLimiterStore_RefillsAndSweeps(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store := newLimiterStore(1)
	store.now = func() time.Time { return now }

	require.True(t, store.allow("a"))
	require.False(t, store.allow("a"))

	now = now.Add(time.Minute)
	require.True(t, store.allow("a"))

	now = now.Add(limiterIdleTTL + time.Second)
	require.True(t, store.allow("b"))
	require.Len(t, store.visitors, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	h := &stubHandler{}
	s := newTestServer(t, h, Options{RateLimitPerMin: 1})
	for range 3 {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "go_goroutines")
	}
	require.Empty(t, h.req.HTTPMethod)
}

func TestMetricsEndpoint_CustomGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_hits_total", Help: "test counter"})
	reg.MustRegister(hits)
	hits.Inc()

	s := newTestServer(t, &stubHandler{}, Options{Gatherer: reg})
	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "test_hits_total 1")
	require.NotContains(t, rec.Body.String(), "go_goroutines")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &stubHandler{}, Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
