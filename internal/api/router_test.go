package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/api/handler"
	"github.com/wholesalehub/sessiongate/internal/core/service"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/db/memory"
)

type testServer struct {
	t   *testing.T
	srv *echo.Echo
}

func newTestServer(t *testing.T, now time.Time, health map[string]handler.Pinger) *testServer {
	t.Helper()
	repo := memory.NewAccountRepository()
	clock := service.WithServiceClock(func() time.Time { return now })
	e := NewRouter(Deps{
		Auth:         service.NewAuthService(repo, "secret", 100*24*time.Hour, zerolog.Nop(), clock),
		Verification: service.NewVerificationService(repo, zerolog.Nop(), clock),
		JWTSecret:    "secret",
		Health:       health,
		Registerer:   prometheus.NewRegistry(),
		Log:          zerolog.Nop(),
	})
	return &testServer{t: t, srv: e}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) registerAndLogin(role, email string) (token string, profile map[string]any) {
	s.t.Helper()
	body := `{"email":"` + email + `","password":"pass123"}`
	if rec := s.do(http.MethodPost, "/register/"+role, "", body); rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: expected 201, got %d: %s", role, rec.Code, rec.Body)
	}
	rec := s.do(http.MethodPost, "/login/"+role, "", body)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: expected 200, got %d: %s", role, rec.Code, rec.Body)
	}
	var resp struct {
		Token   string         `json:"token"`
		Profile map[string]any `json:"profile"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		s.t.Fatalf("invalid login json: %v", err)
	}
	return resp.Token, resp.Profile
}

func TestRouter_ProfileIsRoleBound(t *testing.T) {
	s := newTestServer(t, time.Now(), nil)
	sellerToken, profile := s.registerAndLogin("seller", "s@example.com")

	if profile["verification_status"] != "not_required" {
		t.Fatalf("unexpected seller profile %v", profile)
	}
	if _, leaked := profile["password_hash"]; leaked {
		t.Fatalf("password hash leaked in profile")
	}

	if rec := s.do(http.MethodGet, "/profile/seller", sellerToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/profile/admin", sellerToken, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("seller token must not authenticate admin, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/profile/seller", "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/profile/seller", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestRouter_LoginErrors(t *testing.T) {
	s := newTestServer(t, time.Now(), nil)
	s.registerAndLogin("buyer", "b@example.com")

	rec := s.do(http.MethodPost, "/login/buyer", "", `{"email":"b@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = s.do(http.MethodPost, "/login/buyer", "", `{"email":"not-an-email","password":"x"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "email must be a valid email") {
		t.Fatalf("expected validation error, got %d: %s", rec.Code, rec.Body)
	}
	rec = s.do(http.MethodPost, "/register/buyer", "", `{"email":"b@example.com","password":"pass123"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate account, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/login/root", "", `{"email":"b@example.com","password":"pass123"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown role, got %d", rec.Code)
	}
}

func TestRouter_VerificationFlow(t *testing.T) {
	registered := time.Now()
	early := newTestServer(t, registered, nil)
	sellerToken, profile := early.registerAndLogin("seller", "s@example.com")
	sellerID, _ := profile["id"].(string)

	// During the trial there is nothing to submit.
	if rec := early.do(http.MethodPost, "/verification/submit", sellerToken, `{"documents":["id.pdf"]}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 during trial, got %d: %s", rec.Code, rec.Body)
	}
	if rec := early.do(http.MethodPost, "/verification/submit", sellerToken, `{"documents":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without documents, got %d", rec.Code)
	}

	adminToken, _ := early.registerAndLogin("admin", "a@example.com")
	buyerToken, _ := early.registerAndLogin("buyer", "b@example.com")

	if rec := early.do(http.MethodPost, "/verification/submit", buyerToken, `{"documents":["id.pdf"]}`); rec.Code != http.StatusForbidden {
		t.Fatalf("buyers cannot submit verification, got %d", rec.Code)
	}
	if rec := early.do(http.MethodPost, "/admin/sellers/"+sellerID+"/verification/approve", sellerToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("sellers cannot approve, got %d", rec.Code)
	}
	if rec := early.do(http.MethodPost, "/admin/sellers/"+sellerID+"/verification/approve", adminToken, ""); rec.Code != http.StatusConflict {
		t.Fatalf("approve before submission must conflict, got %d", rec.Code)
	}
	if rec := early.do(http.MethodPost, "/admin/sellers/missing/verification/approve", adminToken, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown seller, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, time.Now(), map[string]handler.Pinger{
		"mongodb": handler.PingFunc(func(context.Context) error { return nil }),
		"redis":   handler.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	if rec := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp struct {
		Status       string                       `json:"status"`
		Dependencies map[string]map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"]["status"] != "unhealthy" || resp.Dependencies["mongodb"]["status"] != "ok" {
		t.Fatalf("unexpected readiness %+v", resp)
	}

	if rec := s.do(http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestHTTPErrorHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	s := newTestServer(t, time.Now(), nil)
	s.srv.GET("/boom", func(echo.Context) error { return errors.New("mongo: socket closed at 10.0.0.3") })

	rec := s.do(http.MethodGet, "/boom", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Fatalf("internal error details leaked: %s", rec.Body)
	}
}
