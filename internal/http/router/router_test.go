package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "storefront_backend/internal/http"
	"storefront_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testConfig struct{}

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return false }
func (testConfig) GetCORSOrigins() []string   { return []string{"http://localhost:4200"} }
func (testConfig) GetCORSAllowCreds() bool    { return false }
func (testConfig) GetJWTAccessSecret() string { return "router-test-secret" }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/echo", func(c *gin.Context) { c.String(http.StatusOK, "public") })
	ctx.Admin.POST("/echo", func(c *gin.Context) { c.String(http.StatusOK, "admin") })
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testConfig{},
		Logger:  logger.New("test"),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	})
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthReflectsDatabasePing(t *testing.T) {
	if rec := serve(newEngine(pinger{}), http.MethodGet, "/api/health"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := serve(newEngine(pinger{err: errors.New("down")}), http.MethodGet, "/api/health"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestModuleRoutesMounted(t *testing.T) {
	engine := newEngine(pinger{})

	rec := serve(engine, http.MethodGet, "/api/v1/echo")
	if rec.Code != http.StatusOK || rec.Body.String() != "public" {
		t.Fatalf("expected public route, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers on every response")
	}

	if rec := serve(engine, http.MethodPost, "/api/v1/admin/echo"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected admin route to require auth, got %d", rec.Code)
	}
}
