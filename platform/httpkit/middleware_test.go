package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const testSecret = "test-access-secret"

type jwtConfig struct{}

func (jwtConfig) GetJWTAccessSecret() string { return testSecret }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func adminEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/admin", AuthRequired(jwtConfig{}), RequireRole("admin"), func(c *gin.Context) {
		identity, _ := GetIdentity(c)
		c.String(http.StatusOK, identity.UserID.String())
	})
	return engine
}

func doRequest(engine *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiredAndRole(t *testing.T) {
	engine := adminEngine()
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	if rec := doRequest(engine, ""); rec.Code != http.StatusUnauthorized || rec.Body.String() != `{"error":"missing token"}` {
		t.Fatalf("expected 401 without token, got %d %s", rec.Code, rec.Body.String())
	}

	refresh := signToken(t, jwt.MapClaims{"sub": userID.String(), "type": "refresh", "roles": []string{"admin"}, "exp": exp})
	if rec := doRequest(engine, refresh); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-access token, got %d", rec.Code)
	}

	user := signToken(t, jwt.MapClaims{"sub": userID.String(), "type": "access", "roles": []string{"user"}, "exp": exp})
	if rec := doRequest(engine, user); rec.Code != http.StatusForbidden || rec.Body.String() != `{"error":"forbidden"}` {
		t.Fatalf("expected 403 without admin role, got %d %s", rec.Code, rec.Body.String())
	}

	admin := signToken(t, jwt.MapClaims{"sub": userID.String(), "type": "access", "roles": []string{"admin"}, "exp": exp})
	rec := doRequest(engine, admin)
	if rec.Code != http.StatusOK || rec.Body.String() != userID.String() {
		t.Fatalf("expected 200 with caller id, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2, nil)
	engine.GET("/search", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}
