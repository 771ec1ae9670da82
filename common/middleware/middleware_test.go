package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString(RequestIDKey), "role": c.GetString("role")})
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID(), RequestLogger(zap.NewNop()))

	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = do(r, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), "abc-123")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := newRouter(rl.Middleware())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	assert.Equal(t, http.StatusOK, do(r, other).Code)
}

type stubValidator struct {
	claims jwt.MapClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (jwt.MapClaims, error) { return s.claims, s.err }

func TestRequireRole(t *testing.T) {
	admin := stubValidator{claims: jwt.MapClaims{"userId": "u1", "role": "admin"}}

	tests := []struct {
		name      string
		validator TokenValidator
		header    string
		want      int
	}{
		{"missing header", admin, "", http.StatusUnauthorized},
		{"not bearer", admin, "Basic abc", http.StatusUnauthorized},
		{"invalid token", stubValidator{err: errors.New("expired")}, "Bearer x", http.StatusUnauthorized},
		{"wrong role", stubValidator{claims: jwt.MapClaims{"role": "user"}}, "Bearer x", http.StatusForbidden},
		{"admin", admin, "Bearer x", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(RequireRole(tt.validator, "admin"))
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := do(r, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"role":"admin"`)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		r := newRouter(CORS(""))
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://shop.example")
		w := do(r, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list", func(t *testing.T) {
		r := newRouter(CORS("http://admin.example/, http://shop.example"))

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://shop.example")
		w := do(r, req)
		assert.Equal(t, "http://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://evil.example")
		w = do(r, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestStatusCodeToRange(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToRange(201))
	assert.Equal(t, "4xx", statusCodeToRange(409))
	assert.Equal(t, "unknown", statusCodeToRange(0))
}
