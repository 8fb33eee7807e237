package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otp-auth-service/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type stubTokens map[string]error

func (s stubTokens) ParseSubject(token string) (string, error) {
	err, ok := s[token]
	if !ok {
		return "", helpers.ErrTokenInvalid
	}
	if err != nil {
		return "", err
	}
	return token + "@example.com", nil
}

func authRouter() *gin.Engine {
	r := gin.New()
	tokens := stubTokens{"ada": nil, "old": fmt.Errorf("%w: exp", helpers.ErrTokenExpired)}
	r.GET("/me", Auth(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxAccountEmail))
	})
	return r
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer ada") }, http.StatusOK, "ada@example.com"},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer ada") }, http.StatusOK, "ada@example.com"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: "ada"}) }, http.StatusOK, "ada@example.com"},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized, "missing access token"},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized, "missing access token"},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") }, http.StatusUnauthorized, "invalid access token"},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer old") }, http.StatusUnauthorized, "access token expired"},
	}
	r := authRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-1", w.Body.String())
}

func TestRealIP_TrustedHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(true))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIP)) })

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"x-real-ip", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "198.51.100.1"},
		{"garbage falls back", map[string]string{"CF-Connecting-IP": "nope"}, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRealIP_IgnoresHeadersByDefault(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIP)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.7")
	req.Header.Set("X-Real-IP", "198.51.100.9")
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "192.0.2.1", w.Body.String())
}

func newLimited(t *testing.T, max int, allow AllowFunc) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP(true))
	r.POST("/api/auth/signin", RateLimit(rdb, max, time.Minute, KeyByIPAndPath(), allow), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, mr
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksAfterBudget(t *testing.T) {
	r, _ := newLimited(t, 2, nil)

	w := hit(r, "203.0.113.7")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, hit(r, "203.0.113.7").Code)

	w = hit(r, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// other clients keep their own budget
	assert.Equal(t, http.StatusNoContent, hit(r, "203.0.113.8").Code)
}

func TestRateLimit_WindowExpires(t *testing.T) {
	r, mr := newLimited(t, 1, nil)
	assert.Equal(t, http.StatusNoContent, hit(r, "203.0.113.7").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "203.0.113.7").Code)

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusNoContent, hit(r, "203.0.113.7").Code)
}

func TestRateLimit_AllowPrivateIP(t *testing.T) {
	r, _ := newLimited(t, 1, AllowPrivateIP())
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, "10.1.2.3").Code)
	}
	assert.Equal(t, http.StatusNoContent, hit(r, "203.0.113.7").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "203.0.113.7").Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r, mr := newLimited(t, 1, nil)
	mr.Close()
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, "203.0.113.7").Code)
	}
}

func TestRateLimit_NilClientIsNoop(t *testing.T) {
	h := RateLimit(nil, 1, time.Minute, KeyByIPAndPath(), nil)
	require.NotNil(t, h)
	r := gin.New()
	r.GET("/", h, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestKeyByAccount(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(CtxRealIP, "203.0.113.7")
	assert.Equal(t, "rl:account:anon:ip:203.0.113.7", KeyByAccount()(c))

	c.Set(CtxAccountEmail, "Ada@Example.com")
	assert.Equal(t, "rl:account:ada@example.com", KeyByAccount()(c))
}
