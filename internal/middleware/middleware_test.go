package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-marketplace/internal/config"
	"github.com/iliyamo/ticket-marketplace/internal/model"
	"github.com/iliyamo/ticket-marketplace/internal/utils"
)

const testSecret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, uid uint64, role string) map[string]string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, uid, role, 5)
	require.NoError(t, err)
	return map[string]string{echo.HeaderAuthorization: "Bearer " + tok.Token}
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	e.GET("/vendor", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"uid": c.Get(CtxUserID), "role": c.Get(CtxRole)})
	}, JWTAuth(testSecret), RequireRole(model.RoleVendor))

	rec := do(e, http.MethodGet, "/vendor", bearer(t, 12, model.RoleVendor))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":12,"role":"VENDOR"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/vendor", bearer(t, 12, model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/vendor", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/vendor", map[string]string{echo.HeaderAuthorization: "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := utils.NewAccessToken("other-secret", 12, model.RoleVendor, 5)
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/vendor", map[string]string{echo.HeaderAuthorization: "Bearer " + other.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/x", nil).Code)
}

func rateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "test:rl",
	}
}

func TestTokenBucketLimitsPerKey(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.POST("/retrieve", func(c echo.Context) error { return c.NoContent(http.StatusAccepted) },
		JWTAuth(testSecret), NewTokenBucket(rateLimitConfig(), rdb))

	alice := bearer(t, 1, model.RoleCustomer)
	alice["X-Real-Ip"] = "10.0.0.1"

	rec := do(e, http.MethodPost, "/retrieve", alice)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusAccepted, do(e, http.MethodPost, "/retrieve", alice).Code)

	rec = do(e, http.MethodPost, "/retrieve", alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")

	bob := bearer(t, 2, model.RoleCustomer)
	bob["X-Real-Ip"] = "10.0.0.1"
	assert.Equal(t, http.StatusAccepted, do(e, http.MethodPost, "/retrieve", bob).Code)

	assert.Len(t, mr.Keys(), 2)
	for _, k := range mr.Keys() {
		assert.Contains(t, k, "test:rl:ip:10.0.0.1:user:")
		assert.True(t, mr.TTL(k) > 0, "key %s has no ttl", k)
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(rateLimitConfig(), rdb))

	mr.Close()
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", nil).Code)
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := rateLimitConfig()
	cfg.Enabled = false
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", nil).Code)
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/retrieve", nil)
	req.Header.Set("X-Real-Ip", "1.2.3.4")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events/retrieve")
	c.Set(CtxUserID, uint64(9))

	cfg := rateLimitConfig()
	for strategy, want := range map[string]string{
		"ip":         "test:rl:ip:1.2.3.4",
		"user":       "test:rl:user:9",
		"route":      "test:rl:route:POST /v1/events/retrieve",
		"user_route": "test:rl:user:9:route:POST /v1/events/retrieve",
		"":           "test:rl:ip:1.2.3.4:user:9:route:POST /v1/events/retrieve",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}

	c.Set(CtxUserID, nil)
	cfg.KeyStrategy = "user"
	assert.Equal(t, "test:rl:user:anon", buildRateKey(cfg, c))
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "test:cache",
		MaxBodyBytes: 1 << 10,
	}
}

func TestResponseCacheHitMissPurge(t *testing.T) {
	mr, rdb := newRedis(t)
	cache := NewResponseCache(cacheConfig(), rdb)

	var calls atomic.Int32
	e := echo.New()
	e.GET("/v1/events/:id", func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, cache.Middleware())

	rec := do(e, http.MethodGet, "/v1/events/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	first := rec.Body.String()

	rec = do(e, http.MethodGet, "/v1/events/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, first, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Equal(t, int32(1), calls.Load())

	rec = do(e, http.MethodGet, "/v1/events/2", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"id":"2"}`, rec.Body.String())
	assert.Len(t, mr.Keys(), 2)

	require.NoError(t, cache.Purge(t.Context()))
	assert.Empty(t, mr.Keys())

	rec = do(e, http.MethodGet, "/v1/events/1", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestResponseCacheSkipsErrorsAndLargeBodies(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheConfig()
	cfg.MaxBodyBytes = 16
	cache := NewResponseCache(cfg, rdb)

	e := echo.New()
	e.GET("/missing", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}, cache.Middleware())
	e.GET("/big", func(c echo.Context) error {
		return c.String(http.StatusOK, "this body is longer than sixteen bytes")
	}, cache.Middleware())

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/missing", nil).Code)
	rec := do(e, http.MethodGet, "/big", nil)
	assert.Equal(t, "this body is longer than sixteen bytes", rec.Body.String())
	assert.Empty(t, mr.Keys())
}

func TestResponseCacheDisabledWithoutRedis(t *testing.T) {
	cache := NewResponseCache(cacheConfig(), nil)
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, cache.Middleware())

	rec := do(e, http.MethodGet, "/x", nil)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, cache.Purge(t.Context()))
}
