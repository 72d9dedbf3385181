package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// fakeStore keeps cache entries in a map so the middleware can be
// exercised without Redis.
type fakeStore struct {
	entries map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string][]byte{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := f.entries[key]; ok {
		cmd.SetVal(string(v))
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeStore) SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case []byte:
		f.entries[key] = append([]byte(nil), v...)
	case string:
		f.entries[key] = []byte(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func keyFor(t *testing.T, target, role string) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/tables/:id/availability")
	if role != "" {
		c.Set("role", role)
	}
	return cacheKeyFrom(testCacheConfig(), c)
}

func TestCacheKeyFrom(t *testing.T) {
	t.Run("distinguishes ids sharing a route template", func(t *testing.T) {
		q := "?date=2026-09-01&start_time=18:00&end_time=20:00"
		k3 := keyFor(t, "/v1/tables/3/availability"+q, "client")
		k5 := keyFor(t, "/v1/tables/5/availability"+q, "client")
		assert.NotEqual(t, k3, k5)
	})

	t.Run("stable for identical requests", func(t *testing.T) {
		assert.Equal(t,
			keyFor(t, "/v1/tables/3/availability?date=2026-09-01", "client"),
			keyFor(t, "/v1/tables/3/availability?date=2026-09-01", "client"))
	})

	t.Run("varies by query", func(t *testing.T) {
		assert.NotEqual(t,
			keyFor(t, "/v1/tables/3/availability?date=2026-09-01", "client"),
			keyFor(t, "/v1/tables/3/availability?date=2026-09-02", "client"))
	})

	t.Run("varies by role", func(t *testing.T) {
		assert.NotEqual(t,
			keyFor(t, "/v1/tables/3/availability?date=2026-09-01", "client"),
			keyFor(t, "/v1/tables/3/availability?date=2026-09-01", "admin"))
	})
}

func TestCacheMissThenHit(t *testing.T) {
	store := newFakeStore()
	e := echo.New()
	calls := 0
	e.GET("/v1/tables/:id/availability", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"table_id": c.Param("id"), "available": true})
	}, cacheWithStore(testCacheConfig(), store))

	do := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	first := do("/v1/tables/3/availability?date=2026-09-01")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	second := do("/v1/tables/3/availability?date=2026-09-01")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls, "hit must not invoke the handler")
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	other := do("/v1/tables/5/availability?date=2026-09-01")
	require.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls, "a different table id is a different entry")
	assert.NotEqual(t, first.Body.String(), other.Body.String())
}

// A cache hit ends the middleware chain, so the cache sits behind
// authentication.  A stored entry must never be replayed to a caller
// the auth middleware would reject.
func TestCacheBehindAuth(t *testing.T) {
	const secret = "cache-test-secret"
	store := newFakeStore()
	e := echo.New()
	g := e.Group("/v1/tables")
	g.Use(JWTAuth(secret))
	g.Use(cacheWithStore(testCacheConfig(), store))
	g.GET("/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "capacity": 4})
	})

	tok, err := utils.NewAccessToken(secret, 7, "client", 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/tables/3", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, store.entries, "authenticated response should be cached")

	anon := httptest.NewRequest(http.MethodGet, "/v1/tables/3", nil)
	anonRec := httptest.NewRecorder()
	e.ServeHTTP(anonRec, anon)
	assert.Equal(t, http.StatusUnauthorized, anonRec.Code)
	assert.NotContains(t, anonRec.Body.String(), "capacity")
}
