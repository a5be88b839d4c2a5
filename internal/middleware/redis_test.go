package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/portal-compras-gateway/internal/authz"
    "github.com/iliyamo/portal-compras-gateway/internal/config"
    "github.com/iliyamo/portal-compras-gateway/internal/logging"
    "github.com/iliyamo/portal-compras-gateway/internal/model"
    "github.com/iliyamo/portal-compras-gateway/internal/session"
    "github.com/iliyamo/portal-compras-gateway/internal/store"
)

// userAuth signs in whoever asks, with access to the registrations.
type userAuth struct{}

func (userAuth) Login(_ context.Context, username, _ string) (model.SessionRecord, error) {
    return model.SessionRecord{
        AccessToken: "tok-" + username,
        Username:    username,
        Resources:   []string{string(authz.PermSuppliers)},
        HeadOffices: []model.HeadOffice{{ID: 1, Code: "MTZ", Name: "Matriz"}},
    }, nil
}

func (userAuth) FindSession(context.Context, string) (model.SessionRecord, error) {
    return model.SessionRecord{}, nil
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb, mr
}

// listAPI stands in for the resource handler: it answers the signed-in
// username and counts how often it ran.
type listAPI struct {
    mu    sync.Mutex
    calls int
}

func (a *listAPI) count() int {
    a.mu.Lock()
    defer a.mu.Unlock()
    return a.calls
}

func (a *listAPI) list(c echo.Context) error {
    a.mu.Lock()
    a.calls++
    a.mu.Unlock()
    u := session.FromContext(c.Request().Context()).User().Username
    return c.JSON(http.StatusOK, echo.Map{"data": []string{u}, "totalRows": 1})
}

func newCachedGateway(t *testing.T, api *listAPI) (*echo.Echo, *miniredis.Miniredis) {
    t.Helper()
    rdb, mr := newRedis(t)
    log := logging.Discard()
    cfg := config.CacheConfig{
        Enabled:      true,
        TTL:          time.Minute,
        Prefix:       "cache",
        MaxBodyBytes: 1 << 20,
        Resources:    map[string]bool{"suppliers": true},
    }

    e := echo.New()
    g := e.Group("",
        Partition(secret, time.Hour, false, log),
        Session(store.NewRedisBackend(rdb, "session", time.Hour), userAuth{}, log),
    )
    g.POST("/sign-in/:user", func(c echo.Context) error {
        ctx := c.Request().Context()
        if err := session.FromContext(ctx).SignIn(ctx, c.Param("user"), "pw"); err != nil {
            return err
        }
        return c.NoContent(http.StatusNoContent)
    })
    g.POST("/sign-out", func(c echo.Context) error {
        session.FromContext(c.Request().Context()).SignOut(c.Request().Context())
        return c.NoContent(http.StatusNoContent)
    })
    r := g.Group("/v1/resources", RequireLogged("/"), NewResourceCache(cfg, rdb, log))
    r.GET("/:resource", api.list)
    r.POST("/:resource", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
    return e, mr
}

func send(e *echo.Echo, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    for _, ck := range cookies {
        req.AddCookie(ck)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestResourceCache_HitThenInvalidatedByWrite(t *testing.T) {
    api := &listAPI{}
    e, mr := newCachedGateway(t, api)
    ck := partitionCookie(t, send(e, http.MethodPost, "/sign-in/ana"))

    miss := send(e, http.MethodGet, "/v1/resources/suppliers?perPage=10", ck)
    require.Equal(t, http.StatusOK, miss.Code)
    require.Equal(t, "MISS", miss.Header().Get("X-Cache"))
    require.Len(t, mr.Keys(), 2) // session hash and one cached list

    hit := send(e, http.MethodGet, "/v1/resources/suppliers?perPage=10", ck)
    require.Equal(t, http.StatusOK, hit.Code)
    require.Equal(t, "HIT", hit.Header().Get("X-Cache"))
    require.JSONEq(t, miss.Body.String(), hit.Body.String())
    require.Equal(t, 1, api.count())

    other := send(e, http.MethodGet, "/v1/resources/suppliers?perPage=20", ck)
    require.Equal(t, "MISS", other.Header().Get("X-Cache"))
    require.Equal(t, 2, api.count())

    require.Equal(t, http.StatusCreated, send(e, http.MethodPost, "/v1/resources/suppliers", ck).Code)
    for _, k := range mr.Keys() {
        require.False(t, strings.HasPrefix(k, "cache:"), k)
    }

    again := send(e, http.MethodGet, "/v1/resources/suppliers?perPage=10", ck)
    require.Equal(t, "MISS", again.Header().Get("X-Cache"))
    require.Equal(t, 3, api.count())
}

func TestResourceCache_NextSignInOnSameBrowserNeverSeesEarlierLists(t *testing.T) {
    api := &listAPI{}
    e, _ := newCachedGateway(t, api)
    ck := partitionCookie(t, send(e, http.MethodPost, "/sign-in/ana"))

    first := send(e, http.MethodGet, "/v1/resources/suppliers", ck)
    require.Contains(t, first.Body.String(), "ana")

    require.Equal(t, http.StatusNoContent, send(e, http.MethodPost, "/sign-out", ck).Code)
    signIn := send(e, http.MethodPost, "/sign-in/bia", ck)
    require.Equal(t, http.StatusNoContent, signIn.Code)
    require.Empty(t, signIn.Result().Cookies())

    second := send(e, http.MethodGet, "/v1/resources/suppliers", ck)
    require.Equal(t, http.StatusOK, second.Code)
    require.Equal(t, "MISS", second.Header().Get("X-Cache"))
    require.Contains(t, second.Body.String(), "bia")
    require.NotContains(t, second.Body.String(), "ana")
    require.Equal(t, 2, api.count())
}

func TestTokenBucket_BlocksWhenEmpty(t *testing.T) {
    rdb, _ := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip",
        Prefix:         "rl",
    }
    e := echo.New()
    e.POST("/v1/auth/sign-in", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(cfg, rdb, logging.Discard()))

    for i := 0; i < 2; i++ {
        rec := send(e, http.MethodPost, "/v1/auth/sign-in")
        require.Equal(t, http.StatusOK, rec.Code)
        require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
    }

    blocked := send(e, http.MethodPost, "/v1/auth/sign-in")
    require.Equal(t, http.StatusTooManyRequests, blocked.Code)
    require.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
    require.NotEmpty(t, blocked.Header().Get("Retry-After"))
    require.Contains(t, blocked.Body.String(), "too_many_requests")
}
