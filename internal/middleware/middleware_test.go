package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/kanban-board/internal/authz"
    "github.com/iliyamo/kanban-board/internal/config"
    "github.com/iliyamo/kanban-board/internal/model"
    "github.com/iliyamo/kanban-board/internal/repository"
)

type fakeTokens map[string]*model.User

func (f fakeTokens) Resolve(_ context.Context, raw string) (*model.User, error) {
    if raw == "token_broken" {
        return nil, errors.New("db down")
    }
    if u, ok := f[raw]; ok {
        return u, nil
    }
    return nil, repository.ErrNotFound
}

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        u := CurrentUser(c)
        if u == nil {
            return c.String(http.StatusOK, "anonymous")
        }
        return c.String(http.StatusOK, u.Username)
    }, mw...)
    return e
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if auth != "" {
        req.Header.Set(echo.HeaderAuthorization, auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestTokenAuth(t *testing.T) {
    alice := &model.User{ID: 1, Username: "alice"}
    e := newEcho(TokenAuth(fakeTokens{"token_abc": alice}))

    cases := []struct {
        name   string
        header string
        status int
        body   string
    }{
        {"token scheme", "Token token_abc", http.StatusOK, "alice"},
        {"bearer scheme", "Bearer token_abc", http.StatusOK, "alice"},
        {"bare token", "token_abc", http.StatusOK, "alice"},
        {"missing", "", http.StatusUnauthorized, "missing authorization token"},
        {"unknown token", "Token token_zzz", http.StatusUnauthorized, "invalid token"},
        {"bad scheme", "Basic token_abc", http.StatusUnauthorized, "invalid authorization header"},
        {"double space", "Token  token_abc", http.StatusUnauthorized, "invalid authorization header"},
        {"store failure", "Token token_broken", http.StatusInternalServerError, "internal server error"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := do(e, http.MethodGet, "/me", tc.header)
            assert.Equal(t, tc.status, rec.Code)
            assert.Contains(t, rec.Body.String(), tc.body)
        })
    }
}

func TestRequireCapability(t *testing.T) {
    admin := &model.User{ID: 1, Username: "root", Role: model.RoleAdmin}
    user := &model.User{ID: 2, Username: "bob", Role: model.RoleUser}
    tokens := fakeTokens{"token_admin": admin, "token_user": user}
    e := newEcho(TokenAuth(tokens), RequireCapability(authz.CapManageUsers))

    assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/me", "Token token_admin").Code)
    rec := do(e, http.MethodGet, "/me", "Token token_user")
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Contains(t, rec.Body.String(), `"error"`)

    // without TokenAuth in front there is no identity at all
    bare := newEcho(RequireCapability(authz.CapManageUsers))
    assert.Equal(t, http.StatusUnauthorized, do(bare, http.MethodGet, "/me", "").Code)
}

func TestDisabledLimiterAndCachePassThrough(t *testing.T) {
    rl := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
    cache := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
    e := newEcho(rl, cache.Middleware())

    for i := 0; i < 3; i++ {
        rec := do(e, http.MethodGet, "/me", "")
        assert.Equal(t, http.StatusOK, rec.Code)
        assert.Empty(t, rec.Header().Get("X-Cache"))
    }
    assert.NoError(t, cache.Invalidate(context.Background(), 1))

    var nilCache *ResponseCache
    assert.NoError(t, nilCache.Invalidate(context.Background(), 1))
}

func TestRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/api/boards")

    cfg := config.RateLimitConfig{Prefix: "rl"}
    for strategy, want := range map[string]string{
        "ip":         "rl:ip:10.0.0.1",
        "user":       "rl:user:guest",
        "route":      "rl:route:GET /api/boards",
        "ip_user":    "rl:ip:10.0.0.1:user:guest",
        "user_route": "rl:user:guest:route:GET /api/boards",
        "":           "rl:ip:10.0.0.1:user:guest:route:GET /api/boards",
    } {
        cfg.KeyStrategy = strategy
        assert.Equal(t, want, rateKey(cfg, c), strategy)
    }

    c.Set(userKey, &model.User{ID: 42})
    cfg.KeyStrategy = "user"
    assert.Equal(t, "rl:user:42", rateKey(cfg, c))
}

func TestParseBucketReply(t *testing.T) {
    st, ok := parseBucketReply([]interface{}{int64(1), int64(4), int64(0)})
    require.True(t, ok)
    assert.True(t, st.allowed)
    assert.EqualValues(t, 4, st.remaining)

    st, ok = parseBucketReply([]interface{}{int64(0), int64(0), int64(1500)})
    require.True(t, ok)
    assert.False(t, st.allowed)
    assert.Equal(t, 1500, int(st.retry.Milliseconds()))

    _, ok = parseBucketReply("nope")
    assert.False(t, ok)
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", got.Get("Content-Type"))
    assert.JSONEq(t, `{"a":1}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 0, 0})
    assert.False(t, ok)
    _, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
    assert.False(t, ok)
}

func TestCaptureWriterOverflow(t *testing.T) {
    rec := httptest.NewRecorder()
    cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("ab"))
    assert.False(t, cw.overflow)
    _, _ = cw.Write([]byte("cde"))
    assert.True(t, cw.overflow)
    assert.Zero(t, cw.buf.Len())
    assert.Equal(t, "abcde", rec.Body.String())
}
