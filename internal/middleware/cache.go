package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/kanban-board/internal/config"
)

// ResponseCache caches GET responses per authenticated user in Redis.
// Entries are keyed by a per-user version number; bumping the version
// (Invalidate) orphans every entry of that user, which then expires by
// TTL.  A nil *ResponseCache or one without Redis is a no-op.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
}

// NewResponseCache returns a cache bound to rdb.  rdb may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
    return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) enabled() bool {
    return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

func (rc *ResponseCache) versionKey(uid string) string {
    return rc.cfg.Prefix + ":ver:" + uid
}

// Invalidate drops all cached responses of user uid.
func (rc *ResponseCache) Invalidate(ctx context.Context, uid uint64) error {
    if !rc.enabled() {
        return nil
    }
    return rc.rdb.Incr(ctx, rc.versionKey(fmt.Sprint(uid))).Err()
}

// Middleware serves cached GET responses and invalidates the caller's
// entries after any successful write.  It must run after TokenAuth.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if !rc.enabled() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u := CurrentUser(c)
            if u == nil {
                return next(c)
            }
            if c.Request().Method != http.MethodGet {
                err := next(c)
                if err == nil && c.Response().Status < http.StatusBadRequest {
                    if ierr := rc.Invalidate(c.Request().Context(), u.ID); ierr != nil {
                        c.Logger().Warnf("[cache] invalidate user=%d: %v", u.ID, ierr)
                    }
                }
                return err
            }
            return rc.serve(c, next)
        }
    }
}

func (rc *ResponseCache) serve(c echo.Context, next echo.HandlerFunc) error {
    ctx := c.Request().Context()
    uid := userID(c)
    ver, err := rc.rdb.Get(ctx, rc.versionKey(uid)).Int64()
    if err != nil && err != redis.Nil {
        // Redis unavailable: bypass the cache entirely.
        return next(c)
    }
    key := cacheKey(rc.cfg.Prefix, uid, ver, c)

    if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
        if status, hdr, body, ok := decodePayload(bs); ok {
            for k, vals := range hdr {
                if skipCachedHeader(k) {
                    continue
                }
                for _, v := range vals {
                    c.Response().Header().Add(k, v)
                }
            }
            c.Response().Header().Set("X-Cache", "HIT")
            c.Response().WriteHeader(status)
            _, err := c.Response().Write(body)
            return err
        }
    }

    cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
    c.Response().Writer = cw
    c.Response().Header().Set("X-Cache", "MISS")

    if err := next(c); err != nil {
        return err
    }
    if cw.status != http.StatusOK || cw.overflow {
        return nil
    }
    hdr := c.Response().Header().Clone()
    if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
        _ = rc.rdb.SetEx(context.Background(), key, payload, rc.cfg.TTL).Err()
    }
    return nil
}

func skipCachedHeader(k string) bool {
    return strings.EqualFold(k, echo.HeaderContentLength) ||
        strings.EqualFold(k, echo.HeaderXRequestID) ||
        strings.EqualFold(k, "X-Cache")
}

// cacheKey hashes the route and query so arbitrary query strings yield
// bounded keys.
func cacheKey(prefix, uid string, ver int64, c echo.Context) string {
    sum := sha1.Sum([]byte(c.Request().URL.Path + "?" + c.Request().URL.RawQuery))
    return fmt.Sprintf("%s:u:%s:v%d:%x", prefix, uid, ver, sum[:])
}

// captureWriter captures response body/status while forwarding to the client.
// Bodies larger than limit are not cached.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int64
    overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflow {
        if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
            cw.overflow = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}
