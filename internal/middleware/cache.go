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
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/skiplinehq/skipline/internal/config"
)

// captureWriter tees the response into a buffer while forwarding it
// to the client, up to a byte limit, so the middleware can store
// what was actually sent.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cachedResponse is what goes into Redis: enough to replay the
// response byte for byte, headers included.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
}

// encodeCached packs [4 bytes metaLen][metaJSON][body]. The body is
// kept raw rather than JSON-escaped so replays cost one copy.
func encodeCached(status int, header http.Header, body []byte) ([]byte, error) {
	meta, err := json.Marshal(cachedResponse{Status: status, Header: header})
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4+len(meta)+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(len(meta)))
	copy(out[4:], meta)
	copy(out[4+len(meta):], body)
	return out, nil
}

func decodeCached(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 4 {
		return 0, nil, nil, false
	}
	mlen := int(binary.BigEndian.Uint32(bs[:4]))
	if mlen < 0 || 4+mlen > len(bs) {
		return 0, nil, nil, false
	}
	var meta cachedResponse
	if err := json.Unmarshal(bs[4:4+mlen], &meta); err != nil {
		return 0, nil, nil, false
	}
	if meta.Header == nil {
		meta.Header = make(http.Header)
	}
	return meta.Status, meta.Header, bs[4+mlen:], true
}

// cacheKey hashes route and query into a fixed-length key under the
// configured prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	tail := c.Path()
	if q := c.Request().URL.RawQuery; q != "" {
		tail += "?" + q
	}
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewRedisCache returns a middleware caching successful GET
// responses in Redis. Stored entries include headers so clients see
// identical formatting on hits. Disabled config or a nil client
// yields a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodeCached(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// Only full, successful bodies are cached; a truncated
			// capture must never be replayed.
			if cw.status == http.StatusOK && cw.size <= cw.limit {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					hdr[k] = append([]string(nil), vals...)
				}
				if payload, err := encodeCached(cw.status, hdr, cw.buf.Bytes()); err == nil {
					_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}
