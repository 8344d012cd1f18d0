package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// SessionTracker ends sessions after a period without requests. Each
// authenticated request refreshes a Redis key; a missing key means the
// session expired. With a nil client tracking is disabled.
type SessionTracker struct {
	rdb     *redis.Client
	timeout time.Duration
	prefix  string
}

func NewSessionTracker(rdb *redis.Client, timeout time.Duration) *SessionTracker {
	return &SessionTracker{rdb: rdb, timeout: timeout, prefix: "cop:idle:"}
}

func (s *SessionTracker) key(uid uint64) string {
	return s.prefix + strconv.FormatUint(uid, 10)
}

// Touch starts or extends the session of uid.
func (s *SessionTracker) Touch(ctx context.Context, uid uint64) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, s.key(uid), time.Now().UTC().Unix(), s.timeout).Err()
}

// End forgets uid's session so the next request is rejected.
func (s *SessionTracker) End(ctx context.Context, uid uint64) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, s.key(uid)).Err()
}

// Middleware must run after JWTAuth. Redis errors let the request through.
func (s *SessionTracker) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if s == nil || s.rdb == nil {
			return next
		}
		return func(c echo.Context) error {
			uid, ok := UserID(c)
			if !ok {
				return next(c)
			}
			ctx := c.Request().Context()
			// Refresh the TTL and learn whether the key existed in one trip.
			alive, err := s.rdb.Expire(ctx, s.key(uid), s.timeout).Result()
			if err != nil {
				slog.Warn("idle tracker unavailable", "err", err)
				return next(c)
			}
			if !alive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired due to inactivity"})
			}
			return next(c)
		}
	}
}
