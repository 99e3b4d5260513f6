package app

import (
	"context"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var loginRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// LoginRateLimiter throttles login attempts per email and client address with
// a fixed window counter in Redis. A nil client or non-positive limit disables
// throttling entirely, so single-node deployments without Redis keep working.
type LoginRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewLoginRateLimiter creates a limiter allowing `limit` attempts per window.
func NewLoginRateLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *LoginRateLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "minibank:rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &LoginRateLimiter{
		client: client,
		prefix: trimmedPrefix,
		limit:  limit,
		window: window,
	}
}

// clientHost reduces a RemoteAddr to just the host, so attempts from the same
// client share one window regardless of the ephemeral source port.
func clientHost(remoteAddr string) string {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// Allow records one attempt and reports whether it is within the limit. When
// the limit is exceeded it returns the seconds until the window resets.
func (l *LoginRateLimiter) Allow(ctx context.Context, email, remoteAddr string) (allowed bool, retryAfterSeconds int, err error) {
	if l == nil || l.client == nil || l.limit <= 0 || l.window <= 0 {
		return true, 0, nil
	}

	subject := strings.ToLower(strings.TrimSpace(email)) + "|" + clientHost(remoteAddr)
	key := fmt.Sprintf("%s:login:%s", l.prefix, subject)

	res, err := loginRateLimitScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Slice()
	if err != nil {
		// Redis being down must not lock customers out.
		return true, 0, err
	}
	if len(res) != 2 {
		return true, 0, nil
	}

	count, _ := res[0].(int64)
	ttlMillis, _ := res[1].(int64)
	if count <= int64(l.limit) {
		return true, 0, nil
	}
	return false, int(math.Ceil(float64(ttlMillis) / 1000.0)), nil
}
