package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another hit on key fits into the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// fixedWindowScript increments the counter and arms its expiry on the first hit.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
	return 0
end
return 1
`)

// FixedWindow is a Redis backed fixed-window counter.
type FixedWindow struct {
	rdb    *redis.Client
	prefix string
}

// NewFixedWindow creates a limiter whose keys live under prefix.
func NewFixedWindow(rdb *redis.Client, prefix string) *FixedWindow {
	return &FixedWindow{rdb: rdb, prefix: prefix}
}

func (f *FixedWindow) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	res, err := fixedWindowScript.Run(ctx, f.rdb, []string{f.prefix + key}, limit, window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
