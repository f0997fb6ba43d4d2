package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// LeaseTTL bounds how long an uncommitted reservation holds a seat
	LeaseTTL = 30 * time.Second
	seatTTL  = 24 * time.Hour
)

// SeatCache hands out prediction slots for a session. A seat is held by a lease
// from Reserve until Commit or Release. Leases that are never settled expire
// after LeaseTTL, so a lost release cannot keep a session full.
type SeatCache interface {
	// Reserve claims one seat and returns its lease id. taken is the persisted
	// prediction count, used to seed the committed counter.
	Reserve(ctx context.Context, sessionID string, taken int64, capacity int) (lease string, ok bool, err error)
	// Commit turns a lease into a counted seat once its prediction is stored.
	Commit(ctx context.Context, sessionID, lease string) error
	// Release gives back a seat whose prediction was never written.
	Release(ctx context.Context, sessionID, lease string) error
}

// KEYS: committed counter, lease zset
// ARGV: taken, capacity, now (ms), lease ttl (ms), lease id, key ttl (s)
var reserveScript = redis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1], 'NX', 'EX', ARGV[6])
local now = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', now - tonumber(ARGV[4]))

local committed = tonumber(redis.call('GET', KEYS[1]))
local pending = redis.call('ZCARD', KEYS[2])
local taken = tonumber(ARGV[1])
if pending == 0 and taken > committed then
	committed = taken
	redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[6])
end

if committed + pending >= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[5])
redis.call('EXPIRE', KEYS[1], ARGV[6])
redis.call('EXPIRE', KEYS[2], ARGV[6])
return 1
`)

// KEYS: committed counter, lease zset
// ARGV: lease id
var commitScript = redis.NewScript(`
redis.call('ZREM', KEYS[2], ARGV[1])
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('INCR', KEYS[1])
end
return 1
`)

type seatCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewSeatCache creates a new seat cache
func NewSeatCache(client *redis.Client) SeatCache {
	return &seatCache{client: client, now: time.Now}
}

// keys share a hash tag so the scripts also run on Redis Cluster
func (c *seatCache) keys(sessionID string) []string {
	return []string{
		fmt.Sprintf("session:{%s}:seats", sessionID),
		fmt.Sprintf("session:{%s}:leases", sessionID),
	}
}

func (c *seatCache) Reserve(ctx context.Context, sessionID string, taken int64, capacity int) (string, bool, error) {
	lease := uuid.NewString()
	ok, err := reserveScript.Run(ctx, c.client, c.keys(sessionID),
		taken,
		capacity,
		c.now().UnixMilli(),
		LeaseTTL.Milliseconds(),
		lease,
		int64(seatTTL.Seconds()),
	).Int()
	if err != nil {
		return "", false, err
	}
	if ok == 0 {
		return "", false, nil
	}
	return lease, true, nil
}

func (c *seatCache) Commit(ctx context.Context, sessionID, lease string) error {
	return commitScript.Run(ctx, c.client, c.keys(sessionID), lease).Err()
}

func (c *seatCache) Release(ctx context.Context, sessionID, lease string) error {
	return c.client.ZRem(ctx, c.keys(sessionID)[1], lease).Err()
}
