// Package cache holds the Redis-backed calendar cache. The public
// day-view is read far more often than bookings change, so day keys
// are cached with a short TTL and invalidated on every write to the
// slot they cover.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Calendar caches serialized day views keyed by venue and date. A nil
// client disables caching; every lookup is then a miss.
type Calendar struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCalendar(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *Calendar {
	return &Calendar{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "calendar_cache").Logger(),
	}
}

func key(venueID int64, day string) string {
	return fmt.Sprintf("calendar:%d:%s", venueID, day)
}

// Get loads a cached day view into dest. Returns false on a miss or
// any cache error; cache failures never surface to callers.
func (c *Calendar) Get(ctx context.Context, venueID int64, day string, dest interface{}) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key(venueID, day)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn().Err(err).Msg("cache entry corrupt")
		return false
	}
	return true
}

// Set stores a day view under the configured TTL.
func (c *Calendar) Set(ctx context.Context, venueID int64, day string, val interface{}) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, key(venueID, day), raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache write failed")
	}
}

// Invalidate drops the day view for a venue/date pair. Called after
// every booking mutation touching that day.
func (c *Calendar) Invalidate(ctx context.Context, venueID int64, day string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(venueID, day)).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}
