// Package cache provides an optional redis-backed marker for recently
// scraped URLs. The crawler works unchanged when redis is absent; every
// method degrades to a no-op.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// connectTimeout bounds the startup connectivity check
const connectTimeout = 5 * time.Second

const keyPrefix = "partscope:scraped:"

// Client wraps a redis connection that may be missing or broken. A nil
// Client, or one whose connection failed at startup, is safe to use.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

// New connects to redis at addr. An empty addr or a failed connection is not
// fatal; the returned client simply never reports cache hits.
func New(addr string, ttl time.Duration, log *logrus.Logger) *Client {
	c := &Client{ttl: ttl, log: log}

	if addr == "" {
		log.Info("Redis not configured, using local dedup only")
		return c
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("Redis connection failed, continuing without cache: %v", err)
		rdb.Close()
		return c
	}

	log.Infof("Redis connected: %s", addr)
	c.rdb = rdb
	return c
}

// RecentlyScraped reports whether the URL was marked within the TTL window.
// Errors and an absent connection both read as "not recently scraped".
func (c *Client) RecentlyScraped(ctx context.Context, url string) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	n, err := c.rdb.Exists(ctx, keyPrefix+url).Result()
	if err != nil {
		c.log.Debugf("Cache lookup failed for %s: %v", url, err)
		return false
	}
	return n > 0
}

// MarkScraped records the URL with the configured TTL; failures are logged
// and otherwise ignored
func (c *Client) MarkScraped(ctx context.Context, url string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+url, "1", c.ttl).Err(); err != nil {
		c.log.Debugf("Cache write failed for %s: %v", url, err)
	}
}

// Close releases the redis connection if one was established
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
