// Package cache is a best-effort JSON cache over redis. Every failure is
// logged and reported as a miss, so callers fall through to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/logger"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Client is safe for concurrent use. A nil or disabled Client behaves as an
// always-empty cache.
type Client struct {
	opts Options
	log  *logrus.Entry

	mu  sync.Mutex
	rdb *redis.Client
}

func New(opts Options) *Client {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	return &Client{opts: opts, log: logger.WithModule("cache")}
}

// Enabled reports whether an address was configured.
func (c *Client) Enabled() bool {
	return c != nil && c.opts.Addr != ""
}

// Connect dials and pings redis. Calling it again after a successful
// connect is a no-op; after a failure it retries.
func (c *Client) Connect(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb != nil {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.opts.Addr,
		Password: c.opts.Password,
		DB:       c.opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", c.opts.Addr, err)
	}
	c.rdb = rdb
	c.log.WithField("addr", c.opts.Addr).Info("Redis connection established")
	return nil
}

// Close releases the connection. The client may be connected again.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb == nil {
		return nil
	}
	err := c.rdb.Close()
	c.rdb = nil
	return err
}

func (c *Client) conn() *redis.Client {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rdb
}

// GetJSON decodes the cached value of key into dst and reports a hit.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	rdb := c.conn()
	if rdb == nil {
		return false
	}
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", key).Warn("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache entry undecodable")
		return false
	}
	return true
}

func (c *Client) SetJSON(ctx context.Context, key string, v any) {
	rdb := c.conn()
	if rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache value not encodable")
		return
	}
	if err := rdb.Set(ctx, key, data, c.opts.TTL).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// DeletePrefix removes every key starting with prefix.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) {
	rdb := c.conn()
	if rdb == nil {
		return
	}
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.WithError(err).WithField("prefix", prefix).Warn("cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("prefix", prefix).Warn("cache delete failed")
	}
}

// Key joins parts with ':'. Empty parts are kept so positions stay stable.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// ExportKey is the cache key of one export model. inputsUpdatedAt changes on
// every edit of the scenario and prevVersion on every change of its
// predecessor, so a stale model is never served.
func ExportKey(scenarioID string, inputsUpdatedAt time.Time, prevVersion, sheet, currency, year string) string {
	return Key("export", scenarioID, inputsUpdatedAt.UTC().Format(time.RFC3339Nano), prevVersion, sheet, currency, year)
}
