package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/redisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gomodule/redigo/redis"
)

const (
	keyActive    = "authui.active"
	keyExpiresAt = "authui.expires_at"
)

// TrackerConfig configures the per-browser session tracker.
type TrackerConfig struct {
	Lifetime   time.Duration
	CookieName string
	Secure     bool
	// RedisURL selects the Redis store (redis://host:port/db). Empty keeps
	// sessions in memory.
	RedisURL string
	// RedisMaxIdle bounds idle pooled connections.
	RedisMaxIdle int
}

// Tracker remembers, per browser, whether the identity API last reported an
// active session and until when. It is the server-side counterpart of Store.
type Tracker struct {
	*scs.SessionManager
	pool *redis.Pool
}

var _ Recorder = (*Tracker)(nil)

// NewTracker builds a tracker backed by memory or Redis.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	manager := scs.New()
	if cfg.Lifetime > 0 {
		manager.Lifetime = cfg.Lifetime
	}
	if cfg.CookieName != "" {
		manager.Cookie.Name = cfg.CookieName
	}
	manager.Cookie.HttpOnly = true
	manager.Cookie.SameSite = http.SameSiteLaxMode
	manager.Cookie.Secure = cfg.Secure

	tracker := &Tracker{SessionManager: manager}
	if cfg.RedisURL == "" {
		manager.Store = memstore.New()
		return tracker, nil
	}

	maxIdle := cfg.RedisMaxIdle
	if maxIdle <= 0 {
		maxIdle = 10
	}
	url := cfg.RedisURL
	pool := &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(url)
		},
	}
	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("session: connect redis: %w", err)
	}

	manager.Store = redisstore.New(pool)
	tracker.pool = pool
	return tracker, nil
}

// RecordActive stores the session expiry for the browser in ctx.
func (t *Tracker) RecordActive(ctx context.Context, expiresAt time.Time) {
	t.Put(ctx, keyActive, true)
	t.Put(ctx, keyExpiresAt, expiresAt.UTC().Format(time.RFC3339Nano))
}

// RecordInactive forgets the browser's session.
func (t *Tracker) RecordInactive(ctx context.Context) {
	t.Remove(ctx, keyActive)
	t.Remove(ctx, keyExpiresAt)
}

// Snapshot returns the tracked state, inactive once the expiry passed.
func (t *Tracker) Snapshot(ctx context.Context, now time.Time) State {
	if !t.GetBool(ctx, keyActive) {
		return State{}
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, t.GetString(ctx, keyExpiresAt))
	if err != nil || !expiresAt.After(now) {
		return State{}
	}
	return State{Active: true, ExpiresAt: expiresAt}
}

// Close releases the Redis pool, if any.
func (t *Tracker) Close() error {
	if t.pool == nil {
		return nil
	}
	if err := t.pool.Close(); err != nil {
		return fmt.Errorf("session: close redis pool: %w", err)
	}
	return nil
}
