// Package sessioncache coalesces and briefly remembers session queries so
// the gates and the app shell of one visitor share a single backend fetch.
package sessioncache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = 5 * time.Second

	// invalidation markers are kept at least this long so an in-flight
	// fetch that started before the invalidation is recognised as stale.
	defaultMarkerTTL = 2 * time.Minute

	maxAttempts = 2
)

// Event is published whenever the cached answer for a key changes.
type Event struct {
	Key         string
	Session     auth.Session
	Invalidated bool
}

type entry struct {
	session auth.Session
	gen     uint64
	expires time.Time
}

type marker struct {
	gen uint64
	at  time.Time
}

// Cache is an auth.Querier that decorates another Querier.
type Cache struct {
	next      auth.Querier
	ttl       time.Duration
	markerTTL time.Duration
	now       func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	gen     uint64
	entries map[string]entry
	minGen  map[string]marker
	subs    map[int]func(Event)
	nextSub int

	stop      chan struct{}
	closeOnce sync.Once
}

type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithoutJanitor disables the background sweep.
func WithoutJanitor() Option {
	return func(c *Cache) { c.stop = nil }
}

func New(next auth.Querier, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		next:      next,
		ttl:       ttl,
		markerTTL: defaultMarkerTTL,
		now:       time.Now,
		entries:   make(map[string]entry),
		minGen:    make(map[string]marker),
		subs:      make(map[int]func(Event)),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.stop != nil {
		go c.janitor()
	}
	return c
}

// Key identifies a credential set. Cookie order does not matter.
func Key(creds backend.Credentials) string {
	if len(creds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(creds))
	for _, cookie := range creds {
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	sort.Strings(parts)

	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type result struct {
	session auth.Session
	stale   bool
}

func (c *Cache) Query(ctx context.Context, creds backend.Credentials) (auth.Session, error) {
	key := Key(creds)
	if key == "" {
		return c.next.Query(ctx, creds)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
			c.mu.Unlock()
			return e.session, nil
		}
		flight := key + "#" + strconv.FormatUint(c.minGen[key].gen, 10)
		c.mu.Unlock()

		v, err, _ := c.group.Do(flight, func() (any, error) {
			return c.fetch(ctx, key, creds)
		})
		if err != nil {
			return auth.Absent(), err
		}

		res := v.(result)
		if !res.stale {
			return res.session, nil
		}
		slog.Debug("session cache: discarded stale result", "attempt", attempt+1)
	}
	return auth.Absent(), fmt.Errorf("%w: session kept changing during %d fetches", auth.ErrSessionUnavailable, maxAttempts)
}

func (c *Cache) fetch(ctx context.Context, key string, creds backend.Credentials) (result, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	// Waiters share this fetch, so one caller going away must not cancel it
	// for the others. The backend client bounds it with its own timeout.
	session, err := c.next.Query(context.WithoutCancel(ctx), creds)
	if err != nil {
		return result{}, err
	}

	c.mu.Lock()
	if gen < c.minGen[key].gen {
		c.mu.Unlock()
		return result{session: session, stale: true}, nil
	}
	c.entries[key] = entry{session: session, gen: gen, expires: c.now().Add(c.ttl)}
	subs := c.subscribers()
	c.mu.Unlock()

	publish(subs, Event{Key: key, Session: session})
	return result{session: session}, nil
}

// Store records a session learned outside of a query, such as a login
// response, and supersedes any fetch in flight for the key.
func (c *Cache) Store(key string, s auth.Session) {
	if key == "" {
		return
	}
	c.mu.Lock()
	c.gen++
	c.minGen[key] = marker{gen: c.gen, at: c.now()}
	c.entries[key] = entry{session: s, gen: c.gen, expires: c.now().Add(c.ttl)}
	subs := c.subscribers()
	c.mu.Unlock()

	publish(subs, Event{Key: key, Session: s})
}

// Invalidate drops the cached answer for key. Fetches already in flight for
// key will not be stored or published.
func (c *Cache) Invalidate(key string) {
	if key == "" {
		return
	}
	c.mu.Lock()
	c.gen++
	c.minGen[key] = marker{gen: c.gen, at: c.now()}
	delete(c.entries, key)
	subs := c.subscribers()
	c.mu.Unlock()

	publish(subs, Event{Key: key, Session: auth.Absent(), Invalidated: true})
}

// Subscribe registers fn for every change. fn runs on the goroutine that
// made the change and must not call back into the cache synchronously.
func (c *Cache) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Len reports the number of cached answers, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes expired answers and old invalidation markers.
func (c *Cache) Sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, key)
		}
	}
	for key, m := range c.minGen {
		if now.Sub(m.at) > c.markerTTL {
			delete(c.minGen, key)
		}
	}
}

func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		if c.stop != nil {
			close(c.stop)
		}
	})
}

func (c *Cache) janitor() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}

// subscribers must be called with mu held.
func (c *Cache) subscribers() []func(Event) {
	out := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
