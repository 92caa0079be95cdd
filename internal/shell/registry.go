package shell

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/loganlanou/cowork/internal/sessioncache"
)

const DefaultIdleTTL = 30 * time.Minute

// Publisher is the part of the session cache a registry listens to.
type Publisher interface {
	Subscribe(fn func(sessioncache.Event)) (unsubscribe func())
}

type tracked struct {
	shell    *Shell
	key      string
	lastSeen time.Time
}

// Registry holds one Shell per visitor and keeps each one's session in step
// with the session cache.
type Registry struct {
	cfg     Config
	clock   Clock
	idleTTL time.Duration

	mu     sync.Mutex
	shells map[string]*tracked
	byKey  map[string]map[string]struct{}

	unsubscribe func()
}

func NewRegistry(cfg Config, idleTTL time.Duration, clock Clock, events Publisher) *Registry {
	if clock == nil {
		clock = RealClock()
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	r := &Registry{
		cfg:     cfg,
		clock:   clock,
		idleTTL: idleTTL,
		shells:  make(map[string]*tracked),
		byKey:   make(map[string]map[string]struct{}),
	}
	if events != nil {
		r.unsubscribe = events.Subscribe(r.handle)
	}
	return r
}

// Get returns the shell for visitorID, creating it if needed, and binds it
// to the credential key the visitor currently presents. created is true for
// a new shell; rebound is true when an existing shell changed key.
func (r *Registry) Get(visitorID, key string) (sh *Shell, created, rebound bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	t, ok := r.shells[visitorID]
	if !ok {
		t = &tracked{shell: New(r.cfg, r.clock), key: key}
		r.shells[visitorID] = t
		r.bind(visitorID, key)
		created = true
	} else if t.key != key {
		r.unbind(visitorID, t.key)
		t.key = key
		r.bind(visitorID, key)
		rebound = true
	}
	t.lastSeen = now
	return t.shell, created, rebound
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}

// Sweep forgets visitors idle for longer than the idle TTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	removed := 0
	for id, t := range r.shells {
		if now.Sub(t.lastSeen) <= r.idleTTL {
			continue
		}
		t.shell.Stop()
		r.unbind(id, t.key)
		delete(r.shells, id)
		removed++
	}
	return removed
}

// Run sweeps idle shells until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.Debug("shell registry: swept idle visitors", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func (r *Registry) handle(ev sessioncache.Event) {
	r.mu.Lock()
	var targets []*Shell
	for id := range r.byKey[ev.Key] {
		if t, ok := r.shells[id]; ok {
			targets = append(targets, t.shell)
		}
	}
	r.mu.Unlock()

	for _, sh := range targets {
		if ev.Invalidated {
			sh.Reload()
			continue
		}
		sh.SetSession(ev.Session)
	}
}

func (r *Registry) bind(visitorID, key string) {
	if key == "" {
		return
	}
	set, ok := r.byKey[key]
	if !ok {
		set = make(map[string]struct{})
		r.byKey[key] = set
	}
	set[visitorID] = struct{}{}
}

func (r *Registry) unbind(visitorID, key string) {
	set, ok := r.byKey[key]
	if !ok {
		return
	}
	delete(set, visitorID)
	if len(set) == 0 {
		delete(r.byKey, key)
	}
}
