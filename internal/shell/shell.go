// Package shell tracks, per visitor, whether the application is still
// loading the session or moving between pages, and holds the page back
// behind a loading screen until both settle.
package shell

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
)

const (
	DefaultStartupFloor    = 2 * time.Second
	DefaultNavigationFloor = 1 * time.Second

	// pollInterval is how soon a visitor is asked back while the session
	// fetch is still outstanding after the startup floor.
	pollInterval = 500 * time.Millisecond
)

type Timer interface {
	Stop() bool
}

// Clock abstracts time so the floors can be tested without sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

type Config struct {
	StartupFloor    time.Duration
	NavigationFloor time.Duration
}

func (c Config) clamped() Config {
	if c.StartupFloor < 0 {
		c.StartupFloor = 0
	}
	if c.NavigationFloor < 0 {
		c.NavigationFloor = 0
	}
	return c
}

// Shell is the loading and navigation state of one visitor.
type Shell struct {
	clock Clock
	cfg   Config

	mu           sync.Mutex
	started      bool
	fetched      bool
	floorDone    bool
	loadingUntil time.Time
	session      auth.Session
	// stale is set while a re-fetch for new or invalidated credentials is
	// outstanding.
	stale   bool
	querier auth.Querier
	creds   backend.Credentials

	navigating bool
	navSeq     uint64
	navUntil   time.Time
	navTimer   Timer
	lastPath   string
	seenPath   bool

	settled     chan struct{}
	settledOnce sync.Once
}

func New(cfg Config, clock Clock) *Shell {
	if clock == nil {
		clock = RealClock()
	}
	return &Shell{
		clock:   clock,
		cfg:     cfg.clamped(),
		settled: make(chan struct{}),
	}
}

// Start begins the one startup session fetch. Later calls do nothing.
// Loading stays on until the fetch settles and the startup floor elapses,
// whichever is later.
func (s *Shell) Start(ctx context.Context, q auth.Querier, creds backend.Credentials) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.querier, s.creds = q, creds
	s.loadingUntil = s.clock.Now().Add(s.cfg.StartupFloor)
	if s.cfg.StartupFloor == 0 {
		s.floorDone = true
	} else {
		s.clock.AfterFunc(s.cfg.StartupFloor, func() {
			s.mu.Lock()
			s.floorDone = true
			s.mu.Unlock()
		})
	}
	s.mu.Unlock()

	go s.fetch(context.WithoutCancel(ctx), q, creds)
}

func (s *Shell) fetch(ctx context.Context, q auth.Querier, creds backend.Credentials) {
	session, err := q.Query(ctx, creds)
	if err != nil {
		slog.Warn("shell: startup session fetch failed", "error", err)
		session = auth.Absent()
	}
	s.settle(session)
}

// Refresh fetches the session again in the background without touching the
// loading state, for when the visitor's credentials changed.
func (s *Shell) Refresh(ctx context.Context, q auth.Querier, creds backend.Credentials) {
	s.mu.Lock()
	s.querier, s.creds = q, creds
	s.mu.Unlock()
	s.refetch(ctx)
}

// Reload fetches the session again with the credentials last seen, for when
// the cached answer for them was invalidated. It does nothing before the
// startup fetch has settled; that fetch already sees the invalidation.
func (s *Shell) Reload() {
	s.mu.Lock()
	pending := !s.fetched
	s.mu.Unlock()
	if pending {
		return
	}
	s.refetch(context.Background())
}

func (s *Shell) refetch(ctx context.Context) {
	s.mu.Lock()
	q, creds := s.querier, s.creds
	if q == nil {
		s.mu.Unlock()
		return
	}
	s.stale = true
	s.mu.Unlock()

	go func() {
		session, err := q.Query(context.WithoutCancel(ctx), creds)
		if err != nil {
			slog.Warn("shell: session refresh failed", "error", err)
			return
		}
		s.SetSession(session)
	}()
}

func (s *Shell) settle(session auth.Session) {
	s.mu.Lock()
	s.session = session
	s.fetched = true
	s.mu.Unlock()
	s.settledOnce.Do(func() { close(s.settled) })
}

// SetSession replaces the session once the startup fetch has settled.
// Earlier calls are dropped: the startup fetch goes through the same cache
// and loading must last until it answers.
func (s *Shell) SetSession(session auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fetched {
		return
	}
	s.session = session
	s.stale = false
}

// Settled is closed once the startup fetch has an answer.
func (s *Shell) Settled() <-chan struct{} {
	return s.settled
}

// Navigate records a page request. A path different from the previous one,
// or the very first path, starts the navigation floor; a new navigation
// restarts it.
func (s *Shell) Navigate(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seenPath && path == s.lastPath {
		return false
	}
	s.seenPath = true
	s.lastPath = path

	if s.cfg.NavigationFloor == 0 {
		return false
	}

	if s.navTimer != nil {
		s.navTimer.Stop()
	}
	s.navSeq++
	seq := s.navSeq
	s.navigating = true
	s.navUntil = s.clock.Now().Add(s.cfg.NavigationFloor)
	s.navTimer = s.clock.AfterFunc(s.cfg.NavigationFloor, func() {
		s.mu.Lock()
		if s.navSeq == seq {
			s.navigating = false
		}
		s.mu.Unlock()
	})
	return true
}

func (s *Shell) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingLocked()
}

func (s *Shell) loadingLocked() bool {
	return !s.started || !s.fetched || !s.floorDone
}

func (s *Shell) Navigating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigating
}

// Busy reports whether the loading screen should be shown instead of the page.
func (s *Shell) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingLocked() || s.navigating
}

// Remaining estimates how long until the shell is idle again.
func (s *Shell) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var wait time.Duration
	if s.started && s.loadingLocked() {
		if d := s.loadingUntil.Sub(now); d > wait {
			wait = d
		}
		if !s.fetched && wait < pollInterval {
			wait = pollInterval
		}
	}
	if s.navigating {
		if d := s.navUntil.Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}

// Session is the latest known answer, or Absent while the startup fetch is
// pending.
func (s *Shell) Session() auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Profile returns the visitor's session for page chrome. ok is false until
// the startup fetch settles and while a re-fetch is outstanding.
func (s *Shell) Profile() (session auth.Session, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fetched || s.stale {
		return auth.Absent(), false
	}
	return s.session, true
}

// Stop cancels the navigation timer.
func (s *Shell) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.navTimer != nil {
		s.navTimer.Stop()
	}
	s.navSeq++
	s.navigating = false
}
