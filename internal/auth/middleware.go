package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// State of a single gate check. A check starts in Checking and resolves
// exactly once.
type State uint8

const (
	Checking State = iota
	Resolved
)

type Check struct {
	state    State
	decision Decision
}

func (ch *Check) State() State       { return ch.state }
func (ch *Check) Decision() Decision { return ch.decision }

// Resolve records the terminal decision. It reports false if the check was
// already resolved, in which case the first decision stands.
func (ch *Check) Resolve(d Decision) bool {
	if ch.state == Resolved {
		return false
	}
	ch.state = Resolved
	ch.decision = d
	return true
}

type gateConfig struct {
	policy          FailPolicy
	onLoginRedirect func(c echo.Context)
}

type GateOption func(*gateConfig)

// WithFailPolicy sets how a guest gate treats a failed session query.
func WithFailPolicy(p FailPolicy) GateOption {
	return func(cfg *gateConfig) { cfg.policy = p }
}

// OnLoginRedirect runs just before the auth gate redirects to the login page.
func OnLoginRedirect(fn func(c echo.Context)) GateOption {
	return func(cfg *gateConfig) { cfg.onLoginRedirect = fn }
}

// RequireSession is the auth gate. It queries the session on every request
// and either lets the handler run or redirects before anything renders.
func RequireSession(q Querier, opts ...GateOption) echo.MiddlewareFunc {
	cfg := gateConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			check := &Check{}
			c.Set(CheckKey, check)

			session, err := q.Query(c.Request().Context(), CredentialsFrom(c.Request()))
			if err != nil {
				slog.Warn("auth gate: session query failed", "path", path, "error", err)
			}

			decision := ResolveAuth(session, err, path)
			check.Resolve(decision)
			slog.Debug("auth gate resolved", "path", path, "session", session.String(), "decision", decision.String())

			if decision.Outcome == Redirect {
				if decision.Target == LoginPath && cfg.onLoginRedirect != nil {
					cfg.onLoginRedirect(c)
				}
				return c.Redirect(http.StatusFound, decision.Target)
			}

			setSession(c, session)
			return next(c)
		}
	}
}

// GuestOnly is the guest gate for pages meant only for anonymous visitors.
func GuestOnly(q Querier, opts ...GateOption) echo.MiddlewareFunc {
	cfg := gateConfig{policy: FailOpen}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			check := &Check{}
			c.Set(CheckKey, check)

			session, err := q.Query(c.Request().Context(), CredentialsFrom(c.Request()))
			if err != nil {
				slog.Warn("guest gate: session query failed", "path", path, "error", err)
			}

			decision := ResolveGuest(session, err, cfg.policy)
			check.Resolve(decision)
			slog.Debug("guest gate resolved", "path", path, "session", session.String(), "decision", decision.String())

			switch decision.Outcome {
			case Redirect:
				return c.Redirect(http.StatusFound, decision.Target)
			case Deny:
				return echo.NewHTTPError(http.StatusServiceUnavailable, "We could not verify your session. Please try again shortly.")
			}

			setSession(c, Absent())
			return next(c)
		}
	}
}
