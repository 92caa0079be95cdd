package shell

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/sessioncache"
)

// ContextKey is where the middleware leaves the visitor's shell.
const ContextKey = "shell"

// ContinueParam marks the request a new visitor's browser makes after the
// first loading screen. Arriving with it but still without a visitor cookie
// means the browser does not keep cookies.
const ContinueParam = "_s"

// LoadingRenderer writes the loading screen. target is the URL the screen
// sends the browser back to.
type LoadingRenderer func(c echo.Context, target string, remaining time.Duration) error

type MiddlewareConfig struct {
	Skipper  middleware.Skipper
	Registry *Registry
	Querier  auth.Querier
	// VisitorID returns a stable identifier for the browser making the
	// request, creating one if needed. minted reports that the request
	// carried no visitor cookie.
	VisitorID func(c echo.Context) (id string, minted bool, err error)
	Render    LoadingRenderer
}

// Middleware renders the loading screen instead of the page while the
// visitor's shell is busy. Only GET page requests are held back; gates and
// handlers do not run until the shell is idle.
func Middleware(cfg MiddlewareConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = middleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet || cfg.Skipper(c) {
				return next(c)
			}

			visitorID, minted, err := cfg.VisitorID(c)
			if err != nil {
				return err
			}
			if minted {
				if c.QueryParam(ContinueParam) != "" {
					return next(c)
				}
				// No shell until the browser comes back with the cookie.
				target := continueURL(req.URL)
				return loading(c, cfg.Render, target, RefreshSeconds(0)+"; url="+target, 0)
			}

			creds := auth.CredentialsFrom(req)
			sh, created, rebound := cfg.Registry.Get(visitorID, sessioncache.Key(creds))
			switch {
			case created:
				sh.Start(req.Context(), cfg.Querier, creds)
			case rebound:
				sh.Refresh(req.Context(), cfg.Querier, creds)
			}
			sh.Navigate(req.URL.Path)
			c.Set(ContextKey, sh)

			if !sh.Busy() {
				return next(c)
			}

			remaining := sh.Remaining()
			return loading(c, cfg.Render, req.URL.RequestURI(), RefreshSeconds(remaining), remaining)
		}
	}
}

func loading(c echo.Context, render LoadingRenderer, target, refresh string, remaining time.Duration) error {
	c.Response().Header().Set("Refresh", refresh)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return render(c, target, remaining)
}

func continueURL(u *url.URL) string {
	q := u.Query()
	q.Set(ContinueParam, "1")
	next := *u
	next.RawQuery = q.Encode()
	return next.RequestURI()
}

// RefreshSeconds formats d for a Refresh header, rounding up to at least
// one second.
func RefreshSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// FromContext returns the shell the middleware attached, if any.
func FromContext(c echo.Context) (*Shell, bool) {
	sh, ok := c.Get(ContextKey).(*Shell)
	return sh, ok && sh != nil
}
