package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/handlers"
	"github.com/loganlanou/cowork/internal/middleware"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/internal/sessioncache"
	"github.com/loganlanou/cowork/internal/shell"
)

type Service struct {
	config   *Config
	backend  *backend.Client
	cache    *sessioncache.Cache
	registry *shell.Registry
	sessions *session.Manager
	deps     handlers.Deps

	authHandler       *handlers.AuthHandler
	pageHandler       *handlers.PageHandler
	hostHandler       *handlers.HostHandler
	individualHandler *handlers.IndividualHandler
	userHandler       *handlers.UserHandler
}

func New(config *Config) *Service {
	client := backend.NewClient(config.Backend.URL, config.Backend.Timeout)
	return newService(config, client)
}

func newService(config *Config, client *backend.Client) *Service {
	cache := sessioncache.New(auth.NewBackendQuery(client), config.Session.CacheTTL)
	registry := shell.NewRegistry(shell.Config{
		StartupFloor:    config.Shell.StartupFloor,
		NavigationFloor: config.Shell.NavigationFloor,
	}, config.Shell.IdleTTL, shell.RealClock(), cache)
	sessions := session.NewManager(config.Session.Secret, config.IsProduction())

	deps := handlers.Deps{
		Backend:             client,
		Sessions:            sessions,
		Cache:               cache,
		SiteURL:             config.BaseURL,
		Secure:              config.IsProduction(),
		MaxUpload:           config.Upload.MaxSize,
		AdminUpdateEndpoint: config.Backend.AdminUpdateEndpoint,
	}

	return &Service{
		config:            config,
		backend:           client,
		cache:             cache,
		registry:          registry,
		sessions:          sessions,
		deps:              deps,
		authHandler:       handlers.NewAuthHandler(deps),
		pageHandler:       handlers.NewPageHandler(deps),
		hostHandler:       handlers.NewHostHandler(deps),
		individualHandler: handlers.NewIndividualHandler(deps),
		userHandler:       handlers.NewUserHandler(deps),
	}
}

// Run keeps background housekeeping going until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.registry.Run(ctx)
}

func (s *Service) Close() {
	s.registry.Close()
	s.cache.Close()
}

// unguarded reports requests that never wait on a session: assets, health
// checks and generated images.
func unguarded(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/health" ||
		strings.HasPrefix(path, "/public/") ||
		strings.HasPrefix(path, "/thumbnails/")
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = s.deps.ErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(func(c echo.Context) bool {
		return strings.HasPrefix(c.Request().URL.Path, "/public/")
	}))
	e.Use(echomw.Recover())
	e.Use(middleware.SecurityHeaders())

	if s.config.Shell.Enabled {
		e.Use(shell.Middleware(shell.MiddlewareConfig{
			Skipper:   unguarded,
			Registry:  s.registry,
			Querier:   s.cache,
			VisitorID: s.sessions.VisitorID,
			Render:    handlers.RenderLoading,
		}))
	}

	// Static files - no gate
	e.Static("/public", "public")
	e.GET("/health", s.handleHealth)
	e.GET("/thumbnails/:name", handlers.HandleThumbnail)

	// Logout must work whatever state the session is in
	e.POST("/logout", s.authHandler.HandleLogout)
	e.POST("/flash/dismiss", s.pageHandler.HandleDismissFlash)

	policy := auth.FailOpen
	if s.config.GuestGateFailClosed {
		policy = auth.FailClosed
	}
	// Gates are attached per route; a gated group would also catch unknown
	// paths and turn every 404 into a redirect.
	guest := auth.GuestOnly(s.cache, auth.WithFailPolicy(policy))

	e.GET("/", s.pageHandler.HandleHome, guest)
	e.GET("/aboutus", s.pageHandler.HandleAbout, guest)
	e.GET("/safetytips", s.pageHandler.HandleSafetyTips, guest)
	e.GET("/communityguidelines", s.pageHandler.HandleGuidelines, guest)
	e.GET("/contact", s.pageHandler.HandleContact, guest)

	e.GET("/login", s.authHandler.HandleLoginPage, guest)
	e.POST("/login", s.authHandler.HandleLogin, guest)
	e.GET("/signup", s.authHandler.HandleSignupPage, guest)
	e.POST("/signup", s.authHandler.HandleSignup, guest)
	e.POST("/forgot-password", s.authHandler.HandleForgotPassword, guest)
	e.POST("/forgot-password/verify", s.authHandler.HandleVerifyCode, guest)
	e.POST("/forgot-password/reset", s.authHandler.HandleResetPassword, guest)

	// Dashboards - the gate sends each role to its own landing page
	withAuth := auth.RequireSession(s.cache, auth.OnLoginRedirect(s.authHandler.ReturnToLogin))

	e.GET("/userslist", s.userHandler.HandleUsersList, withAuth)
	e.POST("/userslist/:id", s.userHandler.HandleUpdateUser, withAuth)
	e.POST("/userslist/:id/delete", s.userHandler.HandleDeleteUser, withAuth)

	e.GET("/host", s.hostHandler.HandleDashboard, withAuth)
	e.POST("/host/workspaces", s.hostHandler.HandleCreateWorkspace, withAuth)
	e.POST("/host/workspaces/:id", s.hostHandler.HandleUpdateWorkspace, withAuth)
	e.POST("/host/workspaces/:id/toggle", s.hostHandler.HandleToggleWorkspace, withAuth)
	e.POST("/host/profile", s.hostHandler.HandleUpdateProfile, withAuth)

	e.GET("/individual", s.individualHandler.HandleDashboard, withAuth)
	e.POST("/individual/saved/:id", s.individualHandler.HandleToggleSaved, withAuth)
	e.POST("/individual/profile", s.individualHandler.HandleUpdateProfile, withAuth)
}

func (s *Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "healthy",
		"environment":     s.config.Environment,
		"backend":         s.backend.GetBaseURL(),
		"cached_sessions": s.cache.Len(),
		"active_shells":   s.registry.Len(),
	})
}
