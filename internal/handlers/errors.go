package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/shell"
	"github.com/loganlanou/cowork/views"
)

// ErrorHandler renders echo errors as a full page in the site layout.
func (d Deps) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := ""
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok && code != http.StatusNotFound {
			message = m
		}
	}
	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request().URL.Path, "status", code, "error", err)
		if message == "" {
			message = "Something went wrong on our end. Please try again."
		}
	}

	title := http.StatusText(code)
	if code == http.StatusNotFound {
		title = "Page not found"
		message = "The page you are looking for does not exist."
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(code); err != nil {
			slog.Warn("failed to write error response", "error", err)
		}
		return
	}

	data := views.ErrorData{
		Base:    d.base(c, d.meta(c).WithTitle(title).Private()),
		Code:    code,
		Title:   title,
		Message: message,
	}
	if err := RenderStatus(c, code, views.Error(data)); err != nil {
		slog.Error("failed to render error page", "error", err)
		_ = c.String(code, title)
	}
}

// RenderLoading writes the app shell's loading screen.
func RenderLoading(c echo.Context, target string, remaining time.Duration) error {
	return Render(c, views.Loading(views.LoadingData{
		RefreshSeconds: shell.RefreshSeconds(remaining),
		Path:           target,
	}))
}
