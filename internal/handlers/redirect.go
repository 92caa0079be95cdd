package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/auth"
)

const returnToCookieName = auth.OwnCookiePrefix + "return_to"

var disallowedReturnTo = map[string]struct{}{
	auth.LoginPath: {},
	"/signup":      {},
	"/logout":      {},
}

func sanitizeReturnTo(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	if strings.ContainsAny(path, "\r\n") {
		return "", false
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return "", false
	}

	if !strings.HasPrefix(path, "/") {
		return "", false
	}

	if _, blocked := disallowedReturnTo[pathOnly(path)]; blocked {
		return "", false
	}

	if strings.HasPrefix(pathOnly(path), "/forgot-password") {
		return "", false
	}

	return path, true
}

func pathOnly(path string) string {
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		return path[:idx]
	}
	return path
}

// RememberReturnTo stores the page the visitor asked for so login can send
// them back to it.
func RememberReturnTo(c echo.Context, secure bool) {
	path := c.Request().URL.RequestURI()
	if sanitized, ok := sanitizeReturnTo(path); ok {
		c.SetCookie(&http.Cookie{
			Name:     returnToCookieName,
			Value:    url.QueryEscape(sanitized),
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   300, // 5 minutes
		})
	}
}

func clearReturnTo(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     returnToCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func popReturnTo(c echo.Context, secure bool) string {
	cookie, err := c.Cookie(returnToCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	clearReturnTo(c, secure)

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}

	sanitized, ok := sanitizeReturnTo(decoded)
	if !ok {
		return ""
	}

	return sanitized
}

// afterLogin picks where a freshly signed-in user goes: the remembered page
// when the route classifier lets this session see it, else their landing page.
func afterLogin(s auth.Session, returnTo string) string {
	landing := auth.LandingPath(s)
	if returnTo == "" {
		return landing
	}
	d := auth.AuthDecision(s, pathOnly(returnTo))
	if d.Outcome == auth.Allow {
		return returnTo
	}
	return landing
}

// backTo returns the same-site page named by the Referer header, or fallback.
func backTo(c echo.Context, fallback string) string {
	ref := c.Request().Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request().Host) {
		return fallback
	}
	if sanitized, ok := sanitizeReturnTo(u.RequestURI()); ok {
		return sanitized
	}
	return fallback
}
