package auth

import (
	"github.com/labstack/echo/v4"
)

// Context keys for storing gate results
const (
	SessionKey = "auth_session"
	CheckKey   = "auth_check"
)

func setSession(c echo.Context, s Session) {
	c.Set(SessionKey, s)
}

// GetSession returns the session resolved by a gate for this request.
func GetSession(c echo.Context) (Session, bool) {
	s, ok := c.Get(SessionKey).(Session)
	return s, ok
}

// GetCheck returns the gate check for this request, if a gate ran.
func GetCheck(c echo.Context) (*Check, bool) {
	ch, ok := c.Get(CheckKey).(*Check)
	return ch, ok && ch != nil
}

// IsAuthenticated reports whether a gate resolved a present session.
func IsAuthenticated(c echo.Context) bool {
	s, ok := GetSession(c)
	return ok && !s.IsAbsent()
}

// IsAdmin checks if the current request carries an admin session
func IsAdmin(c echo.Context) bool {
	s, ok := GetSession(c)
	return ok && s.Kind() == KindAdmin
}
