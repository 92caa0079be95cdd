package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuery struct {
	session Session
	err     error
}

func (q stubQuery) Query(ctx context.Context, creds backend.Credentials) (Session, error) {
	return q.session, q.err
}

func serveGate(t *testing.T, mw echo.MiddlewareFunc, path string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	reached := false
	e.GET(path, func(c echo.Context) error {
		reached = true
		_, ok := GetSession(c)
		require.True(t, ok, "gate must store the session")
		return c.String(http.StatusOK, "view")
	}, mw)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, reached
}

func TestRequireSession_RedirectsAnonymousToLogin(t *testing.T) {
	remembered := ""
	mw := RequireSession(stubQuery{session: Absent()}, OnLoginRedirect(func(c echo.Context) {
		remembered = c.Request().URL.Path
	}))

	rec, reached := serveGate(t, mw, "/host")

	assert.False(t, reached, "view must not render")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	assert.Equal(t, "/host", remembered)
}

func TestRequireSession_AllowsMatchingUser(t *testing.T) {
	mw := RequireSession(stubQuery{session: NewUser(UserTypeBusiness, Profile{ID: "b1"})})

	rec, reached := serveGate(t, mw, "/host")

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession_RedirectsWrongDashboard(t *testing.T) {
	called := false
	mw := RequireSession(stubQuery{session: NewUser(UserTypeBusiness, Profile{})}, OnLoginRedirect(func(echo.Context) {
		called = true
	}))

	rec, reached := serveGate(t, mw, "/individual")

	assert.False(t, reached)
	assert.Equal(t, "/host", rec.Header().Get("Location"))
	assert.False(t, called, "return-to is only remembered for login redirects")
}

func TestRequireSession_QueryErrorGoesToLogin(t *testing.T) {
	mw := RequireSession(stubQuery{err: ErrSessionUnavailable})

	rec, reached := serveGate(t, mw, "/userslist")

	assert.False(t, reached)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
}

func TestGuestOnly_AllowsAnonymous(t *testing.T) {
	rec, reached := serveGate(t, GuestOnly(stubQuery{session: Absent()}), "/login")

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuestOnly_RedirectsSignedIn(t *testing.T) {
	rec, reached := serveGate(t, GuestOnly(stubQuery{session: NewAdmin(Profile{})}), "/")

	assert.False(t, reached)
	assert.Equal(t, UsersListPath, rec.Header().Get("Location"))
}

func TestGuestOnly_FailOpenOnError(t *testing.T) {
	rec, reached := serveGate(t, GuestOnly(stubQuery{err: ErrSessionUnavailable}), "/login")

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuestOnly_FailClosedOnError(t *testing.T) {
	mw := GuestOnly(stubQuery{err: ErrSessionUnavailable}, WithFailPolicy(FailClosed))

	rec, reached := serveGate(t, mw, "/login")

	assert.False(t, reached)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheck_ResolvesOnce(t *testing.T) {
	ch := &Check{}
	assert.Equal(t, Checking, ch.State())

	assert.True(t, ch.Resolve(RedirectTo("/host")))
	assert.False(t, ch.Resolve(AllowDecision()))

	assert.Equal(t, Resolved, ch.State())
	assert.Equal(t, RedirectTo("/host"), ch.Decision())
}
