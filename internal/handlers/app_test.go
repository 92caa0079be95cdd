package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	e     *echo.Echo
	deps  Deps
	store *RecordingStore
	jar   TestJar
}

// newTestApp routes every handler against a fake backend. Dashboard routes
// see session as if a gate had resolved it.
func newTestApp(t *testing.T, api http.Handler, s auth.Session) *testApp {
	t.Helper()

	client, closeBackend := NewTestBackend(api)
	t.Cleanup(closeBackend)
	deps, store := NewTestDeps(client)

	e := echo.New()
	authH := NewAuthHandler(deps)
	pages := NewPageHandler(deps)
	host := NewHostHandler(deps)
	host.now = func() time.Time { return testNow }
	individual := NewIndividualHandler(deps)
	users := NewUserHandler(deps)

	e.GET("/", pages.HandleHome)
	e.GET("/login", authH.HandleLoginPage)
	e.POST("/login", authH.HandleLogin)
	e.GET("/signup", authH.HandleSignupPage)
	e.POST("/signup", authH.HandleSignup)
	e.POST("/forgot-password", authH.HandleForgotPassword)
	e.POST("/forgot-password/verify", authH.HandleVerifyCode)
	e.POST("/forgot-password/reset", authH.HandleResetPassword)
	e.POST("/logout", authH.HandleLogout)
	e.POST("/flash/dismiss", pages.HandleDismissFlash)
	e.GET("/thumbnails/:name", HandleThumbnail)

	g := e.Group("", WithTestSession(s))
	g.GET("/host", host.HandleDashboard)
	g.POST("/host/workspaces", host.HandleCreateWorkspace)
	g.POST("/host/workspaces/:id", host.HandleUpdateWorkspace)
	g.POST("/host/workspaces/:id/toggle", host.HandleToggleWorkspace)
	g.POST("/host/profile", host.HandleUpdateProfile)
	g.GET("/individual", individual.HandleDashboard)
	g.POST("/individual/saved/:id", individual.HandleToggleSaved)
	g.POST("/individual/profile", individual.HandleUpdateProfile)
	g.GET("/userslist", users.HandleUsersList)
	g.POST("/userslist/:id", users.HandleUpdateUser)
	g.POST("/userslist/:id/delete", users.HandleDeleteUser)

	return &testApp{e: e, deps: deps, store: store, jar: TestJar{}}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	a.jar.Apply(req)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	a.jar.Update(rec)
	return rec
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(NewTestRequest(http.MethodGet, path, nil))
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return a.do(NewTestRequest(http.MethodPost, path, form))
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func businessSession() auth.Session {
	return auth.NewUser(auth.UserTypeBusiness, auth.Profile{ID: "host-1", Name: "Hana Host", Email: "hana@example.com"})
}

func individualSession() auth.Session {
	return auth.NewUser(auth.UserTypeIndividual, auth.Profile{ID: "ind-1", Name: "Ivan Ind", Email: "ivan@example.com"})
}

func adminSession() auth.Session {
	return auth.NewAdmin(auth.Profile{ID: "admin-1", Name: "Ada Admin", Email: "ada@example.com"})
}
