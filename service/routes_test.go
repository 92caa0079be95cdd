package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(e http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// TestTier1_CriticalPublicRoutes tests that public routes exist and render for anonymous visitors
func TestTier1_CriticalPublicRoutes(t *testing.T) {
	e, _ := setupTestEcho(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		// Core pages
		{"Home page", "GET", "/", http.StatusOK},
		{"Health check", "GET", "/health", http.StatusOK},

		// Static pages
		{"About page", "GET", "/aboutus", http.StatusOK},
		{"Safety tips", "GET", "/safetytips", http.StatusOK},
		{"Community guidelines", "GET", "/communityguidelines", http.StatusOK},
		{"Contact page", "GET", "/contact", http.StatusOK},

		// Auth pages
		{"Login page", "GET", "/login", http.StatusOK},
		{"Signup page", "GET", "/signup", http.StatusOK},

		// Generated images
		{"Listing thumbnail", "GET", "/thumbnails/Desk.png", http.StatusOK},

		// Unknown pages
		{"Missing page", "GET", "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, tt.path, "")

			assert.Equal(t, tt.wantStatus, rec.Code,
				"Route %s %s should return %d, got %d",
				tt.method, tt.path, tt.wantStatus, rec.Code)
		})
	}
}

// TestTier2_AuthProtectedRoutes tests that dashboards send anonymous visitors to the login page
func TestTier2_AuthProtectedRoutes(t *testing.T) {
	e, _ := setupTestEcho(t, testConfig())

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"Users list", "GET", "/userslist"},
		{"Update user", "POST", "/userslist/u1"},
		{"Delete user", "POST", "/userslist/u1/delete"},
		{"Host dashboard", "GET", "/host"},
		{"Create workspace", "POST", "/host/workspaces"},
		{"Toggle workspace", "POST", "/host/workspaces/w1/toggle"},
		{"Host profile", "POST", "/host/profile"},
		{"Individual dashboard", "GET", "/individual"},
		{"Save workspace", "POST", "/individual/saved/w1"},
		{"Individual profile", "POST", "/individual/profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, tt.path, "")

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
		})
	}
}

// TestTier3_RoleRouting tests that each signed-in role lands on its own dashboard
func TestTier3_RoleRouting(t *testing.T) {
	e, _ := setupTestEcho(t, testConfig())

	tests := []struct {
		name         string
		token        string
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"Admin leaves home", tokenAdmin, "/", http.StatusFound, "/userslist"},
		{"Admin sees users", tokenAdmin, "/userslist", http.StatusOK, ""},
		{"Admin may open host", tokenAdmin, "/host", http.StatusOK, ""},
		{"Host leaves login", tokenHost, "/login", http.StatusFound, "/host"},
		{"Host sees dashboard", tokenHost, "/host", http.StatusOK, ""},
		{"Host kept off users", tokenHost, "/userslist", http.StatusFound, "/host"},
		{"Host kept off individual", tokenHost, "/individual", http.StatusFound, "/host"},
		{"Individual leaves signup", tokenIndividual, "/signup", http.StatusFound, "/individual"},
		{"Individual sees dashboard", tokenIndividual, "/individual", http.StatusOK, ""},
		{"Individual kept off host", tokenIndividual, "/host", http.StatusFound, "/individual"},
		{"Unknown role sent to login", tokenUnknown, "/host", http.StatusFound, "/login"},
		{"Unknown role browses as guest", tokenUnknown, "/aboutus", http.StatusOK, ""},
		{"Backend failure sent to login", tokenBroken, "/individual", http.StatusFound, "/login"},
		{"Backend failure browses as guest", tokenBroken, "/", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, tt.path, tt.token)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

func TestGuestGate_FailClosed(t *testing.T) {
	config := testConfig()
	config.GuestGateFailClosed = true
	e, _ := setupTestEcho(t, config)

	rec := serve(e, http.MethodGet, "/login", tokenBroken)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "We could not verify your session")
}

func TestAuthGate_RemembersRequestedPage(t *testing.T) {
	e, _ := setupTestEcho(t, testConfig())

	rec := serve(e, http.MethodGet, "/individual?tab=my-spaces", "")

	require.Equal(t, http.StatusFound, rec.Code)
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "cowork_return_to" {
			found = true
			assert.Contains(t, c.Value, "individual")
		}
	}
	assert.True(t, found, "return_to cookie should be set")
}

func TestSessionCache_SharedAcrossRequests(t *testing.T) {
	e, api := setupTestEcho(t, testConfig())

	for range 3 {
		rec := serve(e, http.MethodGet, "/individual", tokenIndividual)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, int32(1), api.userCalls.Load())
}

func TestSessionQuery_NoCredentialsSkipsBackend(t *testing.T) {
	e, api := setupTestEcho(t, testConfig())

	serve(e, http.MethodGet, "/", "")
	serve(e, http.MethodGet, "/host", "")

	assert.Zero(t, api.userCalls.Load())
}

func TestLogout_InvalidatesCachedSession(t *testing.T) {
	e, api := setupTestEcho(t, testConfig())

	require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/individual", tokenIndividual).Code)

	rec := serve(e, http.MethodPost, "/logout", tokenIndividual)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	serve(e, http.MethodGet, "/individual", tokenIndividual)
	assert.Equal(t, int32(2), api.userCalls.Load())
}

func shellService(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	config := testConfig()
	config.Shell.Enabled = true
	config.Shell.StartupFloor = time.Hour
	svc, _ := setupTestService(t, config)
	e := echo.New()
	svc.RegisterRoutes(e)
	return e, svc
}

func visitorCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no visitor cookie set")
	return nil
}

func TestAppShell_NewVisitorGetsOneLoadingScreen(t *testing.T) {
	e, svc := shellService(t)

	rec := serve(e, http.MethodGet, "/contact", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "LOADING")
	assert.Equal(t, "1; url=/contact?_s=1", rec.Header().Get("Refresh"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	visitorCookie(t, rec)
	assert.Zero(t, svc.registry.Len(), "no shell until the cookie comes back")
}

func TestAppShell_CookielessClientIsNotHeldBack(t *testing.T) {
	e, svc := shellService(t)

	for range 5 {
		rec := serve(e, http.MethodGet, "/aboutus?_s=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "LOADING")
		assert.Empty(t, rec.Header().Get("Refresh"))
	}

	assert.Zero(t, svc.registry.Len())
}

func TestAppShell_HoldsFirstPageBehindLoadingScreen(t *testing.T) {
	e, svc := shellService(t)
	cookie := visitorCookie(t, serve(e, http.MethodGet, "/contact", ""))

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/contact?_s=1", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "LOADING")
		assert.Equal(t, "3600", rec.Header().Get("Refresh"))
	}

	assert.Equal(t, 1, svc.registry.Len(), "one shell per visitor")
}

func TestAppShell_SkipsUnguardedRoutes(t *testing.T) {
	config := testConfig()
	config.Shell.Enabled = true
	config.Shell.StartupFloor = time.Hour
	e, _ := setupTestEcho(t, config)

	rec := serve(e, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Refresh"))
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}
