package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/sessioncache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginBackend(t *testing.T, user backend.User) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "fresh", Path: "/", HttpOnly: true, Domain: "api.example.com"})
		writeJSON(t, w, http.StatusOK, map[string]any{"user": user})
	})
	return mux
}

func TestHandleLogin_RedirectsToLanding(t *testing.T) {
	user := backend.User{ID: "u1", Name: gofakeit.Name(), Email: gofakeit.Email(), Role: "user", UserType: "business"}
	app := newTestApp(t, loginBackend(t, user), auth.Absent())
	app.jar["token"] = "stale"

	rec := app.post("/login", url.Values{"email": {user.Email}, "password": {"secret"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/host", rec.Header().Get("Location"))
	assert.Equal(t, "fresh", app.jar["token"])

	// the session cached under the old cookie is dropped
	stale := sessioncache.Key(backend.Credentials{{Name: "token", Value: "stale"}})
	assert.Equal(t, []string{stale}, app.store.Keys())
}

func TestHandleLogin_RelayedCookieLosesBackendDomain(t *testing.T) {
	user := backend.User{ID: "u1", Email: gofakeit.Email(), Role: "admin"}
	app := newTestApp(t, loginBackend(t, user), auth.Absent())

	rec := app.post("/login", url.Values{"email": {user.Email}, "password": {"secret"}})

	assert.Equal(t, "/userslist", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			assert.Empty(t, c.Domain)
			return
		}
	}
	t.Fatal("token cookie was not relayed")
}

func TestHandleLogin_ReturnsToRememberedPage(t *testing.T) {
	user := backend.User{ID: "u1", Email: gofakeit.Email(), Role: "user", UserType: "business"}
	app := newTestApp(t, loginBackend(t, user), auth.Absent())
	app.jar[returnToCookieName] = url.QueryEscape("/host?tab=earnings")

	rec := app.post("/login", url.Values{"email": {user.Email}, "password": {"secret"}})

	assert.Equal(t, "/host?tab=earnings", rec.Header().Get("Location"))
	assert.NotContains(t, app.jar, returnToCookieName)
}

func TestHandleLogin_BackendMessageShown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"message": "Invalid credentials"})
	})
	app := newTestApp(t, mux, auth.Absent())

	rec := app.post("/login", url.Values{"email": {"ada@example.com"}, "password": {"nope"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Contains(t, rec.Body.String(), `value="ada@example.com"`)
	assert.Empty(t, app.store.Keys())
}

func TestHandleLogin_FallbackMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	app := newTestApp(t, mux, auth.Absent())

	rec := app.post("/login", url.Values{"email": {"ada@example.com"}, "password": {"nope"}})
	assert.Contains(t, rec.Body.String(), "Login failed")
}

func TestHandleLogin_UnrecognizedRole(t *testing.T) {
	user := backend.User{ID: "u1", Email: gofakeit.Email(), Role: "superuser"}
	app := newTestApp(t, loginBackend(t, user), auth.Absent())

	rec := app.post("/login", url.Values{"email": {user.Email}, "password": {"secret"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed")
	assert.NotContains(t, app.jar, "token")
}

func TestHandleLogin_ValidatesBeforeCallingBackend(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	app := newTestApp(t, mux, auth.Absent())

	rec := app.post("/login", url.Values{"password": {"secret"}})

	assert.Contains(t, rec.Body.String(), "Email is required.")
	assert.Zero(t, calls.Load())
}

func TestHandleSignup_PasswordsMustMatch(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	app := newTestApp(t, mux, auth.Absent())

	rec := app.post("/signup", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret2"},
		"user_type":        {"business"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords don&#39;t match")
	assert.Contains(t, rec.Body.String(), `value="business" checked`)
	assert.Zero(t, calls.Load())
}

func TestHandleSignup_RegistersAndFlashes(t *testing.T) {
	var got url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got = r.MultipartForm.Value
		writeJSON(t, w, http.StatusCreated, map[string]string{"message": "ok"})
	})
	app := newTestApp(t, mux, auth.Absent())

	rec := app.post("/signup", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, []string{"individual"}, got["userType"])
	assert.Equal(t, []string{"Ada"}, got["name"])

	page := app.get("/login")
	assert.Contains(t, page.Body.String(), "Account created. Please sign in.")

	// flashes show once
	again := app.get("/login")
	assert.NotContains(t, again.Body.String(), "Account created. Please sign in.")
}

func TestHandleSignup_BackendMessageShown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, map[string]string{"message": "Email already registered"})
	})
	app := newTestApp(t, mux, auth.Absent())

	rec := app.post("/signup", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestPasswordResetFlow(t *testing.T) {
	var verifyCalls atomic.Int32
	var resetBody map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/updatepassword", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /api/verifycode", func(w http.ResponseWriter, r *http.Request) {
		if verifyCalls.Add(1) == 1 {
			writeJSON(t, w, http.StatusOK, map[string]any{"success": false, "error": "Code expired"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /api/resetpassword", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&resetBody))
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true})
	})
	app := newTestApp(t, mux, auth.Absent())

	page := app.get("/login?forgot=1")
	assert.Contains(t, page.Body.String(), `action="/forgot-password"`)

	rec := app.post("/forgot-password", url.Values{"email": {"ada@example.com"}})
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, app.get("/login").Body.String(), `action="/forgot-password/verify"`)

	app.post("/forgot-password/verify", url.Values{"code": {"000000"}})
	page = app.get("/login")
	assert.Contains(t, page.Body.String(), "Code expired")
	assert.Contains(t, page.Body.String(), `action="/forgot-password/verify"`)

	app.post("/forgot-password/verify", url.Values{"code": {"123456"}})
	assert.Contains(t, app.get("/login").Body.String(), `action="/forgot-password/reset"`)

	app.post("/forgot-password/reset", url.Values{"password": {"n3w-secret"}})
	assert.Contains(t, app.get("/login").Body.String(), "Password reset successfully!")
	assert.Equal(t, map[string]string{"email": "ada@example.com", "code": "123456", "newPassword": "n3w-secret"}, resetBody)

	rec = app.get("/login?forgot=cancel")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, app.get("/login").Body.String(), "Reset Password")
}

func TestPasswordReset_StepsOutOfOrder(t *testing.T) {
	app := newTestApp(t, http.NotFoundHandler(), auth.Absent())

	rec := app.post("/forgot-password/reset", url.Values{"password": {"n3w-secret"}})
	assert.Equal(t, "/login?forgot=1", rec.Header().Get("Location"))

	rec = app.post("/forgot-password/verify", url.Values{"code": {"123456"}})
	assert.Equal(t, "/login?forgot=1", rec.Header().Get("Location"))
}

func TestPasswordReset_SendFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/updatepassword", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	app := newTestApp(t, mux, auth.Absent())

	app.post("/forgot-password", url.Values{"email": {"ada@example.com"}})
	page := app.get("/login").Body.String()
	assert.Contains(t, page, "Failed to send code.")
	assert.Contains(t, page, `action="/forgot-password"`)
}

func TestHandleLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "bye"})
	})
	app := newTestApp(t, mux, auth.Absent())
	app.jar["token"] = "live"

	rec := app.post("/logout", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.NotContains(t, app.jar, "token")
	assert.Len(t, app.store.Keys(), 1)
	assert.Contains(t, app.get("/login").Body.String(), "Logged out successfully")
}

func TestHandleLogout_Failure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	app := newTestApp(t, mux, businessSession())
	app.jar["token"] = "live"

	req := NewTestRequest(http.MethodPost, "/logout", url.Values{})
	req.Header.Set("Referer", "http://example.com/host?tab=profile")
	rec := app.do(req)

	assert.Equal(t, "/host?tab=profile", rec.Header().Get("Location"))
	assert.Equal(t, "live", app.jar["token"])
	assert.Empty(t, app.store.Keys())
}
