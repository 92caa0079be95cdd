package service

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/handlers"
)

// Tokens understood by the fake backend's "token" cookie.
const (
	tokenAdmin      = "admin"
	tokenHost       = "host"
	tokenIndividual = "individual"
	tokenUnknown    = "unknown-role"
	tokenBroken     = "broken"
)

var testUsers = map[string]backend.User{
	tokenAdmin:      {ID: "u-admin", Name: "Ada Admin", Email: "ada@example.com", Role: "admin"},
	tokenHost:       {ID: "u-host", Name: "Hana Host", Email: "hana@example.com", Role: "user", UserType: "business"},
	tokenIndividual: {ID: "u-ind", Name: "Ivan Ind", Email: "ivan@example.com", Role: "user", UserType: "individual"},
	tokenUnknown:    {ID: "u-odd", Name: "Odd", Email: "odd@example.com", Role: "superuser"},
}

// fakeBackend answers the backend calls page loads make. userCalls counts
// session lookups.
type fakeBackend struct {
	userCalls atomic.Int32
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie("token"); err == nil {
		token = c.Value
	}

	switch {
	case r.URL.Path == "/api/user":
		f.userCalls.Add(1)
		if token == tokenBroken {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		user, ok := testUsers[token]
		if !ok {
			writeTestJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
			return
		}
		writeTestJSON(w, http.StatusOK, user)
	case r.URL.Path == "/api/logout":
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
		writeTestJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	case r.Method == http.MethodGet:
		// workspace and user lists
		writeTestJSON(w, http.StatusOK, []any{})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig() *Config {
	config := &Config{
		Environment: "test",
		Port:        "8080",
		BaseURL:     "http://localhost:8080",
	}
	config.Backend.Timeout = 5 * time.Second
	config.Session.Secret = "test-secret-test-secret-test-secret"
	config.Session.CacheTTL = time.Minute
	config.Shell.IdleTTL = time.Minute
	return config
}

// setupTestService creates a service talking to a fake backend
func setupTestService(t *testing.T, config *Config) (*Service, *fakeBackend) {
	t.Helper()

	api := &fakeBackend{}
	client, closeBackend := handlers.NewTestBackend(api)
	t.Cleanup(closeBackend)

	svc := newService(config, client)
	t.Cleanup(svc.Close)
	return svc, api
}

// setupTestEcho creates an Echo instance with routes registered
func setupTestEcho(t *testing.T, config *Config) (*echo.Echo, *fakeBackend) {
	t.Helper()

	e := echo.New()
	svc, api := setupTestService(t, config)
	svc.RegisterRoutes(e)

	return e, api
}
