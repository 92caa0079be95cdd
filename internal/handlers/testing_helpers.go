package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
)

// NewTestRequest builds a request, form-encoded when form is non-nil
func NewTestRequest(method, path string, form url.Values) *http.Request {
	if form == nil {
		return httptest.NewRequest(method, path, nil)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// WithTestSession is middleware that plays the part of a gate that resolved s.
func WithTestSession(s auth.Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(auth.SessionKey, s)
			return next(c)
		}
	}
}

// NewTestBackend starts a fake backend API and returns a client for it
func NewTestBackend(handler http.Handler) (*backend.Client, func()) {
	srv := httptest.NewServer(handler)
	return backend.NewClient(srv.URL+"/api", 0), srv.Close
}

// RecordingStore is a SessionStore that remembers invalidated keys
type RecordingStore struct {
	mu   sync.Mutex
	keys []string
}

func (s *RecordingStore) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
}

func (s *RecordingStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

// NewTestDeps wires handlers to client with a throwaway cookie secret
func NewTestDeps(client *backend.Client) (Deps, *RecordingStore) {
	store := &RecordingStore{}
	return Deps{
		Backend:  client,
		Sessions: session.NewManager("test-secret-test-secret-test-secret", false),
		Cache:    store,
		SiteURL:  "http://localhost:8000",
	}, store
}

// TestJar keeps cookies between test requests the way a browser would:
// later Set-Cookie headers replace earlier ones and expired cookies go away.
type TestJar map[string]string

func (j TestJar) Update(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(j, c.Name)
			continue
		}
		j[c.Name] = c.Value
	}
}

func (j TestJar) Apply(req *http.Request) {
	for name, value := range j {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}
