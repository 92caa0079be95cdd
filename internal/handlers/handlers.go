package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/internal/sessioncache"
	"github.com/loganlanou/cowork/internal/shell"
	"github.com/loganlanou/cowork/views"
	"github.com/loganlanou/cowork/views/layout"
)

// SessionStore is the part of the session cache handlers touch after a
// mutation that changes who the caller is.
type SessionStore interface {
	Invalidate(key string)
}

// Deps are shared by every handler.
type Deps struct {
	Backend  *backend.Client
	Sessions *session.Manager
	Cache    SessionStore
	SiteURL  string
	Secure   bool
	// MaxUpload caps image uploads, in bytes. Zero means no limit.
	MaxUpload int64
	// AdminUpdateEndpoint routes admin edits to PUT /admin/users/:id.
	AdminUpdateEndpoint bool
}

var errUploadTooLarge = errors.New("upload too large")

func (d Deps) meta(c echo.Context) layout.PageMeta {
	return layout.NewPageMeta(c, d.SiteURL)
}

// base collects what every page needs. Pending flashes are consumed here,
// so it must run before the response is written.
func (d Deps) base(c echo.Context, meta layout.PageMeta, extra ...session.Flash) views.Base {
	flashes, err := d.Sessions.Flashes(c)
	if err != nil {
		slog.Warn("failed to read flashes", "error", err, "path", c.Request().URL.Path)
	}
	return views.Base{
		Meta:    meta,
		Auth:    auth.NewContext(pageSession(c), d.Backend.AssetURL),
		Flashes: append(flashes, extra...),
		Path:    c.Request().URL.Path,
	}
}

// pageSession is who the page is rendered for: the gate's answer when a gate
// ran, otherwise what the visitor's app shell last learned. Pages outside
// the gated routes, such as error pages, rely on the shell.
func pageSession(c echo.Context) auth.Session {
	if s, ok := auth.GetSession(c); ok {
		return s
	}
	if sh, ok := shell.FromContext(c); ok {
		if s, ok := sh.Profile(); ok {
			return s
		}
	}
	return auth.Absent()
}

func (d Deps) flash(c echo.Context, kind session.FlashKind, message string) {
	if err := d.Sessions.AddFlash(c, session.Flash{Kind: kind, Message: message}); err != nil {
		slog.Warn("failed to queue flash", "error", err, "message", message)
	}
}

func (d Deps) flashError(c echo.Context, message string) {
	d.flash(c, session.FlashError, message)
}

func (d Deps) flashSuccess(c echo.Context, message string) {
	d.flash(c, session.FlashSuccess, message)
}

// invalidate drops the cached session of the caller's current credentials.
func (d Deps) invalidate(c echo.Context) {
	if d.Cache == nil {
		return
	}
	creds := auth.CredentialsFrom(c.Request())
	if len(creds) == 0 {
		return
	}
	d.Cache.Invalidate(sessioncache.Key(creds))
}

// relayCookies copies the backend's Set-Cookie headers onto our response.
// The backend's domain is dropped so the browser scopes them to this site.
func relayCookies(c echo.Context, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		relayed := *cookie
		relayed.Domain = ""
		c.SetCookie(&relayed)
	}
}

func creds(c echo.Context) backend.Credentials {
	return auth.CredentialsFrom(c.Request())
}

// currentProfile returns the signed-in user as the backend describes them,
// rebuilt from the gate's session.
func currentProfile(c echo.Context) backend.User {
	s, ok := auth.GetSession(c)
	if !ok || s.IsAbsent() {
		return backend.User{}
	}
	p := s.Profile()
	return backend.User{
		ID:       p.ID,
		Name:     p.Name,
		Email:    p.Email,
		Role:     string(s.Role()),
		UserType: string(s.UserType()),
		Image:    p.Image,
	}
}

// upload opens the optional file part named field. The returned close
// function is always safe to call.
func (d Deps) upload(c echo.Context, field string) (*backend.Upload, func(), error) {
	noop := func() {}

	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, fmt.Errorf("read %s upload: %w", field, err)
	}
	if fh.Size == 0 {
		return nil, noop, nil
	}
	if d.MaxUpload > 0 && fh.Size > d.MaxUpload {
		return nil, noop, errUploadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("open %s upload: %w", field, err)
	}

	return &backend.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Reader:      f,
	}, func() { f.Close() }, nil
}

func uploadMessage(err error) string {
	if errors.Is(err, errUploadTooLarge) {
		return "That image is too large."
	}
	return "We could not read the uploaded image."
}

func seeOther(c echo.Context, path string) error {
	return c.Redirect(http.StatusSeeOther, path)
}
