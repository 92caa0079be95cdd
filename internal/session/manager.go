package session

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

const (
	CookieName = "cowork_session"
	visitorKey = "visitor"
)

// Manager manages visitor sessions
type Manager struct {
	store sessions.Store
}

// NewManager creates a new session manager
func NewManager(secret string, secure bool) *Manager {
	gob.Register(&Visitor{})
	gob.Register(&ResetState{})
	gob.Register(Flash{})

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store: store,
	}
}

func (m *Manager) get(c echo.Context) (*sessions.Session, error) {
	session, err := m.store.Get(c.Request(), CookieName)
	if err != nil {
		// A cookie signed with an old secret decodes to an error but still
		// yields a fresh session we can overwrite.
		if session == nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
	}
	return session, nil
}

func (m *Manager) save(c echo.Context, session *sessions.Session) error {
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Visitor returns the visitor record, creating and saving one with a new ID
// on first contact.
func (m *Manager) Visitor(c echo.Context) (*Visitor, error) {
	v, _, err := m.visitor(c)
	return v, err
}

func (m *Manager) visitor(c echo.Context) (*Visitor, bool, error) {
	session, err := m.get(c)
	if err != nil {
		return nil, false, err
	}

	if v, ok := session.Values[visitorKey].(*Visitor); ok && v != nil && v.ID != "" {
		return v, false, nil
	}

	v := &Visitor{ID: ulid.Make().String()}
	session.Values[visitorKey] = v
	if err := m.save(c, session); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// VisitorID returns the stable identifier of the browser. minted is true
// when the request carried no usable visitor cookie and the ID was issued
// just now, so the browser has yet to prove it keeps cookies.
func (m *Manager) VisitorID(c echo.Context) (id string, minted bool, err error) {
	v, minted, err := m.visitor(c)
	if err != nil {
		return "", false, err
	}
	return v.ID, minted, nil
}

// SaveVisitor persists changes made to v.
func (m *Manager) SaveVisitor(c echo.Context, v *Visitor) error {
	session, err := m.get(c)
	if err != nil {
		return err
	}
	session.Values[visitorKey] = v
	return m.save(c, session)
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(c echo.Context, f Flash) error {
	session, err := m.get(c)
	if err != nil {
		return err
	}
	session.AddFlash(f)
	return m.save(c, session)
}

// Flashes returns and clears the queued messages.
func (m *Manager) Flashes(c echo.Context) ([]Flash, error) {
	session, err := m.get(c)
	if err != nil {
		return nil, err
	}

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}
	if err := m.save(c, session); err != nil {
		return nil, err
	}

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes, nil
}

// ClearAccount forgets everything tied to the signed-in account while
// keeping the visitor ID.
func (m *Manager) ClearAccount(c echo.Context) error {
	v, err := m.Visitor(c)
	if err != nil {
		return err
	}
	v.Saved = nil
	v.Reset = nil
	return m.SaveVisitor(c, v)
}
