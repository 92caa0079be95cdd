package auth

import (
	"errors"
	"fmt"

	"github.com/loganlanou/cowork/internal/backend"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// UserType sub-classifies a non-admin user and picks their dashboard.
type UserType string

const (
	UserTypeUnset      UserType = ""
	UserTypeBusiness   UserType = "business"
	UserTypeIndividual UserType = "individual"
)

type Kind uint8

const (
	KindAbsent Kind = iota
	KindAdmin
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindAdmin:
		return "admin"
	case KindUser:
		return "user"
	default:
		return "absent"
	}
}

var (
	// ErrSessionUnavailable means the backend could not answer the session query.
	ErrSessionUnavailable = errors.New("session unavailable")
	// ErrUnrecognizedSession means the backend returned a user whose role or
	// user type is outside the known set.
	ErrUnrecognizedSession = errors.New("unrecognized session")
)

// Profile is the part of the user record the dashboards display.
type Profile struct {
	ID    string
	Name  string
	Email string
	Image string
}

// Session is the client's belief about the current identity: Absent, Admin
// or User{userType}. The zero value is Absent. Values are immutable.
type Session struct {
	kind     Kind
	userType UserType
	profile  Profile
}

func Absent() Session {
	return Session{}
}

func NewAdmin(p Profile) Session {
	return Session{kind: KindAdmin, profile: p}
}

func NewUser(t UserType, p Profile) Session {
	return Session{kind: KindUser, userType: t, profile: p}
}

func (s Session) Kind() Kind         { return s.kind }
func (s Session) IsAbsent() bool     { return s.kind == KindAbsent }
func (s Session) UserType() UserType { return s.userType }
func (s Session) Profile() Profile   { return s.profile }

// Role returns the coarse permission tier, or "" for an absent session.
func (s Session) Role() Role {
	switch s.kind {
	case KindAdmin:
		return RoleAdmin
	case KindUser:
		return RoleUser
	default:
		return ""
	}
}

func (s Session) String() string {
	if s.kind == KindUser && s.userType != UserTypeUnset {
		return fmt.Sprintf("user/%s", s.userType)
	}
	return s.kind.String()
}

// ParseUser validates a backend user record into a Session.
func ParseUser(u backend.User) (Session, error) {
	profile := Profile{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}

	switch Role(u.Role) {
	case RoleAdmin:
		return NewAdmin(profile), nil
	case RoleUser:
		switch t := UserType(u.UserType); t {
		case UserTypeUnset, UserTypeBusiness, UserTypeIndividual:
			return NewUser(t, profile), nil
		default:
			return Absent(), fmt.Errorf("%w: user type %q", ErrUnrecognizedSession, u.UserType)
		}
	default:
		return Absent(), fmt.Errorf("%w: role %q", ErrUnrecognizedSession, u.Role)
	}
}
