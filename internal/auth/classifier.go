package auth

import (
	"fmt"
	"strings"
)

const (
	LoginPath      = "/login"
	HostPath       = "/host"
	IndividualPath = "/individual"
	UsersListPath  = "/userslist"
)

type Outcome uint8

const (
	Allow Outcome = iota
	Redirect
	// Deny is the "unknown, deny" answer a fail-closed guest gate gives when
	// the session could not be determined.
	Deny
)

type Decision struct {
	Outcome Outcome
	Target  string
}

func AllowDecision() Decision {
	return Decision{Outcome: Allow}
}

func RedirectTo(path string) Decision {
	return Decision{Outcome: Redirect, Target: path}
}

func DenyDecision() Decision {
	return Decision{Outcome: Deny}
}

func (d Decision) String() string {
	switch d.Outcome {
	case Allow:
		return "allow"
	case Redirect:
		return fmt.Sprintf("redirect(%s)", d.Target)
	default:
		return "deny"
	}
}

// FailPolicy decides what a guest gate does when the session query fails.
type FailPolicy uint8

const (
	// FailOpen treats a failed query as an anonymous visitor.
	FailOpen FailPolicy = iota
	FailClosed
)

// LandingPath is the dashboard a present session belongs on.
func LandingPath(s Session) string {
	switch s.Kind() {
	case KindAdmin:
		return UsersListPath
	case KindUser:
		if s.UserType() == UserTypeBusiness {
			return HostPath
		}
		return IndividualPath
	default:
		return LoginPath
	}
}

// AuthDecision classifies a request for a path that requires a session.
// Admins pass everywhere; business users are kept under /host and
// individual users under /individual.
func AuthDecision(s Session, path string) Decision {
	switch s.Kind() {
	case KindAdmin:
		return AllowDecision()
	case KindUser:
		switch s.UserType() {
		case UserTypeBusiness:
			if !strings.HasPrefix(path, HostPath) {
				return RedirectTo(HostPath)
			}
		case UserTypeIndividual:
			if !strings.HasPrefix(path, IndividualPath) {
				return RedirectTo(IndividualPath)
			}
		}
		return AllowDecision()
	default:
		return RedirectTo(LoginPath)
	}
}

// GuestDecision classifies a request for a path meant only for anonymous
// visitors: anyone signed in is sent to their landing page.
func GuestDecision(s Session) Decision {
	if s.IsAbsent() {
		return AllowDecision()
	}
	return RedirectTo(LandingPath(s))
}

// ResolveAuth folds a query error into the auth gate decision. Any failure,
// including an unrecognized role, sends the visitor to the login page.
func ResolveAuth(s Session, err error, path string) Decision {
	if err != nil {
		return RedirectTo(LoginPath)
	}
	return AuthDecision(s, path)
}

// ResolveGuest folds a query error into the guest gate decision according
// to policy. A user whose role or type is not recognized never reaches
// GuestDecision: the query reports it as ErrUnrecognizedSession, so under
// FailOpen that visitor browses guest pages instead of being sent to
// /individual like any other signed-in user.
func ResolveGuest(s Session, err error, policy FailPolicy) Decision {
	if err != nil {
		if policy == FailClosed {
			return DenyDecision()
		}
		return AllowDecision()
	}
	return GuestDecision(s)
}
