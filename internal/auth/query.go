package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/loganlanou/cowork/internal/backend"
)

// OwnCookiePrefix marks cookies this server sets for itself. They are never
// forwarded to the backend.
const OwnCookiePrefix = "cowork_"

// Querier answers "who is the current session?". Implementations never
// panic and always return a usable Session; the error says why the answer
// may be untrustworthy.
type Querier interface {
	Query(ctx context.Context, creds backend.Credentials) (Session, error)
}

// UserFetcher is the single backend read the session query depends on.
type UserFetcher interface {
	GetUser(ctx context.Context, creds backend.Credentials) (*backend.User, error)
}

// BackendQuery is the Querier backed by GET /user.
type BackendQuery struct {
	users UserFetcher
}

func NewBackendQuery(users UserFetcher) *BackendQuery {
	return &BackendQuery{users: users}
}

func (q *BackendQuery) Query(ctx context.Context, creds backend.Credentials) (Session, error) {
	if len(creds) == 0 {
		return Absent(), nil
	}

	user, err := q.users.GetUser(ctx, creds)
	if err != nil {
		if backend.IsUnauthenticated(err) {
			return Absent(), nil
		}
		return Absent(), fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	return ParseUser(*user)
}

// CredentialsFrom collects the cookies of r that belong to the backend.
func CredentialsFrom(r *http.Request) backend.Credentials {
	var creds backend.Credentials
	for _, cookie := range r.Cookies() {
		if strings.HasPrefix(cookie.Name, OwnCookiePrefix) {
			continue
		}
		creds = append(creds, cookie)
	}
	return creds
}
