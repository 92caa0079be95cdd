// Package views renders the site's pages. Each page is an html/template
// file executed inside the shared layout and exposed as a templ.Component.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/internal/workspaces"
	"github.com/loganlanou/cowork/views/helpers"
	"github.com/loganlanou/cowork/views/layout"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"price":        helpers.FormatPrice,
	"date":         helpers.FormatDate,
	"int":          helpers.FormatInt,
	"userType":     helpers.UserTypeLabel,
	"statusBadge":  helpers.StatusBadgeClass,
	"roleBadge":    helpers.RoleBadgeClass,
	"tabClass":     helpers.TabClass,
	"classes":      helpers.Classes,
	"join":         strings.Join,
	"pathEscape":   url.PathEscape,
	"contains":     containsString,
	"isFlashError": func(f session.Flash) bool { return f.Kind == session.FlashError },
	"amenities":    func() []string { return workspaces.Amenities },
	"dict":         dict,
}

// dict builds a map from alternating keys and values, for passing several
// values to a nested template.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// pages maps a page name to its template, parsed with the layout.
var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{
		"home", "login", "signup", "about", "safety", "guidelines", "contact",
		"host", "individual", "userslist", "error",
	} {
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		))
	}
	pages["loading"] = template.Must(template.New("loading.html").Funcs(funcs).ParseFS(files,
		"templates/loading.html",
	))
}

func page(name string, data any) templ.Component {
	t, ok := pages[name]
	if !ok {
		panic(fmt.Sprintf("views: unknown page %q", name))
	}
	return templ.FromGoHTML(t, data)
}

// Base is the data every page shares.
type Base struct {
	Meta    layout.PageMeta
	Auth    *auth.Context
	Flashes []session.Flash
	Path    string
}

// Listing is a workspace prepared for display.
type Listing struct {
	backend.Workspace
	ImageURL string
	Saved    bool
}

// NewListing resolves the listing image, falling back to a placeholder tile.
func NewListing(w backend.Workspace, assetURL func(string) string, saved bool) Listing {
	img := ""
	if w.Image != "" && assetURL != nil {
		img = assetURL(w.Image)
	}
	if img == "" {
		img = ThumbnailURL(w.Name)
	}
	return Listing{Workspace: w, ImageURL: img, Saved: saved}
}

// ThumbnailURL is the placeholder tile path for a listing name.
func ThumbnailURL(name string) string {
	if strings.TrimSpace(name) == "" {
		name = "workspace"
	}
	return "/thumbnails/" + url.PathEscape(name) + ".png"
}

type LoadingData struct {
	RefreshSeconds string
	Path           string
}

func Loading(data LoadingData) templ.Component { return page("loading", data) }

func Home(data Base) templ.Component       { return page("home", data) }
func About(data Base) templ.Component      { return page("about", data) }
func SafetyTips(data Base) templ.Component { return page("safety", data) }
func Guidelines(data Base) templ.Component { return page("guidelines", data) }
func Contact(data Base) templ.Component    { return page("contact", data) }

// ResetView is the forgot-password dialog on the login page.
type ResetView struct {
	Open  bool
	Step  int
	Email string
	Done  bool
}

type LoginData struct {
	Base
	Email string
	Reset ResetView
}

func Login(data LoginData) templ.Component { return page("login", data) }

type SignupData struct {
	Base
	Name     string
	Email    string
	UserType string
}

func Signup(data SignupData) templ.Component { return page("signup", data) }

type HostData struct {
	Base
	Tab       string
	Listings  []Listing
	Editing   *Listing
	Draft     Listing
	Stats     workspaces.HostStats
	Upcoming  []workspaces.BookingRow
	Recent    []workspaces.BookingRow
	Amenities []string
	Profile   backend.User
}

func Host(data HostData) templ.Component { return page("host", data) }

type IndividualData struct {
	Base
	Tab        string
	Filter     workspaces.Filter
	Locations  []string
	Amenities  []string
	Capacities []string
	Results    []Listing
	Saved      []Listing
	SavedCount int
	Profile    backend.User
}

func Individual(data IndividualData) templ.Component { return page("individual", data) }

// UserRow is a user in the admin list.
type UserRow struct {
	backend.User
	ImageURL string
	Initials string
	Editing  bool
}

type UsersListData struct {
	Base
	Users   []UserRow
	Editing string
}

func UsersList(data UsersListData) templ.Component { return page("userslist", data) }

type ErrorData struct {
	Base
	Code    int
	Title   string
	Message string
}

func Error(data ErrorData) templ.Component { return page("error", data) }
