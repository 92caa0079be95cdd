package layout

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	SiteName           = "SpaceMatch"
	defaultDescription = "Find and list flexible coworking spaces near you"
	defaultOGImage     = "/public/images/og-default.png"
)

// PageMeta contains the metadata of a page (SEO and Open Graph)
type PageMeta struct {
	Title        string
	Description  string
	Keywords     []string
	CanonicalURL string

	OGType        string
	OGTitle       string
	OGDescription string
	OGImageURL    string // MUST be absolute URL
	OGURL         string // MUST be absolute URL
	OGSiteName    string

	// Robots is "noindex" for dashboards and forms
	Robots string

	SiteURL string
}

// NewPageMeta creates a PageMeta with site-wide defaults
// Call this first, then chain .WithTitle() or other modifiers
func NewPageMeta(c echo.Context, siteURL string) PageMeta {
	canonicalURL := BuildAbsoluteURL(siteURL, c.Request().URL.Path)

	return PageMeta{
		Title:        SiteName,
		Description:  defaultDescription,
		Keywords:     []string{"coworking", "workspace", "desk rental", "meeting rooms"},
		CanonicalURL: canonicalURL,

		OGType:        "website",
		OGTitle:       SiteName,
		OGDescription: defaultDescription,
		OGImageURL:    BuildAbsoluteURL(siteURL, defaultOGImage),
		OGURL:         canonicalURL,
		OGSiteName:    SiteName,

		SiteURL: siteURL,
	}
}

// WithTitle sets the page title, suffixed with the site name
func (pm PageMeta) WithTitle(title string) PageMeta {
	if title == "" {
		return pm
	}
	pm.Title = title + " - " + SiteName
	pm.OGTitle = title
	return pm
}

func (pm PageMeta) WithDescription(description string) PageMeta {
	if description == "" {
		return pm
	}
	pm.Description = description
	pm.OGDescription = description
	return pm
}

// Private marks pages that should stay out of search results
func (pm PageMeta) Private() PageMeta {
	pm.Robots = "noindex, nofollow"
	return pm
}

// KeywordsString returns keywords as a comma-separated string
func (pm PageMeta) KeywordsString() string {
	return strings.Join(pm.Keywords, ", ")
}

// BuildAbsoluteURL constructs an absolute URL from a path
func BuildAbsoluteURL(siteURL, path string) string {
	if path == "" {
		return siteURL
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	siteURL = strings.TrimRight(siteURL, "/")

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return siteURL + path
}
