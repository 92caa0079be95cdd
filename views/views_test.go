package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/views/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBase() Base {
	return Base{
		Meta: layout.PageMeta{Title: "SpaceMatch"},
		Auth: auth.NewContext(auth.Absent(), nil),
		Path: "/",
	}
}

func signedIn(s auth.Session) Base {
	b := testBase()
	b.Auth = auth.NewContext(s, nil)
	return b
}

func render(t *testing.T, name string, data any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, page(name, data).Render(context.Background(), &buf))
	return buf.String()
}

func TestPages_Render(t *testing.T) {
	base := testBase()
	host := auth.NewUser(auth.UserTypeBusiness, auth.Profile{ID: "h1", Name: "Hana Host"})
	individual := auth.NewUser(auth.UserTypeIndividual, auth.Profile{ID: "i1", Name: "Ivan Ind"})
	admin := auth.NewAdmin(auth.Profile{ID: "a1", Name: "Ada Admin"})
	tests := []struct {
		name string
		data any
	}{
		{"home", base},
		{"about", base},
		{"safety", base},
		{"guidelines", base},
		{"contact", base},
		{"login", LoginData{Base: base}},
		{"signup", SignupData{Base: base}},
		{"host", HostData{Base: signedIn(host), Tab: "my-listings"}},
		{"individual", IndividualData{Base: signedIn(individual), Tab: "discover"}},
		{"userslist", UsersListData{Base: signedIn(admin)}},
		{"error", ErrorData{Base: base, Code: 404, Title: "Page not found"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, tt.name, tt.data)
			assert.Contains(t, out, "<title>SpaceMatch</title>")
		})
	}
}

func TestLayout_RendersFlashes(t *testing.T) {
	base := testBase()
	base.Flashes = []session.Flash{{Kind: session.FlashError, Message: "Login failed"}}

	assert.Contains(t, render(t, "contact", base), "Login failed")
}

func TestLoading_SetsRefresh(t *testing.T) {
	out := render(t, "loading", LoadingData{RefreshSeconds: "2", Path: "/host"})

	assert.Contains(t, out, `content="2; url=/host"`)
	assert.Contains(t, out, `href="/host"`)
}

func TestNewListing_FallsBackToThumbnail(t *testing.T) {
	l := NewListing(backend.Workspace{Name: "Sunny Loft"}, func(string) string { return "" }, false)
	assert.Equal(t, "/thumbnails/Sunny%20Loft.png", l.ImageURL)

	l = NewListing(backend.Workspace{Name: "Sunny Loft", Image: "uploads/a.png"}, func(p string) string { return "https://api.example.com/" + p }, true)
	assert.Equal(t, "https://api.example.com/uploads/a.png", l.ImageURL)
	assert.True(t, l.Saved)

	assert.Equal(t, "/thumbnails/workspace.png", ThumbnailURL("  "))
}

func TestDict(t *testing.T) {
	m, err := dict("a", 1, "b", "two")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)

	_, err = dict("a")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)
}
