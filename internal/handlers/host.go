package handlers

import (
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/internal/workspaces"
	"github.com/loganlanou/cowork/views"
	"golang.org/x/sync/errgroup"
)

var hostTabs = map[string]bool{
	"my-listings": true,
	"bookings":    true,
	"earnings":    true,
	"profile":     true,
}

// HostHandler serves the business dashboard
type HostHandler struct {
	Deps
	now func() time.Time
}

func NewHostHandler(d Deps) *HostHandler {
	return &HostHandler{Deps: d, now: time.Now}
}

func hostTab(c echo.Context) string {
	if tab := c.QueryParam("tab"); hostTabs[tab] {
		return tab
	}
	return "my-listings"
}

// HandleDashboard renders the host's listings, bookings, earnings and profile.
func (h *HostHandler) HandleDashboard(c echo.Context) error {
	return h.render(c, hostTab(c), views.Listing{})
}

func (h *HostHandler) render(c echo.Context, tab string, draft views.Listing, extra ...session.Flash) error {
	ctx := c.Request().Context()
	profile := currentProfile(c)

	// The listings and a fresh copy of the profile load together.
	var listings []backend.Workspace
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, err = h.Backend.ListWorkspaces(gctx, creds(c))
		return err
	})
	g.Go(func() error {
		user, err := h.Backend.GetUser(gctx, creds(c))
		if err != nil {
			return err
		}
		profile = *user
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Warn("failed to load host dashboard", "user_id", profile.ID, "error", err)
		extra = append(extra, errorFlash("Failed to load data. Please try again."))
		listings = nil
	}

	data := views.HostData{
		Tab:       tab,
		Listings:  make([]views.Listing, 0, len(listings)),
		Draft:     draft,
		Amenities: workspaces.Amenities,
		Profile:   profile,
	}

	editID := c.QueryParam("edit")
	for _, w := range listings {
		l := views.NewListing(w, h.Backend.AssetURL, false)
		data.Listings = append(data.Listings, l)
		if editID != "" && w.ID == editID {
			editing := l
			data.Editing = &editing
		}
	}

	now := h.now()
	data.Stats = workspaces.Stats(listings, now)
	data.Upcoming = workspaces.Upcoming(listings, now)
	data.Recent = workspaces.Recent(listings)

	meta := h.meta(c).WithTitle("Host dashboard").Private()
	data.Base = h.base(c, meta, extra...)
	return Render(c, views.Host(data))
}

func workspaceInput(form WorkspaceForm, image *backend.Upload) backend.WorkspaceInput {
	return backend.WorkspaceInput{
		Name:        form.Name,
		Location:    form.Location,
		Capacity:    form.Capacity,
		Price:       form.Price,
		Description: form.Description,
		Amenities:   form.Amenities,
		Image:       image,
	}
}

func draftListing(form WorkspaceForm) views.Listing {
	price, _ := strconv.ParseFloat(form.Price, 64)
	return views.Listing{Workspace: backend.Workspace{
		Name:        form.Name,
		Location:    form.Location,
		Capacity:    form.Capacity,
		Price:       price,
		Description: form.Description,
		Amenities:   form.Amenities,
	}}
}

// HandleCreateWorkspace publishes a new listing. A rejected form renders the
// dashboard again with what was typed.
func (h *HostHandler) HandleCreateWorkspace(c echo.Context) error {
	var form WorkspaceForm
	if err := bindForm(c, &form); err != nil {
		return h.render(c, "my-listings", draftListing(form), errorFlash(formMessage(err)))
	}

	image, closeImage, err := h.upload(c, "image")
	if err != nil {
		return h.render(c, "my-listings", draftListing(form), errorFlash(uploadMessage(err)))
	}
	defer closeImage()

	w, err := h.Backend.CreateWorkspace(c.Request().Context(), creds(c), workspaceInput(form, image))
	if err != nil {
		slog.Warn("failed to create workspace", "name", form.Name, "error", err)
		msg := backend.MessageOf(err, "Failed to create workspace")
		return h.render(c, "my-listings", draftListing(form), errorFlash(msg))
	}

	slog.Info("workspace created", "workspace_id", w.ID, "name", w.Name)
	h.flashSuccess(c, "Workspace created")
	return seeOther(c, "/host?tab=my-listings")
}

// HandleToggleWorkspace flips a listing between active and inactive
func (h *HostHandler) HandleToggleWorkspace(c echo.Context) error {
	id := c.Param("id")
	w, err := h.Backend.ToggleWorkspaceStatus(c.Request().Context(), creds(c), id)
	if err != nil {
		slog.Warn("failed to toggle workspace", "workspace_id", id, "error", err)
		h.flashError(c, "Failed to update workspace status")
	} else {
		slog.Info("workspace status changed", "workspace_id", id, "status", w.Status)
	}
	return seeOther(c, "/host?tab=my-listings")
}

// HandleUpdateWorkspace saves the listing editor
func (h *HostHandler) HandleUpdateWorkspace(c echo.Context) error {
	id := c.Param("id")
	back := "/host?tab=my-listings&edit=" + url.QueryEscape(id)

	var form WorkspaceForm
	if err := bindForm(c, &form); err != nil {
		h.flashError(c, formMessage(err))
		return seeOther(c, back)
	}

	image, closeImage, err := h.upload(c, "image")
	if err != nil {
		h.flashError(c, uploadMessage(err))
		return seeOther(c, back)
	}
	defer closeImage()

	if _, err := h.Backend.UpdateWorkspace(c.Request().Context(), creds(c), id, workspaceInput(form, image)); err != nil {
		slog.Warn("failed to update workspace", "workspace_id", id, "error", err)
		h.flashError(c, "Failed to update workspace. Please try again.")
		return seeOther(c, back)
	}

	h.flashSuccess(c, "Workspace updated")
	return seeOther(c, "/host?tab=my-listings")
}

func (h *HostHandler) HandleUpdateProfile(c echo.Context) error {
	return h.updateProfile(c, "/host?tab=profile")
}
