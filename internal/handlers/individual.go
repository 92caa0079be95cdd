package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/internal/workspaces"
	"github.com/loganlanou/cowork/views"
)

var individualTabs = map[string]bool{
	"discover":  true,
	"my-spaces": true,
	"profile":   true,
}

// IndividualHandler serves the dashboard for people looking for a space
type IndividualHandler struct {
	Deps
}

func NewIndividualHandler(d Deps) *IndividualHandler {
	return &IndividualHandler{Deps: d}
}

// HandleDashboard lists active workspaces matching the filter in the query
// string, plus the visitor's saved ones.
func (h *IndividualHandler) HandleDashboard(c echo.Context) error {
	tab := c.QueryParam("tab")
	if !individualTabs[tab] {
		tab = "discover"
	}

	v, err := h.Sessions.Visitor(c)
	if err != nil {
		return err
	}

	var extra []session.Flash
	all, err := h.Backend.ListActiveWorkspaces(c.Request().Context(), creds(c))
	if err != nil {
		slog.Warn("failed to load workspaces", "error", err)
		extra = append(extra, errorFlash("Failed to load workspaces. Please try again."))
		all = nil
	}

	filter := workspaces.FilterFromQuery(c.QueryParams())
	saved := workspaces.Saved(all, v.Saved)

	data := views.IndividualData{
		Tab:        tab,
		Filter:     filter,
		Locations:  workspaces.Locations(all),
		Amenities:  workspaces.Amenities,
		Capacities: workspaces.CapacityBuckets,
		Results:    h.listings(workspaces.Apply(all, filter), v),
		Saved:      h.listings(saved, v),
		SavedCount: len(saved),
		Profile:    currentProfile(c),
	}

	meta := h.meta(c).WithTitle("Discover workspaces").Private()
	data.Base = h.base(c, meta, extra...)
	return Render(c, views.Individual(data))
}

func (h *IndividualHandler) listings(ws []backend.Workspace, v *session.Visitor) []views.Listing {
	out := make([]views.Listing, 0, len(ws))
	for _, w := range ws {
		out = append(out, views.NewListing(w, h.Backend.AssetURL, v.IsSaved(w.ID)))
	}
	return out
}

// HandleToggleSaved saves or unsaves a workspace for this browser.
func (h *IndividualHandler) HandleToggleSaved(c echo.Context) error {
	id := c.Param("id")

	v, err := h.Sessions.Visitor(c)
	if err != nil {
		return err
	}
	saved := v.ToggleSaved(id)
	if err := h.Sessions.SaveVisitor(c, v); err != nil {
		return err
	}

	slog.Debug("saved workspaces changed", "workspace_id", id, "saved", saved, "count", len(v.Saved))
	return seeOther(c, backTo(c, "/individual"))
}

func (h *IndividualHandler) HandleUpdateProfile(c echo.Context) error {
	return h.updateProfile(c, "/individual?tab=profile")
}
