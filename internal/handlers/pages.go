package handlers

import (
	"log/slog"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/views"
)

// PageHandler serves the public marketing pages
type PageHandler struct {
	Deps
}

func NewPageHandler(d Deps) *PageHandler {
	return &PageHandler{Deps: d}
}

func (h *PageHandler) render(c echo.Context, title, description string, page func(views.Base) templ.Component) error {
	meta := h.meta(c).WithTitle(title).WithDescription(description)
	return Render(c, page(h.base(c, meta)))
}

func (h *PageHandler) HandleHome(c echo.Context) error {
	return h.render(c, "", "", views.Home)
}

func (h *PageHandler) HandleAbout(c echo.Context) error {
	return h.render(c, "About us", "Who we are and why we built a marketplace for flexible workspaces", views.About)
}

func (h *PageHandler) HandleSafetyTips(c echo.Context) error {
	return h.render(c, "Safety tips", "How to stay safe when booking or hosting a workspace", views.SafetyTips)
}

func (h *PageHandler) HandleGuidelines(c echo.Context) error {
	return h.render(c, "Community guidelines", "The rules that keep the community respectful", views.Guidelines)
}

func (h *PageHandler) HandleContact(c echo.Context) error {
	return h.render(c, "Contact", "Get in touch with the team", views.Contact)
}

// HandleDismissFlash drops any pending messages and returns to the page.
func (h *PageHandler) HandleDismissFlash(c echo.Context) error {
	if _, err := h.Sessions.Flashes(c); err != nil {
		slog.Warn("failed to clear flashes", "error", err)
	}
	return seeOther(c, backTo(c, "/"))
}
