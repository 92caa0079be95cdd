package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/internal/thumbnail"
	"github.com/loganlanou/cowork/views"
)

const usersListPath = "/userslist"

// UserHandler is the admin user manager
type UserHandler struct {
	Deps
}

func NewUserHandler(d Deps) *UserHandler {
	return &UserHandler{Deps: d}
}

// HandleUsersList shows all registered users; ?edit=ID opens the inline editor
func (h *UserHandler) HandleUsersList(c echo.Context) error {
	var extra []session.Flash
	users, err := h.Backend.ListUsers(c.Request().Context(), creds(c))
	if err != nil {
		slog.Warn("failed to fetch users", "error", err)
		extra = append(extra, errorFlash("Failed to fetch users"))
	}

	editID := c.QueryParam("edit")
	rows := make([]views.UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, views.UserRow{
			User:     u,
			ImageURL: h.Backend.AssetURL(u.Image),
			Initials: thumbnail.Initials(u.Name),
			Editing:  editID != "" && u.ID == editID,
		})
	}

	meta := h.meta(c).WithTitle("Users").Private()
	return Render(c, views.UsersList(views.UsersListData{
		Base:    h.base(c, meta, extra...),
		Users:   rows,
		Editing: editID,
	}))
}

// HandleUpdateUser saves the inline editor. A blank password is left out of
// the update.
func (h *UserHandler) HandleUpdateUser(c echo.Context) error {
	id := c.Param("id")

	var form AdminUserForm
	if err := bindForm(c, &form); err != nil {
		h.flashError(c, formMessage(err))
		return seeOther(c, usersListPath)
	}

	image, closeImage, err := h.upload(c, "image")
	if err != nil {
		h.flashError(c, uploadMessage(err))
		return seeOther(c, usersListPath)
	}
	defer closeImage()

	update := backend.UserUpdate{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Role:     form.Role,
		UserType: form.UserType,
		Image:    image,
	}

	ctx := c.Request().Context()
	if h.AdminUpdateEndpoint {
		_, err = h.Backend.AdminUpdateUser(ctx, creds(c), id, update)
	} else {
		_, err = h.Backend.UpdateUser(ctx, creds(c), id, update)
	}
	if err != nil {
		slog.Warn("failed to update user", "user_id", id, "error", err)
		h.flashError(c, "Failed to update user")
		return seeOther(c, usersListPath)
	}

	slog.Info("user updated by admin", "user_id", id, "role", form.Role, "user_type", form.UserType)
	h.invalidate(c)
	h.flashSuccess(c, "User updated successfully!")
	return seeOther(c, usersListPath)
}

func (h *UserHandler) HandleDeleteUser(c echo.Context) error {
	id := c.Param("id")

	if err := h.Backend.DeleteUser(c.Request().Context(), creds(c), id); err != nil {
		slog.Warn("failed to delete user", "user_id", id, "error", err)
		h.flashError(c, "Failed to delete user")
		return seeOther(c, usersListPath)
	}

	slog.Info("user deleted by admin", "user_id", id)
	h.invalidate(c)
	h.flashSuccess(c, "User deleted successfully!")
	return seeOther(c, usersListPath)
}
