package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/backend"
)

const profileFailed = "Failed to update profile. Please try again."

// updateProfile applies the profile form to the signed-in user and returns
// to done. Blank fields keep their current value.
func (d Deps) updateProfile(c echo.Context, done string) error {
	profile := currentProfile(c)
	if profile.ID == "" {
		d.flashError(c, profileFailed)
		return seeOther(c, done)
	}

	var form ProfileForm
	if err := bindForm(c, &form); err != nil {
		d.flashError(c, formMessage(err))
		return seeOther(c, done)
	}

	image, closeImage, err := d.upload(c, "image")
	if err != nil {
		d.flashError(c, uploadMessage(err))
		return seeOther(c, done)
	}
	defer closeImage()

	_, err = d.Backend.UpdateUser(c.Request().Context(), creds(c), profile.ID, backend.UserUpdate{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Image:    image,
	})
	if err != nil {
		slog.Warn("profile update failed", "user_id", profile.ID, "error", err)
		d.flashError(c, profileFailed)
		return seeOther(c, done)
	}

	d.invalidate(c)
	d.flashSuccess(c, "Profile updated")
	return seeOther(c, done)
}
