package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/auth"
	"github.com/loganlanou/cowork/internal/backend"
	"github.com/loganlanou/cowork/internal/session"
	"github.com/loganlanou/cowork/views"
)

// AuthHandler handles sign in, sign up, sign out and password reset
type AuthHandler struct {
	Deps
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(d Deps) *AuthHandler {
	return &AuthHandler{Deps: d}
}

// HandleLoginPage renders the sign-in form. The forgot query parameter opens
// (forgot=1) or closes (forgot=cancel) the password reset dialog.
func (h *AuthHandler) HandleLoginPage(c echo.Context) error {
	v, err := h.Sessions.Visitor(c)
	if err != nil {
		return err
	}

	switch c.QueryParam("forgot") {
	case "1":
		if v.Reset == nil || v.Reset.Step == session.ResetDone {
			v.Reset = &session.ResetState{Step: session.ResetRequestCode}
			if err := h.Sessions.SaveVisitor(c, v); err != nil {
				return err
			}
		}
	case "cancel":
		v.Reset = nil
		if err := h.Sessions.SaveVisitor(c, v); err != nil {
			return err
		}
		return seeOther(c, auth.LoginPath)
	}

	return h.renderLogin(c, v, "")
}

func (h *AuthHandler) renderLogin(c echo.Context, v *session.Visitor, email string, extra ...session.Flash) error {
	meta := h.meta(c).
		WithTitle("Sign in").
		WithDescription("Sign in to find or manage coworking spaces").
		Private()

	return Render(c, views.Login(views.LoginData{
		Base:  h.base(c, meta, extra...),
		Email: email,
		Reset: resetView(v.Reset),
	}))
}

func resetView(r *session.ResetState) views.ResetView {
	if r == nil {
		return views.ResetView{}
	}
	return views.ResetView{
		Open:  true,
		Step:  int(r.Step) + 1,
		Email: r.Email,
		Done:  r.Step == session.ResetDone,
	}
}

// HandleLogin signs in against the backend and relays its session cookie.
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	v, err := h.Sessions.Visitor(c)
	if err != nil {
		return err
	}

	var form LoginForm
	if err := bindForm(c, &form); err != nil {
		return h.renderLogin(c, v, form.Email, errorFlash(formMessage(err)))
	}

	result, err := h.Backend.Login(c.Request().Context(), form.Email, form.Password)
	if err != nil {
		slog.Warn("login failed", "email", form.Email, "error", err)
		return h.renderLogin(c, v, form.Email, errorFlash(backend.MessageOf(err, "Login failed")))
	}

	s, err := auth.ParseUser(result.User)
	if err != nil {
		slog.Warn("login returned an unrecognized user", "user_id", result.User.ID, "error", err)
		return h.renderLogin(c, v, form.Email, errorFlash("Login failed"))
	}

	h.invalidate(c)
	relayCookies(c, result.Cookies)
	if err := h.Sessions.ClearAccount(c); err != nil {
		slog.Warn("failed to reset visitor after login", "error", err)
	}

	target := afterLogin(s, popReturnTo(c, h.Secure))
	slog.Info("user signed in", "user_id", result.User.ID, "session", s.String(), "redirect", target)
	return seeOther(c, target)
}

func errorFlash(message string) session.Flash {
	return session.Flash{Kind: session.FlashError, Message: message}
}

// HandleSignupPage renders the registration form
func (h *AuthHandler) HandleSignupPage(c echo.Context) error {
	return h.renderSignup(c, SignupForm{UserType: string(auth.UserTypeIndividual)})
}

func (h *AuthHandler) renderSignup(c echo.Context, form SignupForm, extra ...session.Flash) error {
	meta := h.meta(c).
		WithTitle("Sign up").
		WithDescription("Create an account to book or list coworking spaces")

	if form.UserType == "" {
		form.UserType = string(auth.UserTypeIndividual)
	}

	return Render(c, views.Signup(views.SignupData{
		Base:     h.base(c, meta, extra...),
		Name:     form.Name,
		Email:    form.Email,
		UserType: form.UserType,
	}))
}

// HandleSignup registers a new account, with an optional profile photo
func (h *AuthHandler) HandleSignup(c echo.Context) error {
	var form SignupForm
	if err := bindForm(c, &form); err != nil {
		return h.renderSignup(c, form, errorFlash(formMessage(err)))
	}
	if form.UserType == "" {
		form.UserType = string(auth.UserTypeIndividual)
	}

	image, closeImage, err := h.upload(c, "image")
	if err != nil {
		return h.renderSignup(c, form, errorFlash(uploadMessage(err)))
	}
	defer closeImage()

	err = h.Backend.Register(c.Request().Context(), backend.RegisterRequest{
		Email:    form.Email,
		Name:     form.Name,
		Password: form.Password,
		UserType: form.UserType,
		Image:    image,
	})
	if err != nil {
		slog.Warn("registration failed", "email", form.Email, "error", err)
		return h.renderSignup(c, form, errorFlash(backend.MessageOf(err, "Registration failed")))
	}

	slog.Info("user registered", "email", form.Email, "user_type", form.UserType)
	h.flashSuccess(c, "Account created. Please sign in.")
	return seeOther(c, auth.LoginPath)
}

// HandleLogout ends the backend session. It runs outside both gates so a
// half-broken session can always sign out.
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	cookies, err := h.Backend.Logout(c.Request().Context(), creds(c))
	if err != nil {
		slog.Warn("logout failed", "error", err)
		h.flashError(c, "Failed to logout. Please try again.")
		return seeOther(c, backTo(c, "/"))
	}

	h.invalidate(c)
	relayCookies(c, cookies)
	if err := h.Sessions.ClearAccount(c); err != nil {
		slog.Warn("failed to reset visitor after logout", "error", err)
	}

	h.flashSuccess(c, "Logged out successfully")
	return seeOther(c, auth.LoginPath)
}

// resetFlow loads the visitor and checks the reset dialog is at want.
func (h *AuthHandler) resetFlow(c echo.Context, want session.ResetStep) (*session.Visitor, bool, error) {
	v, err := h.Sessions.Visitor(c)
	if err != nil {
		return nil, false, err
	}
	return v, v.Reset != nil && v.Reset.Step == want, nil
}

func (h *AuthHandler) saveReset(c echo.Context, v *session.Visitor) error {
	if err := h.Sessions.SaveVisitor(c, v); err != nil {
		return err
	}
	return seeOther(c, auth.LoginPath)
}

// HandleForgotPassword asks the backend to email a reset code
func (h *AuthHandler) HandleForgotPassword(c echo.Context) error {
	v, err := h.Sessions.Visitor(c)
	if err != nil {
		return err
	}

	var form ResetEmailForm
	if err := bindForm(c, &form); err != nil {
		h.flashError(c, formMessage(err))
		v.Reset = &session.ResetState{Step: session.ResetRequestCode, Email: form.Email}
		return h.saveReset(c, v)
	}

	if err := h.Backend.RequestPasswordReset(c.Request().Context(), form.Email); err != nil {
		slog.Warn("password reset request failed", "email", form.Email, "error", err)
		h.flashError(c, backend.MessageOf(err, "Failed to send code."))
		v.Reset = &session.ResetState{Step: session.ResetRequestCode, Email: form.Email}
		return h.saveReset(c, v)
	}

	v.Reset = &session.ResetState{Step: session.ResetVerifyCode, Email: form.Email}
	return h.saveReset(c, v)
}

// HandleVerifyCode checks the emailed code before asking for a new password
func (h *AuthHandler) HandleVerifyCode(c echo.Context) error {
	v, ok, err := h.resetFlow(c, session.ResetVerifyCode)
	if err != nil {
		return err
	}
	if !ok {
		return seeOther(c, auth.LoginPath+"?forgot=1")
	}

	var form ResetCodeForm
	if err := bindForm(c, &form); err != nil {
		h.flashError(c, formMessage(err))
		return seeOther(c, auth.LoginPath)
	}

	if err := h.Backend.VerifyResetCode(c.Request().Context(), v.Reset.Email, form.Code); err != nil {
		slog.Warn("reset code rejected", "email", v.Reset.Email, "error", err)
		h.flashError(c, backend.MessageOf(err, "Invalid code."))
		return seeOther(c, auth.LoginPath)
	}

	v.Reset.Step = session.ResetNewPassword
	v.Reset.Code = form.Code
	return h.saveReset(c, v)
}

// HandleResetPassword sets the new password
func (h *AuthHandler) HandleResetPassword(c echo.Context) error {
	v, ok, err := h.resetFlow(c, session.ResetNewPassword)
	if err != nil {
		return err
	}
	if !ok {
		return seeOther(c, auth.LoginPath+"?forgot=1")
	}

	var form ResetPasswordForm
	if err := bindForm(c, &form); err != nil {
		h.flashError(c, formMessage(err))
		return seeOther(c, auth.LoginPath)
	}

	err = h.Backend.ResetPassword(c.Request().Context(), v.Reset.Email, v.Reset.Code, form.Password)
	if err != nil {
		slog.Warn("password reset failed", "email", v.Reset.Email, "error", err)
		h.flashError(c, backend.MessageOf(err, "Failed to reset password."))
		return seeOther(c, auth.LoginPath)
	}

	slog.Info("password reset", "email", v.Reset.Email)
	v.Reset = &session.ResetState{Step: session.ResetDone, Email: v.Reset.Email}
	return h.saveReset(c, v)
}

// ReturnToLogin is the auth gate's hook for remembering the requested page.
func (h *AuthHandler) ReturnToLogin(c echo.Context) {
	if c.Request().Method == http.MethodGet {
		RememberReturnTo(c, h.Secure)
	}
}
