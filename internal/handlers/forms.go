package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their label so messages read naturally.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

type LoginForm struct {
	Email    string `form:"email" label:"Email" validate:"required,email"`
	Password string `form:"password" label:"Password" validate:"required"`
}

type SignupForm struct {
	Name            string `form:"name" label:"Name" validate:"required"`
	Email           string `form:"email" label:"Email" validate:"required,email"`
	Password        string `form:"password" label:"Password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" label:"Confirm password" validate:"eqfield=Password"`
	UserType        string `form:"user_type" label:"Account type" validate:"omitempty,oneof=business individual"`
}

type ResetEmailForm struct {
	Email string `form:"email" label:"Email" validate:"required,email"`
}

type ResetCodeForm struct {
	Code string `form:"code" label:"Code" validate:"required"`
}

type ResetPasswordForm struct {
	Password string `form:"password" label:"New password" validate:"required,min=6"`
}

type WorkspaceForm struct {
	Name        string   `form:"name" label:"Name" validate:"required"`
	Location    string   `form:"location" label:"Location" validate:"required"`
	Capacity    string   `form:"capacity" label:"Capacity" validate:"required"`
	Price       string   `form:"price" label:"Price" validate:"required,numeric"`
	Description string   `form:"description" label:"Description"`
	Amenities   []string `form:"amenities" label:"Amenities" validate:"dive,oneof=WiFi Coffee Projector Whiteboards Parking Printing"`
}

// ProfileForm is the self-service profile editor. Blank fields are left
// unchanged.
type ProfileForm struct {
	Name     string `form:"name" label:"Name"`
	Email    string `form:"email" label:"Email" validate:"omitempty,email"`
	Password string `form:"password" label:"Password" validate:"omitempty,min=6"`
}

type AdminUserForm struct {
	Name     string `form:"name" label:"Name"`
	Email    string `form:"email" label:"Email" validate:"omitempty,email"`
	Role     string `form:"role" label:"Role" validate:"omitempty,oneof=admin user"`
	UserType string `form:"userType" label:"User type" validate:"omitempty,oneof=business individual"`
	Password string `form:"password" label:"Password"`
}

// bindForm decodes the request form into dst and validates it.
func bindForm(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	trimStrings(dst)
	return validate.Struct(dst)
}

// trimStrings trims surrounding space from every string field except
// passwords.
func trimStrings(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() {
			continue
		}
		if strings.Contains(strings.ToLower(t.Field(i).Name), "password") {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}

// formMessage turns a bind or validation error into a message for the user.
func formMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the form and try again."
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "Please enter a valid email address."
	case "eqfield":
		return "Passwords don't match"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be a number.", fe.Field())
	default:
		return fmt.Sprintf("%s is not valid.", fe.Field())
	}
}
