package backend

import (
	"io"
	"net/http"
	"time"
)

// Credentials are the browser cookies forwarded to the backend. The backend
// owns the session cookie; this server never inspects its contents.
type Credentials []*http.Cookie

// User is a user record as returned by the backend.
type User struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	UserType string `json:"userType"`
	Image    string `json:"image,omitempty"`
}

type Guest struct {
	Name string `json:"name"`
}

type Booking struct {
	ID    string    `json:"_id"`
	Date  time.Time `json:"date"`
	Guest *Guest    `json:"guest,omitempty"`
}

// Workspace is a listing owned by a host.
type Workspace struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Capacity    string    `json:"capacity"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Amenities   []string  `json:"amenities"`
	Status      string    `json:"status"`
	Image       string    `json:"image,omitempty"`
	Bookings    []Booking `json:"bookings,omitempty"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

func (w Workspace) IsActive() bool {
	return w.Status == StatusActive
}

// Upload is an optional file part of a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

type LoginResult struct {
	User    User
	Cookies []*http.Cookie
}

type RegisterRequest struct {
	Email    string
	Name     string
	Password string
	UserType string
	Image    *Upload
}

// UserUpdate carries the editable fields of a user. Empty strings are omitted.
type UserUpdate struct {
	Name     string  `json:"name,omitempty"`
	Email    string  `json:"email,omitempty"`
	Password string  `json:"password,omitempty"`
	Role     string  `json:"role,omitempty"`
	UserType string  `json:"userType,omitempty"`
	Image    *Upload `json:"-"`
}

type WorkspaceInput struct {
	Name        string
	Location    string
	Capacity    string
	Price       string
	Description string
	Amenities   []string
	Image       *Upload
}

// statusResponse is the body shape of the password-reset endpoints.
type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
