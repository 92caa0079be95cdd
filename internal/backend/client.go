package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 60 * time.Second
)

// Client talks to the marketplace REST API. Every call forwards the
// browser's cookies so the backend sees the same session the browser holds.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// AssetURL resolves an image path stored by the backend into an absolute URL.
func (c *Client) AssetURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	origin := c.baseURL
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	return origin + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) doRequest(ctx context.Context, method, path string, creds Credentials, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range creds {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, creds Credentials, in, out any) (*http.Response, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.doRequest(ctx, method, path, creds, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := decodeResponse(resp, out); err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *Client) doMultipart(ctx context.Context, method, path string, creds Credentials, fields []formField, upload *Upload, out any) error {
	body, contentType, err := multipartBody(fields, upload)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, method, path, creds, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type formField struct {
	name  string
	value string
}

func multipartBody(fields []formField, upload *Upload) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if upload != nil && upload.Reader != nil {
		part, err := writer.CreateFormFile("image", upload.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, upload.Reader); err != nil {
			return nil, "", fmt.Errorf("copy file content: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// Login authenticates against the backend and returns the cookies it set.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out struct {
		User User `json:"user"`
	}
	payload := map[string]string{"email": email, "password": password}

	resp, err := c.doJSON(ctx, http.MethodPost, "/login", nil, payload, &out)
	if err != nil {
		return nil, err
	}

	slog.Debug("backend login succeeded", "user_id", out.User.ID, "role", out.User.Role)
	return &LoginResult{User: out.User, Cookies: resp.Cookies()}, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	fields := []formField{
		{"email", req.Email},
		{"name", req.Name},
		{"password", req.Password},
		{"userType", req.UserType},
	}
	return c.doMultipart(ctx, http.MethodPost, "/register", nil, fields, req.Image, nil)
}

// GetUser returns the user owning the forwarded session. A missing or
// expired session is reported as an *APIError with a 401/403 status.
func (c *Client) GetUser(ctx context.Context, creds Credentials) (*User, error) {
	var user User
	if _, err := c.doJSON(ctx, http.MethodGet, "/user", creds, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the backend session and returns the cookies that clear it.
func (c *Client) Logout(ctx context.Context, creds Credentials) ([]*http.Cookie, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/logout", creds, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Cookies(), nil
}

func (c *Client) postStatus(ctx context.Context, path string, payload any) error {
	var out statusResponse
	if _, err := c.doJSON(ctx, http.MethodPost, path, nil, payload, &out); err != nil {
		return err
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		return &APIError{Status: http.StatusOK, Message: msg}
	}
	return nil
}

// RequestPasswordReset asks the backend to email a reset code.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.postStatus(ctx, "/updatepassword", map[string]string{"email": email})
}

func (c *Client) VerifyResetCode(ctx context.Context, email, code string) error {
	return c.postStatus(ctx, "/verifycode", map[string]string{"email": email, "code": code})
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return c.postStatus(ctx, "/resetpassword", map[string]string{
		"email":       email,
		"code":        code,
		"newPassword": newPassword,
	})
}

func (c *Client) ListUsers(ctx context.Context, creds Credentials) ([]User, error) {
	var users []User
	if _, err := c.doJSON(ctx, http.MethodGet, "/users", creds, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser sends JSON, or multipart when a new image is attached.
func (c *Client) UpdateUser(ctx context.Context, creds Credentials, id string, update UserUpdate) (*User, error) {
	return c.updateUser(ctx, creds, "/users/"+url.PathEscape(id), update)
}

// AdminUpdateUser is UpdateUser against the admin-scoped endpoint.
func (c *Client) AdminUpdateUser(ctx context.Context, creds Credentials, id string, update UserUpdate) (*User, error) {
	return c.updateUser(ctx, creds, "/admin/users/"+url.PathEscape(id), update)
}

func (c *Client) updateUser(ctx context.Context, creds Credentials, path string, update UserUpdate) (*User, error) {
	var user User
	if update.Image == nil {
		if _, err := c.doJSON(ctx, http.MethodPut, path, creds, update, &user); err != nil {
			return nil, err
		}
		return &user, nil
	}

	var fields []formField
	for _, f := range []formField{
		{"name", update.Name},
		{"email", update.Email},
		{"password", update.Password},
		{"role", update.Role},
		{"userType", update.UserType},
	} {
		if f.value != "" {
			fields = append(fields, f)
		}
	}
	if err := c.doMultipart(ctx, http.MethodPut, path, creds, fields, update.Image, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, creds Credentials, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), creds, nil, nil)
	return err
}

func workspaceFields(in WorkspaceInput) ([]formField, error) {
	amenities := in.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	encoded, err := json.Marshal(amenities)
	if err != nil {
		return nil, fmt.Errorf("marshal amenities: %w", err)
	}
	return []formField{
		{"name", in.Name},
		{"location", in.Location},
		{"capacity", in.Capacity},
		{"price", in.Price},
		{"description", in.Description},
		{"amenities", string(encoded)},
	}, nil
}

func (c *Client) CreateWorkspace(ctx context.Context, creds Credentials, in WorkspaceInput) (*Workspace, error) {
	fields, err := workspaceFields(in)
	if err != nil {
		return nil, err
	}
	var ws Workspace
	if err := c.doMultipart(ctx, http.MethodPost, "/workspaces", creds, fields, in.Image, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListWorkspaces returns the workspaces owned by the session's host.
func (c *Client) ListWorkspaces(ctx context.Context, creds Credentials) ([]Workspace, error) {
	var workspaces []Workspace
	if _, err := c.doJSON(ctx, http.MethodGet, "/workspaces", creds, nil, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

func (c *Client) ToggleWorkspaceStatus(ctx context.Context, creds Credentials, id string) (*Workspace, error) {
	var ws Workspace
	path := "/workspaces/" + url.PathEscape(id) + "/toggle"
	if _, err := c.doJSON(ctx, http.MethodPut, path, creds, nil, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (c *Client) UpdateWorkspace(ctx context.Context, creds Credentials, id string, in WorkspaceInput) (*Workspace, error) {
	fields, err := workspaceFields(in)
	if err != nil {
		return nil, err
	}
	var ws Workspace
	if err := c.doMultipart(ctx, http.MethodPut, "/workspaces/"+url.PathEscape(id), creds, fields, in.Image, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListActiveWorkspaces is the public discovery feed.
func (c *Client) ListActiveWorkspaces(ctx context.Context, creds Credentials) ([]Workspace, error) {
	var workspaces []Workspace
	if _, err := c.doJSON(ctx, http.MethodGet, "/all-workspaces", creds, nil, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}
