// Package client is a typed HTTP client for the civic report API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var defaultHTTPClient = &http.Client{
	Timeout: 15 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Kind    string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Field != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Field, msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, msg)
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// New returns a client for the API at baseURL. session may be nil for anonymous use.
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = &Session{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    defaultHTTPClient,
		session: session,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) Session() *Session { return c.session }

// Signup registers an account and stores the returned token in the session.
func (c *Client) Signup(ctx context.Context, in SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", in, &out); err != nil {
		return nil, err
	}
	return &out, c.remember(&out)
}

// Login exchanges an email or phone and password for a token and stores it.
func (c *Client) Login(ctx context.Context, emailOrPhone, password string) (*AuthResponse, error) {
	in := map[string]string{"emailOrPhone": emailOrPhone, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, c.remember(&out)
}

func (c *Client) remember(res *AuthResponse) error {
	c.session.Token = res.Token
	c.session.UserID = res.User.ID
	c.session.Name = res.User.Name
	c.session.Email = res.User.Email
	return c.session.Save()
}

// Logout forgets the stored token.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out struct {
		User Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListIssues runs a listing with the given filters.
func (c *Client) ListIssues(ctx context.Context, opts ListOptions) ([]Issue, error) {
	var out []Issue
	if err := c.do(ctx, http.MethodGet, "/api/issues?"+opts.Values().Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetIssue(ctx context.Context, id string) (*Issue, error) {
	var out Issue
	if err := c.do(ctx, http.MethodGet, "/api/issues/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateIssue reports a new issue. Nil lists are sent as empty ones.
func (c *Client) CreateIssue(ctx context.Context, in NewIssue) (*Issue, error) {
	if in.Comments == nil {
		in.Comments = []string{}
	}
	if in.Images == nil {
		in.Images = []string{}
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	var out struct {
		Issue Issue `json:"issue"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/issues", in, &out); err != nil {
		return nil, err
	}
	return &out.Issue, nil
}

func (c *Client) Upvote(ctx context.Context, issueID string) (*UpvoteState, error) {
	return c.upvote(ctx, http.MethodPost, issueID, "upvote")
}

func (c *Client) RemoveUpvote(ctx context.Context, issueID string) (*UpvoteState, error) {
	return c.upvote(ctx, http.MethodPost, issueID, "remove-upvote")
}

func (c *Client) UpvoteStatus(ctx context.Context, issueID string) (*UpvoteState, error) {
	return c.upvote(ctx, http.MethodGet, issueID, "upvote-status")
}

func (c *Client) upvote(ctx context.Context, method, issueID, action string) (*UpvoteState, error) {
	var out UpvoteState
	if err := c.do(ctx, method, "/api/issues/"+url.PathEscape(issueID)+"/"+action, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, issueID, status string) (*Issue, error) {
	var out struct {
		Issue Issue `json:"issue"`
	}
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/api/issues/"+url.PathEscape(issueID)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out.Issue, nil
}

// UploadImages sends the files at paths as one multipart request.
func (c *Client) UploadImages(ctx context.Context, paths ...string) ([]UploadedImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range paths {
		if err := addFile(mw, p); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/images", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out []UploadedImage
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func addFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile("images", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
