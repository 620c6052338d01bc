// Package rest implements the chore Adapter against the backend's JSON HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"familychores/pkg/domain"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var _ domain.Adapter = (*Client)(nil)

const defaultTimeout = 10 * time.Second

// StatusError reports a non-success HTTP status from the backend.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// Is matches domain.ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks to the REST backend.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http = &http.Client{Timeout: d, Transport: cl.http.Transport}
		}
	}
}

// NewClient returns a client for the API rooted at baseURL (e.g. http://localhost:3001/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("rest client requires a base url")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	c := &Client{base: u, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.base.String() + "/" + strings.Join(escaped, "/")
}

// do sends body (when non-nil) as JSON and decodes a successful response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, Path: req.URL.Path, Code: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			if json.Unmarshal(data, &payload) == nil {
				statusErr.Message = payload.Error
			}
		}
		return statusErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: empty body")
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListMembers fetches GET /family-members.
func (c *Client) ListMembers(ctx context.Context) ([]domain.FamilyMember, error) {
	var members []domain.FamilyMember
	if err := c.do(ctx, http.MethodGet, c.endpoint("family-members"), nil, &members); err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].Chores == nil {
			members[i].Chores = []domain.Chore{}
		}
	}
	return members, nil
}

// ListTemplates fetches GET /chore-templates.
func (c *Client) ListTemplates(ctx context.Context) ([]domain.ChoreTemplate, error) {
	var templates []domain.ChoreTemplate
	if err := c.do(ctx, http.MethodGet, c.endpoint("chore-templates"), nil, &templates); err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []domain.ChoreTemplate{}
	}
	return templates, nil
}

type newMember struct {
	Name    string         `json:"name"`
	Initial string         `json:"initial"`
	Color   string         `json:"color"`
	Chores  []domain.Chore `json:"chores"`
}

// CreateMember posts the member without an id and returns the server's record.
func (c *Client) CreateMember(ctx context.Context, member domain.FamilyMember) (domain.FamilyMember, error) {
	chores := member.Chores
	if chores == nil {
		chores = []domain.Chore{}
	}
	body := newMember{Name: member.Name, Initial: member.Initial, Color: member.Color, Chores: chores}
	var created domain.FamilyMember
	if err := c.do(ctx, http.MethodPost, c.endpoint("family-members"), body, &created); err != nil {
		return domain.FamilyMember{}, err
	}
	if created.Chores == nil {
		created.Chores = []domain.Chore{}
	}
	return created, nil
}

// DeleteMember sends DELETE /family-members/:id.
func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("family-members", id), nil, nil)
}

type newTemplate struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Recurrence  domain.Recurrence `json:"recurrence"`
	Days        []domain.Weekday  `json:"days"`
}

// CreateTemplate posts the template without an id.
func (c *Client) CreateTemplate(ctx context.Context, template domain.ChoreTemplate) (domain.ChoreTemplate, error) {
	days := template.Days
	if days == nil {
		days = []domain.Weekday{}
	}
	body := newTemplate{Name: template.Name, Description: template.Description, Recurrence: template.Recurrence, Days: days}
	var created domain.ChoreTemplate
	if err := c.do(ctx, http.MethodPost, c.endpoint("chore-templates"), body, &created); err != nil {
		return domain.ChoreTemplate{}, err
	}
	return created, nil
}

// DeleteTemplate sends DELETE /chore-templates/:id.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("chore-templates", id), nil, nil)
}

// AssignFromTemplate asks the backend to instantiate the template for the member.
func (c *Client) AssignFromTemplate(ctx context.Context, templateID, memberID string) (domain.Chore, error) {
	var created domain.Chore
	err := c.do(ctx, http.MethodPost, c.endpoint("family-members", memberID, "chores", "template", templateID), nil, &created)
	return created, err
}

// CreateChore posts a manually defined chore for the member.
func (c *Client) CreateChore(ctx context.Context, memberID string, chore domain.Chore) (domain.Chore, error) {
	chore.ID = ""
	var created domain.Chore
	err := c.do(ctx, http.MethodPost, c.endpoint("family-members", memberID, "chores"), chore, &created)
	return created, err
}

// UpdateChore sends the full chore with PUT.
func (c *Client) UpdateChore(ctx context.Context, memberID, choreID string, chore domain.Chore) error {
	return c.do(ctx, http.MethodPut, c.endpoint("family-members", memberID, "chores", choreID), chore, nil)
}

// DeleteChore sends DELETE /family-members/:memberId/chores/:choreId.
func (c *Client) DeleteChore(ctx context.Context, memberID, choreID string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("family-members", memberID, "chores", choreID), nil, nil)
}

// ReassignChore sends PUT /family-members/:fromId/chores/:choreId/reassign/:toId.
func (c *Client) ReassignChore(ctx context.Context, fromID, toID, choreID string) error {
	return c.do(ctx, http.MethodPut, c.endpoint("family-members", fromID, "chores", choreID, "reassign", toID), nil, nil)
}
