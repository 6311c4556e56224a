// Package knowledge talks to the knowledge-store HTTP API: sessions,
// transcript messages, saved knowledge, todos and port registrations.
package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps the knowledge-store REST API.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

// Session is a recorded assistant session.
type Session struct {
	ID        string    `json:"id,omitempty"`
	Project   string    `json:"project"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Message is one transcript line.
type Message struct {
	SessionID string    `json:"session_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// MessageBatch is the upload unit for transcript lines.
type MessageBatch struct {
	BatchID  string    `json:"batch_id"`
	Messages []Message `json:"messages"`
}

// Knowledge is a saved note.
type Knowledge struct {
	ID      string   `json:"id,omitempty"`
	Project string   `json:"project,omitempty"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// Todo is a tracked work item.
type Todo struct {
	ID      string `json:"id,omitempty"`
	Project string `json:"project,omitempty"`
	Text    string `json:"text"`
	Done    bool   `json:"done"`
}

// PortReport registers a port a project service is listening on.
type PortReport struct {
	Project string `json:"project"`
	Port    int    `json:"port"`
	Name    string `json:"name,omitempty"`
}

// CreateSession registers a new session and returns it with its server id.
func (c *Client) CreateSession(ctx context.Context, project string) (*Session, error) {
	var created Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(Session{Project: project}).
		SetResult(&created).
		Post("/sessions")
	if err := checkResponse(resp, err, "create session"); err != nil {
		return nil, err
	}
	return &created, nil
}

// AppendMessages uploads a batch of transcript messages.
func (c *Client) AppendMessages(ctx context.Context, batch MessageBatch) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(batch).
		Post("/messages")
	return checkResponse(resp, err, "append messages")
}

// SaveKnowledge stores a note and returns it with its server id.
func (c *Client) SaveKnowledge(ctx context.Context, k Knowledge) (*Knowledge, error) {
	var saved Knowledge
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(k).
		SetResult(&saved).
		Post("/knowledge")
	if err := checkResponse(resp, err, "save knowledge"); err != nil {
		return nil, err
	}
	return &saved, nil
}

// SearchKnowledge returns notes matching query, optionally scoped to project.
func (c *Client) SearchKnowledge(ctx context.Context, query, project string) ([]Knowledge, error) {
	var results []Knowledge
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&results)
	if project != "" {
		req.SetQueryParam("project", project)
	}
	resp, err := req.Get("/knowledge/search")
	if err := checkResponse(resp, err, "search knowledge"); err != nil {
		return nil, err
	}
	return results, nil
}

// AddTodo creates a todo item.
func (c *Client) AddTodo(ctx context.Context, todo Todo) (*Todo, error) {
	var created Todo
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(todo).
		SetResult(&created).
		Post("/todos")
	if err := checkResponse(resp, err, "add todo"); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListTodos returns todos, optionally scoped to project.
func (c *Client) ListTodos(ctx context.Context, project string) ([]Todo, error) {
	var todos []Todo
	req := c.http.R().
		SetContext(ctx).
		SetResult(&todos)
	if project != "" {
		req.SetQueryParam("project", project)
	}
	resp, err := req.Get("/todos")
	if err := checkResponse(resp, err, "list todos"); err != nil {
		return nil, err
	}
	return todos, nil
}

// ReportPort registers a listening port for a project.
func (c *Client) ReportPort(ctx context.Context, report PortReport) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(report).
		Post("/ports")
	return checkResponse(resp, err, "report port")
}

func checkResponse(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: server returned %s: %s", op, resp.Status(), resp.String())
	}
	return nil
}
