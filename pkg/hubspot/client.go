// Package hubspot provides a minimal HubSpot CRM v3 API client for the
// follow-up actions the insights pipeline emits.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.hubapi.com"

// Client performs CRM object operations against the HubSpot API.
type Client interface {
	CreateTask(ctx context.Context, task TaskInput) (*ObjectResponse, error)
	CreateTicket(ctx context.Context, ticket TicketInput) (*ObjectResponse, error)
	UpdateContact(ctx context.Context, contactID string, properties map[string]string) (*ObjectResponse, error)
}

// TaskInput holds the properties for POST /crm/v3/objects/tasks.
type TaskInput struct {
	Subject  string `json:"hs_task_subject"`
	Body     string `json:"hs_task_body,omitempty"`
	Status   string `json:"hs_task_status,omitempty"`
	Priority string `json:"hs_task_priority,omitempty"`
}

// TicketInput holds the properties for POST /crm/v3/objects/tickets.
type TicketInput struct {
	Subject  string `json:"subject"`
	Content  string `json:"content,omitempty"`
	Pipeline string `json:"hs_pipeline,omitempty"`
	Stage    string `json:"hs_pipeline_stage,omitempty"`
}

// ObjectResponse is the common shape HubSpot returns for object writes.
type ObjectResponse struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a HubSpot API client authenticated with a private app token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) CreateTask(ctx context.Context, task TaskInput) (*ObjectResponse, error) {
	if task.Subject == "" {
		return nil, eris.New("hubspot: task subject is required")
	}
	return c.post(ctx, "/crm/v3/objects/tasks", task)
}

func (c *httpClient) CreateTicket(ctx context.Context, ticket TicketInput) (*ObjectResponse, error) {
	if ticket.Subject == "" {
		return nil, eris.New("hubspot: ticket subject is required")
	}
	return c.post(ctx, "/crm/v3/objects/tickets", ticket)
}

func (c *httpClient) UpdateContact(ctx context.Context, contactID string, properties map[string]string) (*ObjectResponse, error) {
	if contactID == "" {
		return nil, eris.New("hubspot: contact id is required")
	}
	return c.send(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+contactID, properties)
}

func (c *httpClient) post(ctx context.Context, path string, properties any) (*ObjectResponse, error) {
	return c.send(ctx, http.MethodPost, path, properties)
}

func (c *httpClient) send(ctx context.Context, method, path string, properties any) (*ObjectResponse, error) {
	body, err := json.Marshal(map[string]any{"properties": properties})
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: read response")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, eris.Errorf("hubspot: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result ObjectResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "hubspot: unmarshal response")
	}

	return &result, nil
}
