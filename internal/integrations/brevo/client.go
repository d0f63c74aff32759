package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"parker-electrical/internal/domain"
)

const DefaultBaseURL = "https://api.brevo.com/v3"

// sendRequest is the request shape for the transactional email endpoint.
type sendRequest struct {
	Sender      contact   `json:"sender"`
	To          []contact `json:"to"`
	ReplyTo     *contact  `json:"replyTo,omitempty"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
	TextContent string    `json:"textContent,omitempty"`
}

type contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("brevo: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client sends transactional email through the Brevo SMTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if u := strings.TrimSpace(baseURL); u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("brevo: api key must not be empty")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func sendURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/smtp/email"
}

// Send delivers email and returns once Brevo has accepted it.
func (c *Client) Send(ctx context.Context, email domain.Email) error {
	if len(email.To) == 0 {
		return errors.New("brevo: at least one recipient is required")
	}

	body, err := json.Marshal(toSendRequest(email))
	if err != nil {
		return fmt.Errorf("brevo: marshal request: %w", err)
	}

	url := sendURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("brevo: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return fmt.Errorf("brevo: request failed: %w", err)
	}

	var payload sendResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("brevo: decode response: %w", err)
		}
	}
	return nil
}

func toSendRequest(email domain.Email) sendRequest {
	out := sendRequest{
		Sender:      contact{Name: email.Sender.Name, Email: email.Sender.Email},
		To:          make([]contact, 0, len(email.To)),
		Subject:     email.Subject,
		HTMLContent: email.HTMLBody,
		TextContent: email.TextBody,
	}
	for _, a := range email.To {
		out.To = append(out.To, contact{Name: a.Name, Email: a.Email})
	}
	if email.ReplyTo != nil && email.ReplyTo.Email != "" {
		out.ReplyTo = &contact{Name: email.ReplyTo.Name, Email: email.ReplyTo.Email}
	}
	return out
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
