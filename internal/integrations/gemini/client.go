package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"parker-electrical/internal/domain"
)

const DefaultModel = "gemini-flash-latest"

const (
	roleUser  = "user"
	roleModel = "model"
)

// HTTPStatusError carries the upstream status of a failed generation.
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

// sendFunc performs one chat turn against the provider.
type sendFunc func(ctx context.Context, systemPrompt string, history []*genai.Content, message string) (*genai.GenerateContentResponse, error)

// Client is a Gemini chat client. The system prompt is per request, so a
// GenerativeModel handle is built for every call.
type Client struct {
	client *genai.Client
	model  string
	send   sendFunc
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key must not be empty")
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c := &Client{client: gc, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	c.send = c.sendMessage
	return c, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Chat(ctx context.Context, systemPrompt string, history []domain.ChatMessage, message string) (string, error) {
	resp, err := c.send(ctx, systemPrompt, toContents(history), message)
	if err != nil {
		return "", wrapError(err)
	}
	return responseText(resp)
}

func (c *Client) sendMessage(ctx context.Context, systemPrompt string, history []*genai.Content, message string) (*genai.GenerateContentResponse, error) {
	model := c.client.GenerativeModel(c.model)
	if s := strings.TrimSpace(systemPrompt); s != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(s)}}
	}
	cs := model.StartChat()
	cs.History = history
	return cs.SendMessage(ctx, genai.Text(message))
}

// toContents maps history onto Gemini turns. The provider wants history to
// open with a user turn and alternate, so leading model turns are dropped and
// consecutive same-role turns are merged.
func toContents(history []domain.ChatMessage) []*genai.Content {
	var out []*genai.Content
	var texts []string
	flush := func() {
		if len(out) > 0 && len(texts) > 0 {
			out[len(out)-1].Parts = []genai.Part{genai.Text(strings.Join(texts, "\n"))}
		}
		texts = nil
	}
	for _, m := range history {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		role := roleUser
		if m.Role == domain.RoleAssistant {
			role = roleModel
		}
		if len(out) == 0 && role == roleModel {
			continue
		}
		if len(out) == 0 || out[len(out)-1].Role != role {
			flush()
			out = append(out, &genai.Content{Role: role})
		}
		texts = append(texts, text)
	}
	flush()
	return out
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return "", errors.New("gemini: candidate has no content")
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// wrapError surfaces the upstream status from REST or gRPC errors.
func wrapError(err error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return &HTTPStatusError{StatusCode: code, Err: err}
		}
		if st := apiErr.GRPCStatus(); st != nil {
			if code := httpStatusFromGRPC(st.Code()); code != 0 {
				return &HTTPStatusError{StatusCode: code, Err: err}
			}
		}
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code > 0 {
		return &HTTPStatusError{StatusCode: gErr.Code, Err: err}
	}
	return fmt.Errorf("gemini: generate: %w", err)
}

func httpStatusFromGRPC(code codes.Code) int {
	switch code {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Internal:
		return http.StatusInternalServerError
	}
	return 0
}
