package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"chat-notifier/internal/content"
	"chat-notifier/internal/models"
)

// MessagingAPI is the slice of the console's REST backend the notifier consumes.
type MessagingAPI interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
	ListRecentMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, channelID string, req SendMessageRequest) (models.Message, error)
	DeleteChannel(ctx context.Context, channelID string) error
}

// SendMessageRequest is the body of a send call. Only system markers go through here.
type SendMessageRequest struct {
	Content   string  `json:"content"`
	TicketRef *string `json:"ticket_id,omitempty"`
}

// APIError represents a non-2xx response from the messaging API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("messaging api error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("messaging api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("messaging api error (%d)", e.Status)
}

// IsNotFound reports whether err is a 404 from the messaging API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type apiErrorPayload struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client talks to the messaging API over HTTP.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
}

// NewClient constructs a messaging API client.
func NewClient(baseURL string, tokens TokenProvider, timeout time.Duration) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, errors.New("token provider is required")
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: normalized,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// NormalizeBaseURL trims the base URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("api url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("api url must include scheme (https://)")
	}
	return strings.TrimRight(value, "/"), nil
}

// ListChannels returns every channel the token's user belongs to.
func (c *Client) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var resp struct {
		Channels []models.Channel `json:"channels"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/chat/channels", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

// ListRecentMessages returns the newest limit messages of a channel, newest last.
func (c *Client) ListRecentMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, channelPath(channelID, "messages"), query, nil, &resp); err != nil {
		return nil, err
	}
	models.ParseBodies(resp.Messages)
	return resp.Messages, nil
}

// SendMessage posts a message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, req SendMessageRequest) (models.Message, error) {
	var msg models.Message
	if err := c.doJSON(ctx, http.MethodPost, channelPath(channelID, "messages"), nil, req, &msg); err != nil {
		return models.Message{}, err
	}
	msg.Body = content.Parse(msg.Content)
	return msg, nil
}

// DeleteChannel removes a channel for every participant.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.doJSON(ctx, http.MethodDelete, channelPath(channelID, ""), nil, nil, nil)
}

func channelPath(channelID, suffix string) string {
	path := "/chat/channels/" + url.PathEscape(channelID)
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetch access token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
			if apiErr.Message == "" {
				apiErr.Message = payload.Error
			}
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
