package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vadim/tosembanda/internal/apperr"
	chatentity "github.com/vadim/tosembanda/internal/domain/chat/entity"
	notifentity "github.com/vadim/tosembanda/internal/domain/notification/entity"
)

const (
	defaultBaseURL = "http://localhost:8080"
	apiPrefix      = "/api/v1"
	defaultTimeout = 30 * time.Second
)

// Client is a client for the chat HTTP API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithToken sets the bearer token sent with every request
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new chat API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ErrorResponse is the error body returned by the API
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Me returns the id of the authenticated user
func (c *Client) Me(ctx context.Context) (string, error) {
	var out struct {
		UserID string `json:"user_id"`
	}
	if err := c.call(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// Resolve finds or creates the conversation with a profile or the owner of a listing
func (c *Client) Resolve(ctx context.Context, targetID, listingID string) (*chatentity.Conversation, error) {
	in := map[string]string{}
	if targetID != "" {
		in["target_id"] = targetID
	}
	if listingID != "" {
		in["listing_id"] = listingID
	}

	var conv chatentity.Conversation
	if err := c.call(ctx, http.MethodPost, "/conversations/resolve", in, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the caller's conversation summaries
func (c *Client) ListConversations(ctx context.Context) ([]chatentity.Summary, error) {
	var out struct {
		Conversations []chatentity.Summary `json:"conversations"`
	}
	if err := c.call(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// HideConversation removes a conversation from the caller's list
func (c *Client) HideConversation(ctx context.Context, conversationID string) error {
	return c.call(ctx, http.MethodDelete, "/conversations/"+url.PathEscape(conversationID), nil, nil)
}

// LoadMessages returns a conversation's history, oldest first
func (c *Client) LoadMessages(ctx context.Context, conversationID string) ([]chatentity.Message, error) {
	var out struct {
		Messages []chatentity.Message `json:"messages"`
	}
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage submits a message and returns the stored record
func (c *Client) SendMessage(ctx context.Context, conversationID, text string, listingID *string) (*chatentity.Message, error) {
	in := struct {
		Text      string  `json:"text"`
		ListingID *string `json:"listing_id,omitempty"`
	}{Text: text, ListingID: listingID}

	var msg chatentity.Message
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.call(ctx, http.MethodPost, path, in, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListNotifications returns the caller's most recent notifications
func (c *Client) ListNotifications(ctx context.Context, limit int) ([]notifentity.Notification, error) {
	path := "/notifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Notifications []notifentity.Notification `json:"notifications"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// UnreadCount returns the caller's unread notification count
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.call(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkAllRead marks every notification of the caller as read
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/notifications/read-all", nil, nil)
}

// MarkRead marks one notification as read
func (c *Client) MarkRead(ctx context.Context, notificationID string) error {
	return c.call(ctx, http.MethodPost, "/notifications/"+url.PathEscape(notificationID)+"/read", nil, nil)
}

// RecordProfileView notifies a profile owner that the caller viewed it
func (c *Client) RecordProfileView(ctx context.Context, profileID string) error {
	return c.call(ctx, http.MethodPost, "/profiles/"+url.PathEscape(profileID)+"/views", nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	// Check for error response
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, body)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// decodeError turns an API error body back into an application error
func decodeError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Code == "" {
		return fmt.Errorf("API error (status %d): %s", status, strings.TrimSpace(string(body)))
	}

	kind := apperr.Kind(errResp.Code)
	if kind == apperr.KindInternal {
		return fmt.Errorf("API error (status %d): %s", status, errResp.Error)
	}
	return apperr.New(kind, errResp.Error)
}
