// Package client talks to the Wisora API over HTTP and implements
// engagement.Remote.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anonto42/wisora/internal/engagement"
)

var _ engagement.Remote = (*Client)(nil)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, engagement.ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == engagement.ErrNotFound && e.Status == http.StatusNotFound
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api/v1. httpClient may be nil.
func New(baseURL, token string, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		log:        log.With().Str("component", "client").Logger(),
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do sends body as JSON and decodes the envelope's data into out when out is
// not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api call")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) ToggleReaction(ctx context.Context, target engagement.ReactionTarget) (engagement.ReactionState, error) {
	var st engagement.ReactionState
	err := c.do(ctx, http.MethodPost, "/likes/toggle", target, &st)
	return st, err
}

func (c *Client) ReactionStatus(ctx context.Context, target engagement.ReactionTarget) (engagement.ReactionState, error) {
	var st engagement.ReactionState
	path := "/likes/" + url.PathEscape(target.ID) + "?targetType=" + url.QueryEscape(string(target.Kind))
	err := c.do(ctx, http.MethodGet, path, nil, &st)
	return st, err
}

func (c *Client) ToggleFollow(ctx context.Context, followeeID string) (bool, error) {
	var out struct {
		Following bool `json:"following"`
	}
	err := c.do(ctx, http.MethodPost, "/users/follow/"+url.PathEscape(followeeID), nil, &out)
	return out.Following, err
}

func (c *Client) ListNotifications(ctx context.Context) ([]engagement.Notification, error) {
	var out struct {
		Notifications []engagement.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read/"+url.PathEscape(id), nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, nil)
}

type textBody struct {
	Text string `json:"text"`
}

func (c *Client) AttachComment(ctx context.Context, parent engagement.NodeRef, body string) (engagement.Comment, error) {
	var path string
	switch parent.Kind {
	case engagement.NodeAnswer:
		path = "/comments/answer/" + url.PathEscape(parent.ID)
	case engagement.NodeComment:
		path = "/comments/comment/" + url.PathEscape(parent.ID)
	default:
		return engagement.Comment{}, errors.New("unknown parent kind " + string(parent.Kind))
	}
	var cm engagement.Comment
	err := c.do(ctx, http.MethodPost, path, textBody{Text: body}, &cm)
	return cm, err
}

func (c *Client) EditComment(ctx context.Context, id, body string) (engagement.Comment, error) {
	var cm engagement.Comment
	err := c.do(ctx, http.MethodPut, "/comments/"+url.PathEscape(id), textBody{Text: body}, &cm)
	return cm, err
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListComments(ctx context.Context, parentID string) ([]engagement.Comment, error) {
	var out struct {
		Comments []engagement.Comment `json:"comments"`
	}
	if err := c.do(ctx, http.MethodGet, "/comments/"+url.PathEscape(parentID), nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

func (c *Client) ListAnswers(ctx context.Context, questionID string) ([]engagement.Answer, error) {
	var out struct {
		Answers []engagement.Answer `json:"answers"`
	}
	if err := c.do(ctx, http.MethodGet, "/answers/question/"+url.PathEscape(questionID), nil, &out); err != nil {
		return nil, err
	}
	return out.Answers, nil
}

func (c *Client) EditAnswer(ctx context.Context, id, body string) (engagement.Answer, error) {
	var a engagement.Answer
	err := c.do(ctx, http.MethodPut, "/answers/"+url.PathEscape(id), textBody{Text: body}, &a)
	return a, err
}

func (c *Client) DeleteAnswer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/answers/"+url.PathEscape(id), nil, nil)
}
