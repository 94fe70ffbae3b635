// Package client provides a client for the SushiCount API. The signed-in user, the token
// and the pending sushi counter are persisted in a LocalStore between runs.
package client

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

	"github.com/tidwall/gjson"
)

// Client bundles the per-resource services over one HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *LocalStore

	Users        *UserService
	Sessions     *SessionService
	Participants *ParticipantService
	Friends      *FriendService
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Store   *LocalStore
}

// New creates a new SushiCount client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store: cfg.Store,
	}
	c.Users = &UserService{c: c}
	c.Sessions = &SessionService{c: c}
	c.Participants = &ParticipantService{c: c}
	c.Friends = &FriendService{c: c}
	return c
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

var ErrInvalidArgument = errors.New("invalid argument")

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.store != nil {
		if token, err := c.store.Token(); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp, respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// errorMessage pulls the error text out of the API's error body, falling back to the status line.
func errorMessage(resp *http.Response, body []byte) string {
	if gjson.ValidBytes(body) {
		result := gjson.GetManyBytes(body, "error", "message")
		msg := result[0].String()
		if detail := result[1].String(); detail != "" {
			if msg == "" {
				msg = detail
			} else {
				msg += ": " + detail
			}
		}
		if msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return resp.Status
}
