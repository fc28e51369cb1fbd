package rtdb

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

	"github.com/five82/courier/internal/remote"
)

// ErrAuthRevoked is returned when the server revokes the stream credentials.
var ErrAuthRevoked = errors.New("rtdb auth revoked")

// Ensure Client implements remote.Backend at compile time.
var _ remote.Backend = (*Client)(nil)

// Client talks to the Firebase Realtime Database REST API.
type Client struct {
	baseURL      *url.URL
	authToken    string
	http         *http.Client
	stream       *http.Client
	userAgent    string
	reconnectMin time.Duration
}

const (
	defaultUserAgent   = "courier/0.1"
	requestTimeout     = 10 * time.Second
	defaultReconnect   = 2 * time.Second
	maxEventLineLength = 4 << 20
)

// NewClient builds a Client for databaseURL such as https://project.firebaseio.com.
// authToken is sent as the auth query parameter when set.
func NewClient(databaseURL, authToken string) (*Client, error) {
	base, err := parseBaseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		authToken: strings.TrimSpace(authToken),
		http: &http.Client{
			Timeout: requestTimeout,
		},
		// Streams stay open indefinitely; only the context ends them.
		stream:       &http.Client{},
		userAgent:    defaultUserAgent,
		reconnectMin: defaultReconnect,
	}, nil
}

// Get fetches the collection document.
func (c *Client) Get(ctx context.Context, collection string) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body, err := c.do(ctx, http.MethodGet, collection, nil)
	if err != nil {
		return nil, err
	}
	if remote.IsNull(body) {
		return remote.Null, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("get %s: response is not valid JSON", collection)
	}
	return body, nil
}

// Set replaces the collection document with doc.
func (c *Client) Set(ctx context.Context, collection string, doc json.RawMessage) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if remote.IsNull(doc) {
		doc = remote.Null
	}
	_, err := c.do(ctx, http.MethodPut, collection, doc)
	return err
}

// Watch follows the collection's event stream, reconnecting with backoff.
func (c *Client) Watch(ctx context.Context, collection string, onValue func(json.RawMessage), onError func(error)) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return remote.Reconnect(ctx, c.reconnectMin, func(ctx context.Context, reset func()) error {
		return c.follow(ctx, collection, onValue, reset)
	}, onError)
}

// Close releases idle connections.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.http.CloseIdleConnections()
	c.stream.CloseIdleConnections()
	return nil
}

func (c *Client) follow(ctx context.Context, collection string, onValue func(json.RawMessage), reset func()) error {
	req, err := c.newRequest(ctx, http.MethodGet, collection, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("stream %s returned status %d", collection, resp.StatusCode)
	}

	events := newEventReader(resp.Body)
	for {
		ev, err := events.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("stream %s closed by server", collection)
			}
			return fmt.Errorf("read stream: %w", err)
		}
		reset()

		switch ev.Name {
		case "put", "patch":
			doc, err := c.valueFor(ctx, collection, ev)
			if err != nil {
				return err
			}
			onValue(doc)
		case "keep-alive":
		case "cancel":
			return fmt.Errorf("stream %s cancelled: %s", collection, strings.TrimSpace(ev.Data))
		case "auth_revoked":
			return ErrAuthRevoked
		}
	}
}

// valueFor resolves the full collection value after a put or patch event.
// A root put carries the whole document; anything else is refetched.
func (c *Client) valueFor(ctx context.Context, collection string, ev event) (json.RawMessage, error) {
	var payload struct {
		Path string          `json:"path"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", ev.Name, err)
	}
	if ev.Name == "put" && payload.Path == "/" {
		if remote.IsNull(payload.Data) {
			return remote.Null, nil
		}
		return payload.Data, nil
	}
	return c.Get(ctx, collection)
}

func (c *Client) do(ctx context.Context, method, collection string, body []byte) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, method, collection, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("rtdb %s %s returned status %d: %s", method, collection, resp.StatusCode, errorMessage(data))
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, method, collection string, body []byte) (*http.Request, error) {
	rel := &url.URL{Path: "/" + strings.Trim(collection, "/") + ".json"}
	if c.authToken != "" {
		rel.RawQuery = url.Values{"auth": {c.authToken}}.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// errorMessage extracts {"error": "..."} bodies, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func parseBaseURL(databaseURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(databaseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("database_url is required for the rtdb backend")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse database_url %q: %w", databaseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse database_url %q: missing host", databaseURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
