// Package transport submits chat messages to a cyborgbench server and decodes
// the reply.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// Endpoint is the path chat messages are posted to.
const Endpoint = "/get_response"

var (
	// ErrConnectivity wraps every failure to obtain a decodable reply.
	ErrConnectivity = errors.New("connectivity failure")
	// ErrEmptyMessage is returned for blank input; no request is sent.
	ErrEmptyMessage = errors.New("message is empty")
)

// maxBody bounds how much of a response body is read.
const maxBody = 1 << 20

// Client posts chat messages over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the server at baseURL. A zero timeout leaves
// cancellation to the request context.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send posts msg as the form field "msg" and decodes the JSON reply.
func (c *Client) Send(ctx context.Context, msg string) (*models.ChatResponse, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	data := url.Values{}
	data.Set("msg", msg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrConnectivity, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out models.ChatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrConnectivity, err)
	}
	return &out, nil
}
