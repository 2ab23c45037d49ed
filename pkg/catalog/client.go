/*
 *     Copyright 2025 The CNAI Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modelpack/modlink/internal/events"
	"github.com/modelpack/modlink/pkg/config"
	"github.com/modelpack/modlink/pkg/version"
)

const (
	// DefaultBaseURL is the catalog REST endpoint.
	DefaultBaseURL = "https://api.roboflow.com"

	// requestTimeout bounds every request, there are no retries.
	requestTimeout = 30 * time.Second

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 1 << 20
)

// Record is one normalized catalog object.
type Record map[string]any

// String returns the string value under key, or "".
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}

	return ""
}

// Client talks to the catalog REST API with a static API key.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	events     events.Emitter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEmitter records catalog events with e.
func WithEmitter(e events.Emitter) Option {
	return func(c *Client) {
		c.events = e
	}
}

// New creates a catalog client. An empty apiKey is allowed: listings then
// come back empty and writes fail with a 401 Error.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		events:     events.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasAPIKey reports whether the client is configured with a key.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// request performs a call against the API and returns the body of a 2xx
// response. segments are path escaped and joined.
func (c *Client) request(ctx context.Context, method string, segments []string, query url.Values, body any) ([]byte, error) {
	if c.apiKey == "" {
		return nil, missingKey()
	}

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	u, err := url.Parse(c.baseURL + "/" + strings.Join(escaped, "/"))
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid request URL: %v", err)}
	}

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &Error{Message: c.redact(fmt.Sprintf("invalid request: %v", err))}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logrus.Debugf("catalog: %s %s", method, u.Path)
	return c.send(req)
}

// send executes req and translates transport and status failures.
func (c *Client) send(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", version.AppName+"/"+version.AppVersion())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: c.redact(fmt.Sprintf("network error: %v", err))}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, c.statusError(resp.StatusCode, data)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: c.redact(fmt.Sprintf("failed to read response: %v", err))}
	}

	return data, nil
}

// statusError builds the Error of a non-2xx response.
func (c *Client) statusError(status int, body []byte) *Error {
	message := strings.TrimSpace(string(body))

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if m := payloadMessage(payload); m != "" {
			message = m
		}
	} else {
		payload = nil
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		message = fmt.Sprintf("authentication failed for API key %s. %s", config.MaskSecret(c.apiKey), message)
	case status == http.StatusNotFound:
		message = fmt.Sprintf("resource not found. %s", message)
	case status >= 500:
		message = fmt.Sprintf("service unavailable (%d). %s", status, message)
	}

	return &Error{StatusCode: status, Message: c.redact(strings.TrimSpace(message)), Payload: payload}
}

// payloadMessage extracts the error text of a JSON error body.
func payloadMessage(payload map[string]any) string {
	for _, key := range []string{"error", "message"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
	}

	return ""
}

// redact replaces the raw API key in s with its masked form.
func (c *Client) redact(s string) string {
	if c.apiKey == "" {
		return s
	}

	masked := config.MaskSecret(c.apiKey)
	s = strings.ReplaceAll(s, url.QueryEscape(c.apiKey), masked)
	return strings.ReplaceAll(s, c.apiKey, masked)
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &Error{StatusCode: http.StatusOK, Message: fmt.Sprintf("unexpected response: %v", err)}
	}

	return obj, nil
}
