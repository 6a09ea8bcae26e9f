// Package ledger holds what the destination clients share: credentials,
// error reporting and JSON request plumbing.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Destination names a supported ledger service.
type Destination string

const (
	Firefly Destination = "firefly3"
	Wallet  Destination = "wallet"
)

const DefaultTimeout = 30 * time.Second

// Auth carries run-scoped credentials. Firefly only uses Token.
type Auth struct {
	User  string `yaml:"user" json:"user"`
	Token string `yaml:"token" json:"token"`
}

// APIError is a non-2xx response from a ledger service.
type APIError struct {
	Method string
	URL    string
	Status int
	Code   string
	Body   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: status %d (%s): %s", e.Method, e.URL, e.Status, e.Code, e.Body)
	}

	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Requester sends JSON requests with a header hook for authentication.
type Requester struct {
	Client  *http.Client
	Headers func(h http.Header, auth Auth)
}

func NewRequester(timeout time.Duration, headers func(http.Header, Auth)) *Requester {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Requester{
		Client:  &http.Client{Timeout: timeout},
		Headers: headers,
	}
}

// Do sends body (if any) as JSON and decodes the response into out (if any).
func (r *Requester) Do(ctx context.Context, auth Auth, method, url string, body, out any) error {
	var reader io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if r.Headers != nil {
		r.Headers(req.Header, auth)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(req, resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func newAPIError(req *http.Request, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{
		Method: req.Method,
		URL:    req.URL.Redacted(),
		Status: resp.StatusCode,
		Body:   string(bytes.TrimSpace(body)),
	}

	var parsed struct {
		Code      string `json:"code"`
		Exception string `json:"exception"`
		Error     string `json:"error"`
	}

	if json.Unmarshal(body, &parsed) == nil {
		for _, c := range []string{parsed.Code, parsed.Exception, parsed.Error} {
			if c != "" {
				apiErr.Code = c
				break
			}
		}
	}

	return apiErr
}
