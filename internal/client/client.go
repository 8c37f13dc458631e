package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/skyforge-project/skyforge-cli/internal/config"
	"github.com/tidwall/gjson"
)

// requestTimeout bounds every outbound call. The server side owns all
// long-running work; a client call that takes longer than this has failed.
const requestTimeout = 30 * time.Second

// Client issues JSON requests against one skyforge server. It is stateless
// between calls; connection reuse is whatever the underlying http.Client
// provides by default.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server described by cfg, honoring its TLS
// verification and proxy settings.
func New(cfg *config.Config) (*Client, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: cfg.URL(),
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
	}, nil
}

// Do issues one request and classifies the response. The body, when non-nil,
// is JSON-encoded and Content-Type is set; token, when non-empty, is sent as
// a bearer credential. On 2xx the raw JSON body is returned; every other
// outcome maps to one of the typed errors in this package.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, token string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debugf("%s %s", method, url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Host: c.baseURL, Cause: err}
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Debugf("failed to close response body: %v", errClose)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return classify(resp.StatusCode, raw, url)
}

// classify maps one status/body pair to a result or typed error. Precedence
// for error bodies: structured errors map (400) > msg field (401/403/404/409)
// > bare HTTP status.
func classify(status int, raw []byte, url string) ([]byte, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &MalformedResponseError{URL: url}
	}

	if status >= 200 && status < 300 {
		return raw, nil
	}

	parsed := gjson.ParseBytes(raw)
	msg := parsed.Get("msg").String()

	switch {
	case status == http.StatusBadRequest:
		if fieldErrs := parsed.Get("errors"); fieldErrs.IsObject() {
			fields := make(map[string]string)
			fieldErrs.ForEach(func(key, value gjson.Result) bool {
				fields[key.String()] = value.String()
				return true
			})
			return nil, &ValidationError{Fields: fields}
		}
		if msg == "" {
			msg = parsed.Get("error").String()
		}
		if msg != "" {
			return nil, &RejectedError{Message: msg, Status: status}
		}
	case status == http.StatusUnauthorized:
		if msg == "" {
			msg = "authentication required"
		}
		return nil, &UnauthorizedError{Message: msg}
	case status == http.StatusForbidden, status == http.StatusNotFound, status == http.StatusConflict:
		if msg != "" {
			return nil, &RejectedError{Message: msg, Status: status}
		}
	}

	return nil, &HTTPError{Status: status}
}
