// Package client is the HTTP client of the remote blog API.
package client

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
)

const (
	outcomeSuccess   = "success"
	outcomeEmpty     = "empty"
	outcomeError     = "error"
	outcomeTransport = "transport"

	maxResponseBytes = 4 << 20
)

// Client calls the remote blog API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        zerolog.Logger
}

// String implements the stringer interface.
func (c *Client) String() string {
	return fmt.Sprintf("Client (%s)", c.baseURL)
}

// endpoint resolves a path relative to the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

// newRequest builds an authorized API request.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, token model.AuthToken, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", token.Header())
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// do sends the request and wraps the outcome. It never returns a Go error:
// every failure ends up in the APIResponse.
func do[T any](c *Client, name string, req *http.Request) resource.APIResponse[T] {
	start := time.Now()
	log := c.log.With().Str("endpoint", name).Logger()

	res, err := c.httpClient.Do(req)
	if err != nil {
		monitor.CallServed(name, outcomeTransport, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return resource.NewAPIError[T](0, model.ErrorNetworkTimeout)
		}
		log.Warn().Err(err).Msg("transport failure")
		return resource.NewAPIError[T](0, transportMessage(err))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		monitor.CallServed(name, outcomeTransport, time.Since(start))
		return resource.NewAPIError[T](res.StatusCode, transportMessage(err))
	}
	dur := time.Since(start)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		monitor.CallServed(name, outcomeError, dur)
		return resource.NewAPIError[T](res.StatusCode, errorMessage(res.StatusCode, raw))
	}
	if res.StatusCode == http.StatusNoContent || len(strings.TrimSpace(string(raw))) == 0 {
		monitor.CallServed(name, outcomeEmpty, dur)
		return resource.NewAPIEmpty[T](res.StatusCode)
	}

	var body T
	if err := json.Unmarshal(raw, &body); err != nil {
		monitor.CallServed(name, outcomeError, dur)
		log.Warn().Err(err).Msg("response decode failed")
		return resource.NewAPIError[T](res.StatusCode, model.ErrorUnknown)
	}
	monitor.CallServed(name, outcomeSuccess, dur)
	log.Debug().Int("status", res.StatusCode).Dur("dur", dur).Msg("api call")

	return resource.NewAPISuccess(res.StatusCode, body)
}

// errorMessage extracts the server supplied message.
func errorMessage(statusCode int, raw []byte) string {
	var errRes model.ErrorResponse
	if err := json.Unmarshal(raw, &errRes); err == nil {
		if msg := errRes.Message(); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}

	return model.ErrorUnknown
}

// transportMessage strips the url.Error wrapping (method and URL).
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}

	return err.Error()
}

// NewClient creates a new Client object.
// timeout bounds a whole call including the body read; the reconciler applies its own deadline on top.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "timeout")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid: %w", "baseURL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: unsupported scheme %q", "baseURL", u.Scheme)
	}

	monitor.Register(prometheus.DefaultRegisterer)

	c := Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "api-client").Logger(),
	}

	return &c, nil
}
