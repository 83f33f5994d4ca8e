// Package httpclient is the single outbound gateway for REST calls. It attaches
// the bearer credential, unwraps the {code, message, result} envelope,
// normalizes failures into *apierr.APIError and expires the session on 401.
package httpclient

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

	"github.com/rs/zerolog"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/metrics"
	"github.com/p-blackswan/taskhub/internal/requestid"
)

// DefaultErrorMessage is used when a failure response carries no message.
const DefaultErrorMessage = "An error occurred"

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials supplies the bearer token and reacts to its rejection.
type Credentials interface {
	Token() string
	Expire(ctx context.Context)
}

// Client wraps the taskhub REST API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	creds      Credentials
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New creates a client. timeout 0 leaves request deadlines to the transport
// and the caller's context.
func New(baseURL string, creds Credentials, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		metrics:    m,
		logger:     logger.With().Str("component", "httpclient").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the payload into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do executes one REST call. body is JSON-encoded when non-nil; out may be
// nil. An empty or null payload leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	reqID := req.Header.Get(requestid.Header)
	log := c.logger.With().Str("request_id", reqID).Str("method", method).Str("path", path).Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordHTTP(method, 0, time.Since(start).Seconds())
		log.Warn().Err(err).Msg("request failed without response")
		return apierr.NewNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.RecordHTTP(method, resp.StatusCode, time.Since(start).Seconds())
	if err != nil {
		return apierr.NewNetworkError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		apiErr := parseError(resp.StatusCode, data)
		if resp.StatusCode == http.StatusUnauthorized && c.creds != nil {
			log.Warn().Msg("credential rejected, expiring session")
			c.creds.Expire(context.WithoutCancel(ctx))
		} else {
			log.Debug().Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("request rejected")
		}
		return apiErr
	}

	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("request completed")
	return decodePayload(data, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	requestid.Apply(req)
	return req, nil
}
