// Package gateway is the HTTP client for the KSCST training backend. Every
// call attaches Basic authentication when credentials are supplied, decodes
// and validates the typed response, and normalizes failures into *Error.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/metrics"
	"github.com/kscst/training-portal/internal/core/domain"
)

// DefaultBaseURL is the backend base URL used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api"

const maxBodyBytes = 8 << 20

// Config captures the settings of the backend client.
type Config struct {
	BaseURL string
	// Timeout bounds a whole call. Zero keeps the transport defaults.
	Timeout time.Duration
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the training backend. It holds no session state: the
// caller passes credentials on every call.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	log      zerolog.Logger
}

// New returns a Client for cfg.
func New(cfg Config, log zerolog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:  base,
		http:     hc,
		validate: newValidator(),
		log:      log.With().Str("component", "gateway").Logger(),
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// BasicAuthHeader returns the Authorization header value for creds.
func BasicAuthHeader(creds domain.Credentials) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds.Username+":"+creds.Password))
}

// call describes one backend round trip.
type call struct {
	op       string
	method   string
	path     string
	body     any
	creds    *domain.Credentials
	fallback string

	// rawBody and contentType replace the JSON body (multipart uploads).
	rawBody     io.Reader
	contentType string

	// accept overrides the default JSON Accept header.
	accept string

	// quietStatus suppresses failure logging for one expected status.
	quietStatus int
}

// send performs the round trip. On a 2xx status the caller owns the
// response body; any other outcome is returned as *Error with the body
// already consumed.
func (c *Client) send(ctx context.Context, in call) (*http.Response, error) {
	start := time.Now()

	req, err := c.newRequest(ctx, in)
	if err != nil {
		return nil, c.fail(in, 0, "", err, start)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(in, 0, "", err, start)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		return nil, c.fail(in, resp.StatusCode, serverMessage(body), nil, start)
	}

	metrics.GatewayRequestsTotal.WithLabelValues(in.op, "success").Inc()
	metrics.GatewayRequestDuration.WithLabelValues(in.op).Observe(time.Since(start).Seconds())
	return resp, nil
}

// do performs the round trip and returns the full 2xx body.
func (c *Client) do(ctx context.Context, in call) ([]byte, error) {
	resp, err := c.send(ctx, in)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Op: in.op, Status: resp.StatusCode, Message: in.fallback, Err: err}
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, in call) (*http.Request, error) {
	var body io.Reader
	contentType := in.contentType

	switch {
	case in.rawBody != nil:
		body = in.rawBody
	case in.body != nil:
		payload, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.baseURL+in.path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	accept := in.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if in.creds != nil {
		req.Header.Set("Authorization", BasicAuthHeader(*in.creds))
	}
	return req, nil
}

func (c *Client) fail(in call, status int, msg string, cause error, start time.Time) *Error {
	if msg == "" {
		msg = in.fallback
	}
	e := &Error{Op: in.op, Status: status, Message: msg, Err: cause}

	outcome := outcomeFor(status)
	if status != 0 && status == in.quietStatus {
		outcome = "expected"
	}
	metrics.GatewayRequestsTotal.WithLabelValues(in.op, outcome).Inc()
	metrics.GatewayRequestDuration.WithLabelValues(in.op).Observe(time.Since(start).Seconds())

	if outcome == "expected" {
		return e
	}

	ev := c.log.Error()
	if errors.Is(cause, context.Canceled) {
		ev = c.log.Debug()
	}
	ev.Err(cause).
		Str("op", in.op).
		Str("method", in.method).
		Str("path", in.path).
		Int("status", status).
		Str("message", msg).
		Msg("backend call failed")
	return e
}

// decodeOne decodes and validates a single object.
func decodeOne[T any](c *Client, op string, body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, c.invalid(op, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return nil, c.invalid(op, err)
	}
	return &out, nil
}

// decodeList decodes a JSON array. A body that is not an array yields an
// empty list; elements failing validation are dropped.
func decodeList[T any](c *Client, op string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}, nil
	}

	var raw []T
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, c.invalid(op, err)
	}

	out := make([]T, 0, len(raw))
	for i, item := range raw {
		if err := c.validate.Struct(item); err != nil {
			c.log.Warn().Err(err).Str("op", op).Int("index", i).Msg("dropping malformed list item")
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// decodeText returns the body of an endpoint that answers with a plain or
// JSON-encoded string.
func decodeText(body []byte) string {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			return s
		}
	}
	return text
}

func (c *Client) invalid(op string, cause error) *Error {
	metrics.GatewayRequestsTotal.WithLabelValues(op, "invalid_response").Inc()
	c.log.Error().Err(cause).Str("op", op).Msg("backend response failed validation")
	return &Error{Op: op, Status: http.StatusBadGateway, Message: ErrInvalidResponse.Error(), Err: errors.Join(ErrInvalidResponse, cause)}
}
