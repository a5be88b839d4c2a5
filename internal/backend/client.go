// Package backend talks to the procurement API: the login collaborators
// and the CRUD endpoints behind every registration and request screen.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/portal-compras-gateway/internal/metrics"
)

// Client is a thin JSON client.  It sets no retry policy; a failed call is
// reported to the caller once.
type Client struct {
	baseURL string
	service string
	http    *http.Client
	log     logrus.FieldLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithLogger sets the logger used for upstream failures.
func WithLogger(log logrus.FieldLogger) Option { return func(c *Client) { c.log = log } }

// WithService sets the label used in metrics and logs.
func WithService(name string) Option { return func(c *Client) { c.service = name } }

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		service: "api",
		http:    &http.Client{Timeout: timeout},
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do sends one request.  body, when not nil, is sent as JSON; out, when not
// nil, receives the decoded JSON answer.  token is sent as a bearer token
// when not empty.
func (c *Client) Do(ctx context.Context, method, path, token string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.Upstream(c.service, 0)
		c.log.WithError(err).WithFields(logrus.Fields{"service": c.service, "method": method, "path": path}).Warn("upstream call failed")
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	metrics.Upstream(c.service, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: messageFrom(payload)}
		c.log.WithFields(logrus.Fields{
			"service": c.service,
			"method":  method,
			"path":    path,
			"status":  resp.StatusCode,
		}).Debug("upstream answered with error")
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// messageFrom extracts a human message from an error body.  The API uses
// "message"; some endpoints answer {"error": "..."} instead.
func messageFrom(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
