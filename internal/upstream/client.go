// Package upstream provides the shared retrying HTTP client every leaf
// adapter uses to talk to external services. Retries cover transient
// failures only (429, 5xx, connection resets); context cancellation is
// always honored immediately.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"toolgate/internal/domain"
)

// maxResponseBytes caps decoded upstream bodies.
const maxResponseBytes = 10 << 20

// NewClient builds the retrying client from config.
func NewClient(cfg domain.UpstreamConfig, log zerolog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.MaxRetries
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 30 * time.Second
	c.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	c.Logger = leveledLogger{log: log.With().Str("component", "upstream").Logger()}
	return c
}

// GetJSON performs a GET with query parameters and decodes a JSON body.
func GetJSON(ctx context.Context, c *retryablehttp.Client, rawURL string, query url.Values, headers http.Header, out any) error {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	return doJSON(c, req, headers, out)
}

// PostJSON performs a POST with a JSON body and decodes a JSON response.
func PostJSON(ctx context.Context, c *retryablehttp.Client, rawURL string, body any, headers http.Header, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, rawURL, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(c, req, headers, out)
}

func doJSON(c *retryablehttp.Client, req *retryablehttp.Request, headers http.Header, out any) error {
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Host, resp.StatusCode)
	}
	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Host, err)
	}
	return nil
}

// leveledLogger adapts zerolog to retryablehttp's logging interface.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.emit(l.log.Error(), msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.emit(l.log.Warn(), msg, kv) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.emit(l.log.Debug(), msg, kv) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.emit(l.log.Debug(), msg, kv) }

func (l leveledLogger) emit(evt *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		evt = evt.Interface(key, kv[i+1])
	}
	evt.Msg(msg)
}
