package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/pixtape/internal/metrics"
	"github.com/desertthunder/pixtape/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
	maxMessageLen  = 200
)

// transport sends requests to a single upstream.
type transport struct {
	service string
	http    *http.Client
	limiter *rate.Limiter
}

// newTransport creates a transport allowing rps requests per second. A non-positive rps disables limiting.
func newTransport(service string, client *http.Client, rps float64) *transport {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	limit, burst := rate.Inf, 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}

	return &transport{service: service, http: client, limiter: rate.NewLimiter(limit, burst)}
}

func jsonBody(v any) (io.Reader, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do sends req and decodes a successful JSON reply into result, which may be nil.
func (t *transport) do(req *http.Request, result any) error {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("%w: %s rate limit: %v", shared.ErrServiceUnavailable, t.service, err)
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.UpstreamDuration.WithLabelValues(t.service, outcome).Observe(time.Since(start).Seconds())
	}()

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request failed: %v", shared.ErrAPIRequest, t.service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read %s response: %v", shared.ErrAPIRequest, t.service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Service: t.service, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	outcome = "ok"
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrParseFailure, t.service, err)
	}
	return nil
}

// errorMessage extracts a human readable message from an error body.
//
// Google, OpenAI and the Spotify Web API use {"error": {"message": ...}}; OAuth token endpoints use
// {"error": "code", "error_description": ...}.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		if flat.Description != "" {
			return flat.Description
		}
		return flat.Error
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	return msg
}
