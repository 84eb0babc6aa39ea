package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/metrics"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// restClient is the JSON-over-HTTP plumbing shared by the providers.
type restClient struct {
	name     string
	client   *http.Client
	limiter  *rate.Limiter
	metrics  *metrics.MetricsRegistry
	decorate func(req *http.Request)
}

func newRestClient(name string, timeout time.Duration, perSecond float64, m *metrics.MetricsRegistry) restClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return restClient{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
	}
}

// doGET performs a GET request and decodes the JSON body into result
func (c *restClient) doGET(ctx context.Context, op, url string, result interface{}) (int, error) {
	return c.do(ctx, op, http.MethodGet, url, nil, result, nil)
}

// doPost performs a POST request with a JSON body
func (c *restClient) doPost(ctx context.Context, op, url string, payload, result interface{}) (int, error) {
	return c.do(ctx, op, http.MethodPost, url, payload, result, nil)
}

// do sends one request. payload and result may be nil; headers are added last.
func (c *restClient) do(ctx context.Context, op, method, url string, payload, result interface{}, headers map[string]string) (status int, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveExternal(c.name, op, start, errorCode(err))
		if err != nil {
			logging.Warn("External request failed",
				"provider", c.name,
				"operation", op,
				"status_code", status,
				"error", err.Error(),
			)
		}
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return 0, transportError(werr)
		}
	}

	// Serialize payload
	var body io.Reader
	if payload != nil {
		payloadBytes, merr := json.Marshal(payload)
		if merr != nil {
			return 0, &ProviderError{
				Code:    constants.ErrCodeInvalidDataFormat,
				Message: "Failed to marshal request body",
				Err:     merr,
			}
		}
		body = bytes.NewReader(payloadBytes)
	}

	// Build request
	req, rerr := http.NewRequestWithContext(ctx, method, url, body)
	if rerr != nil {
		return 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     rerr,
		}
	}

	// Set headers
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.decorate != nil {
		c.decorate(req)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// Execute request
	resp, derr := c.client.Do(req)
	if derr != nil {
		return 0, transportError(derr)
	}
	defer resp.Body.Close()

	// Read body for potential error messages
	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, &ProviderError{
			Code:       constants.ErrCodeNetworkError,
			Message:    "Failed to read response body",
			StatusCode: resp.StatusCode,
			Err:        readErr,
		}
	}

	// Handle HTTP errors
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, buildHTTPError(resp.StatusCode, req.URL.Path, string(bodyBytes))
	}

	if result == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return resp.StatusCode, nil
	}

	// Parse response
	if uerr := json.Unmarshal(bodyBytes, result); uerr != nil {
		return resp.StatusCode, &ProviderError{
			Code:       constants.ErrCodeInvalidDataFormat,
			Message:    "Failed to decode response",
			Details:    string(bodyBytes),
			StatusCode: resp.StatusCode,
			Err:        uerr,
		}
	}

	return resp.StatusCode, nil
}
