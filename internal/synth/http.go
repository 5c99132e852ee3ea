package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is kept
const maxErrorBody = 512

// newHTTPClient creates a client with connection level timeouts and an
// overall request timeout
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// postJSON sends payload and returns the body and content type of a 200 reply
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload interface{}) ([]byte, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(detail))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// StatusError is a non-200 reply from a synthesis service
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retry bounds how often a failed request is repeated. The zero value makes
// a single attempt.
type Retry struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// retryable reports whether a failed request may succeed when repeated:
// transport failures, 429 and 5xx replies
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500
	}
	return true
}

// postWithRetry calls postJSON, waiting BaseBackoff * 2^(attempt-1) between
// attempts
func postWithRetry(ctx context.Context, client *http.Client, retry Retry, logger *zap.Logger, url string, headers map[string]string, payload interface{}) ([]byte, string, error) {
	attempts := retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, contentType, err := postJSON(ctx, client, url, headers, payload)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err
		if attempt == attempts || !retryable(err) {
			break
		}

		backoff := retry.BaseBackoff * time.Duration(1<<(attempt-1))
		logger.Info("synthesis request failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, "", fmt.Errorf("retry cancelled: %w (last error: %v)", ctx.Err(), lastErr)
		case <-time.After(backoff):
		}
	}
	return nil, "", lastErr
}
