package readiness

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"devboot/internal/app/errors"
)

const requestTimeout = 2 * time.Second

// HTTPChecker checks service readiness via HTTP endpoint
type HTTPChecker struct {
	client *http.Client
}

// NewHTTPChecker creates a new HTTP readiness checker
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Poll GETs url until it answers 2xx (healthy) or 503 (degraded); anything else keeps polling until timeout
func (h *HTTPChecker) Poll(ctx context.Context, url string, timeout, interval time.Duration) (Health, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if health := h.probe(ctx, url); health.Reachable() {
			return health, nil
		}

		select {
		case <-ctx.Done():
			return NotReady, ctx.Err()
		case <-deadline.C:
			return NotReady, fmt.Errorf("%w: %s after %s", errors.ErrReadinessTimeout, url, timeout)
		case <-ticker.C:
		}
	}
}

func (h *HTTPChecker) probe(ctx context.Context, url string) Health {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NotReady
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return NotReady
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Healthy
	case resp.StatusCode == http.StatusServiceUnavailable:
		return Degraded
	default:
		return NotReady
	}
}
