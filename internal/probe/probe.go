// Package probe performs the liveness check against the monitored camera
// stream endpoint. A probe is stateless and side-effect-free: any network
// error, timeout or non-success status maps to Unhealthy.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result holds the outcome of a single health probe
type Result struct {
	Healthy      bool          `json:"healthy"`
	StatusCode   int           `json:"status_code,omitempty"`
	Error        string        `json:"error,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	CheckedAt    time.Time     `json:"checked_at"`
}

// Prober checks the liveness of the monitored endpoint
type Prober interface {
	Check(ctx context.Context) Result
}

// HTTPProber probes an HTTP endpoint with a bounded timeout
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber creates a prober for the given URL. The timeout bounds the
// whole request so a hung service reads as Unhealthy instead of blocking
// the invocation.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Check performs one GET against the endpoint
func (p *HTTPProber) Check(ctx context.Context) Result {
	result := Result{CheckedAt: time.Now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("invalid request: %v", err)
		return result
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	result.ResponseTime = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; the snapshot body itself
	// is irrelevant, only that the endpoint served it.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	result.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result
	}

	result.Healthy = true
	return result
}
