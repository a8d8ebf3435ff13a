package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hamed0406/uptimeprober/internal/domain"
)

// maxDrain bounds how much of a response body is read so the connection can
// go back to the pool.
const maxDrain = 64 << 10

type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker returns a checker with its own transport. The client is meant
// to be shared by every probe for the lifetime of the poller; timeouts are
// applied per request.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string, timeout time.Duration) domain.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := domain.ProbeResult{URL: target}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		out.Status = domain.StatusDown
		out.Err = err.Error()
		out.ObservedAt = time.Now()
		return out
	}

	resp, err := h.Client.Do(req)
	done := time.Now()
	out.Latency = done.Sub(start)
	out.ObservedAt = done
	if err != nil {
		out.Status = domain.StatusDown
		if isTimeout(err) {
			out.Status = domain.StatusTimeout
		}
		out.Err = err.Error()
		return out
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.Status = domain.StatusFromCode(resp.StatusCode)
	if out.Status != domain.StatusUp {
		out.Err = resp.Status
	}
	return out
}

// Close releases pooled connections.
func (h *HTTPChecker) Close() {
	h.Client.CloseIdleConnections()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
