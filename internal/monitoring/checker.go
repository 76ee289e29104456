package monitoring

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/trustgate/internal/source"
)

// SourceHealth reports one connectivity probe result.
type SourceHealth struct {
	Source    string  `json:"source"`
	OK        bool    `json:"ok"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// Checker probes the configured data sources for connectivity.
type Checker struct {
	adapters []source.Adapter
	timeout  time.Duration
}

// NewChecker creates a health checker. A non-positive timeout falls back
// to 5 seconds per probe.
func NewChecker(adapters []source.Adapter, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{adapters: adapters, timeout: timeout}
}

// Check pings every source concurrently and reports per-source health in
// adapter order. A failed probe is a result, not an error.
func (c *Checker) Check(ctx context.Context) []SourceHealth {
	results := make([]SourceHealth, len(c.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range c.adapters {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := a.Ping(probeCtx)

			h := SourceHealth{
				Source:    string(a.Kind()),
				OK:        err == nil,
				LatencyMS: float64(time.Since(start).Microseconds()) / 1000.0,
			}
			if err != nil {
				h.Error = err.Error()
			}
			results[i] = h
			return nil
		})
	}
	_ = g.Wait()

	return results
}
