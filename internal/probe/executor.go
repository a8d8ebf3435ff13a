package probe

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/uptimeprober/internal/domain"
)

// Executor fans one cycle's probes out concurrently and waits for all of them.
type Executor struct {
	Checker     Checker
	Concurrency int // 0 means every probe starts at once
}

func NewExecutor(c Checker, concurrency int) *Executor {
	if concurrency < 0 {
		concurrency = 0
	}
	return &Executor{Checker: c, Concurrency: concurrency}
}

// ProbeAll returns one result per URL, in the order the probes completed.
// A failing probe never affects its siblings.
func (e *Executor) ProbeAll(ctx context.Context, urls []string, timeout time.Duration) domain.Batch {
	out := make(domain.Batch, 0, len(urls))
	var mu sync.Mutex

	var g errgroup.Group
	if e.Concurrency > 0 {
		g.SetLimit(e.Concurrency)
	}
	for _, u := range urls {
		g.Go(func() error {
			r := e.Checker.Check(ctx, u, timeout)
			mu.Lock()
			out = append(out, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
