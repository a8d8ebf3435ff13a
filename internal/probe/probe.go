package probe

import (
	"context"
	"time"

	"github.com/hamed0406/uptimeprober/internal/domain"
)

// Checker probes a single URL. It never returns an error: every failure is
// folded into the result's Status.
type Checker interface {
	Check(ctx context.Context, target string, timeout time.Duration) domain.ProbeResult
}
