package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/certwatch/internal/domain"
)

// RetryProber re-runs a failed probe up to Attempts times in total.
type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

// WithRetry wraps p only when more than one attempt is requested.
func WithRetry(p Prober, attempts int, backoff time.Duration) Prober {
	if attempts <= 1 {
		return p
	}
	return &RetryProber{Inner: p, Attempts: attempts, Backoff: backoff}
}

func (r *RetryProber) Probe(ctx context.Context, host domain.Host) domain.CertificateResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.CertificateResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Probe(ctx, host)
		if last.OK() {
			return last
		}
		if i < attempts-1 && r.Backoff > 0 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	if attempts > 1 {
		last.Error = fmt.Sprintf("%s (after %d attempts)", last.Error, attempts)
	}
	return last
}
