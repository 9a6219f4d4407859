package scheduler

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/certwatch/internal/domain"
	"github.com/hamed0406/certwatch/internal/probe"
)

const DefaultWorkers = 10

// Orchestrator probes a host list on a bounded pool and collects one result
// per host into a snapshot.
type Orchestrator struct {
	Logger  *zap.Logger
	Prober  probe.Prober
	Workers int
	Clock   clockwork.Clock
}

func NewOrchestrator(logger *zap.Logger, p probe.Prober, workers int, clock clockwork.Clock) *Orchestrator {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{Logger: logger, Prober: p, Workers: workers, Clock: clock}
}

// Scan blocks until every host has been probed. Results keep the order of
// hosts; a slow or failing host only occupies its own worker slot.
func (o *Orchestrator) Scan(ctx context.Context, hosts []domain.Host) *domain.Snapshot {
	snap := &domain.Snapshot{
		StartedAt: o.Clock.Now().UTC(),
		Results:   make([]domain.CertificateResult, len(hosts)),
	}

	var g errgroup.Group
	g.SetLimit(o.Workers)
	for i, h := range hosts {
		g.Go(func() error {
			r := o.probeOne(ctx, h)
			snap.Results[i] = r
			if r.OK() {
				o.Logger.Info("scan_host_done",
					zap.String("host", string(h)),
					zap.Int("days", r.DaysRemaining),
					zap.String("issuer", r.Issuer),
				)
			} else {
				o.Logger.Info("scan_host_done",
					zap.String("host", string(h)),
					zap.String("status", "ERROR"),
					zap.String("error", r.Error),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	snap.FinishedAt = o.Clock.Now().UTC()
	return snap
}

// probeOne turns a panicking prober into a failed result for that host.
func (o *Orchestrator) probeOne(ctx context.Context, h domain.Host) (r domain.CertificateResult) {
	defer func() {
		if p := recover(); p != nil {
			r = domain.NewFailure(h, fmt.Errorf("probe panic: %v", p))
		}
	}()
	r = o.Prober.Probe(ctx, h)
	r.Host = h
	return r
}
