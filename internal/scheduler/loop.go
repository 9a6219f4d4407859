package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/domain"
	"github.com/hamed0406/certwatch/internal/notify"
	"github.com/hamed0406/certwatch/internal/repo"
)

const DefaultInterval = time.Hour

// HostSource supplies the host list at the start of each cycle.
type HostSource interface {
	Load() ([]domain.Host, error)
}

// Scanner probes a host list into a snapshot.
type Scanner interface {
	Scan(ctx context.Context, hosts []domain.Host) *domain.Snapshot
}

// Loop runs scan -> publish -> dedup -> notify cycles back to back, sleeping
// Interval between the end of one cycle and the start of the next.
type Loop struct {
	Logger   *zap.Logger
	Sites    HostSource
	Scanner  Scanner
	Results  repo.SnapshotPublisher
	Dedup    *Deduplicator
	Notifier notify.Notifier
	Interval time.Duration
	Clock    clockwork.Clock

	mu    sync.Mutex
	hosts []domain.Host
}

// CycleReport summarizes one completed cycle.
type CycleReport struct {
	Hosts    int
	Errors   int
	Alerted  int
	Notified bool
	Message  string
	Duration time.Duration
	// Aborted is set when ctx ended mid-scan; nothing was published or evaluated.
	Aborted bool
}

// SetHosts seeds the list used when the first reload comes back empty.
func (l *Loop) SetHosts(hosts []domain.Host) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hosts = append([]domain.Host(nil), hosts...)
}

// Hosts returns the list used by the most recent cycle.
func (l *Loop) Hosts() []domain.Host {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Host(nil), l.hosts...)
}

// Run blocks until ctx is cancelled. The first cycle starts immediately.
func (l *Loop) Run(ctx context.Context) {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	for {
		rep := l.RunOnce(ctx)
		l.Logger.Info("scan_cycle_idle",
			zap.Duration("elapsed", rep.Duration),
			zap.Duration("next_in", interval),
		)
		select {
		case <-ctx.Done():
			l.Logger.Info("scan_loop_stopped")
			return
		case <-l.clock().After(interval):
		}
	}
}

// RunOnce executes a single cycle.
func (l *Loop) RunOnce(ctx context.Context) CycleReport {
	start := l.clock().Now()
	hosts := l.reloadHosts()

	l.Logger.Info("scan_cycle_start", zap.Int("hosts", len(hosts)))
	snap := l.Scanner.Scan(ctx, hosts)

	rep := CycleReport{Hosts: snap.Len()}
	if ctx.Err() != nil {
		rep.Aborted = true
		rep.Duration = l.clock().Since(start)
		l.Logger.Info("scan_cycle_aborted", zap.Int("hosts", rep.Hosts), zap.Error(ctx.Err()))
		return rep
	}
	l.Results.Publish(snap)

	for _, r := range snap.Results {
		if !r.OK() {
			rep.Errors++
		}
	}

	due := l.Dedup.Evaluate(ctx, snap)
	rep.Alerted = len(due)
	if len(due) > 0 {
		msg := notify.NewAlert(due, l.Dedup.Threshold(), l.clock().Now())
		rep.Notified, rep.Message = l.Notifier.Send(ctx, msg)
		switch {
		case rep.Notified:
			l.Logger.Info("notify_sent", zap.Int("sites", len(due)), zap.String("severity", msg.Severity))
		case !l.Notifier.Configured():
			l.Logger.Info("notify_skipped", zap.Int("sites", len(due)), zap.String("reason", rep.Message))
		default:
			l.Logger.Warn("notify_failed", zap.Int("sites", len(due)), zap.String("reason", rep.Message))
		}
	}

	rep.Duration = l.clock().Since(start)
	l.Logger.Info("scan_cycle_done",
		zap.Int("hosts", rep.Hosts),
		zap.Int("errors", rep.Errors),
		zap.Int("alerted", rep.Alerted),
		zap.Duration("elapsed", rep.Duration),
	)
	return rep
}

// reloadHosts keeps the previous list when the source fails or is empty.
func (l *Loop) reloadHosts() []domain.Host {
	fresh, err := l.Sites.Load()
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case err != nil:
		l.Logger.Warn("sites_reload_error", zap.Error(err), zap.Int("keeping", len(l.hosts)))
	case len(fresh) == 0:
		l.Logger.Warn("sites_reload_empty", zap.Int("keeping", len(l.hosts)))
	default:
		l.hosts = fresh
	}
	if len(l.hosts) == 0 {
		l.Logger.Warn("no_sites")
	}
	return append([]domain.Host(nil), l.hosts...)
}

func (l *Loop) clock() clockwork.Clock {
	if l.Clock == nil {
		return clockwork.NewRealClock()
	}
	return l.Clock
}
