package scheduler

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/domain"
	"github.com/hamed0406/certwatch/internal/repo"
)

// Deduplicator decides which expiring certificates are due an alert, at most
// once per host per UTC calendar day, and persists that decision.
type Deduplicator struct {
	logger    *zap.Logger
	store     repo.AlertHistoryStore
	threshold int
	clock     clockwork.Clock

	mu      sync.Mutex
	history repo.AlertHistory
}

// NewDeduplicator loads the alert history from store. A missing or unreadable
// history starts empty; store may be nil for an in-memory only history.
func NewDeduplicator(ctx context.Context, logger *zap.Logger, store repo.AlertHistoryStore, threshold int, clock clockwork.Clock) *Deduplicator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	d := &Deduplicator{
		logger:    logger,
		store:     store,
		threshold: threshold,
		clock:     clock,
		history:   repo.AlertHistory{},
	}
	if store == nil {
		return d
	}
	h, err := store.Load(ctx)
	if err != nil {
		logger.Warn("alert_history_load_error", zap.Error(err))
		return d
	}
	d.history = h.Clone()
	logger.Info("alert_history_loaded", zap.Int("entries", len(d.history)))
	return d
}

func (d *Deduplicator) Threshold() int { return d.threshold }

// Qualifying filters results down to those within the alert threshold,
// without consulting or touching the history.
func (d *Deduplicator) Qualifying(results []domain.CertificateResult) []domain.CertificateResult {
	var out []domain.CertificateResult
	for _, r := range results {
		if domain.Qualifies(r, d.threshold) {
			out = append(out, r)
		}
	}
	return out
}

// Evaluate returns the qualifying results not yet alerted today and records
// today's date for each of them. The membership test, the mutation and the
// save all happen under one lock. A failed save is logged and ignored.
func (d *Deduplicator) Evaluate(ctx context.Context, snap *domain.Snapshot) []domain.CertificateResult {
	if snap == nil {
		return nil
	}
	today := d.clock.Now().UTC().Format(domain.DateLayout)

	d.mu.Lock()
	defer d.mu.Unlock()

	var due []domain.CertificateResult
	for _, r := range d.Qualifying(snap.Results) {
		if d.history[r.Host] == today {
			continue
		}
		d.history[r.Host] = today
		due = append(due, r)
	}
	if len(due) > 0 {
		d.persistLocked(ctx)
	}
	return due
}

// Flush saves the current history, e.g. on shutdown.
func (d *Deduplicator) Flush(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.persistLocked(ctx)
}

// History returns a copy of the current history.
func (d *Deduplicator) History() repo.AlertHistory {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.Clone()
}

func (d *Deduplicator) persistLocked(ctx context.Context) {
	if d.store == nil {
		return
	}
	if err := d.store.Save(ctx, d.history.Clone()); err != nil {
		d.logger.Warn("alert_history_save_error", zap.Error(err))
	}
}
