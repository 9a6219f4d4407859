package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hamed0406/certwatch/internal/domain"
)

// Store holds the latest scan snapshot. Publish swaps a pointer, so readers
// see either the previous snapshot or the new one, never a mix.
type Store struct {
	cur       atomic.Pointer[domain.Snapshot]
	ready     chan struct{}
	readyOnce sync.Once
}

func New() *Store {
	return &Store{ready: make(chan struct{})}
}

// Publish stores a private copy of s and marks the store ready.
func (m *Store) Publish(s *domain.Snapshot) {
	if s == nil {
		return
	}
	cp := &domain.Snapshot{
		Results:    append([]domain.CertificateResult(nil), s.Results...),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	m.cur.Store(cp)
	m.readyOnce.Do(func() { close(m.ready) })
}

// Latest returns the current snapshot, nil before the first publish.
// Callers must treat it as read-only.
func (m *Store) Latest() *domain.Snapshot {
	return m.cur.Load()
}

// Results returns a copy of the current rows, safe to modify.
func (m *Store) Results() []domain.CertificateResult {
	s := m.cur.Load()
	if s == nil {
		return []domain.CertificateResult{}
	}
	return append([]domain.CertificateResult(nil), s.Results...)
}

func (m *Store) Ready() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the first publish, ctx is done, or timeout elapses.
// It reports whether the store became ready.
func (m *Store) WaitReady(ctx context.Context, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-m.ready:
		return true
	case <-ctx.Done():
		return m.Ready()
	case <-t.C:
		return m.Ready()
	}
}
