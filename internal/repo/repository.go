package repo

import (
	"context"

	"github.com/hamed0406/certwatch/internal/domain"
)

// Ports (interfaces): the scheduler writes through these, the HTTP layer only reads.

// SnapshotPublisher receives one complete snapshot per scan cycle.
type SnapshotPublisher interface {
	Publish(s *domain.Snapshot)
}

// SnapshotReader exposes the latest published snapshot.
type SnapshotReader interface {
	// Latest returns nil until the first publish.
	Latest() *domain.Snapshot
	// Ready reports whether at least one snapshot has been published.
	Ready() bool
}

// AlertHistoryStore persists the host -> last-alert-date mapping.
type AlertHistoryStore interface {
	// Load returns an empty history when nothing has been saved yet.
	Load(ctx context.Context) (AlertHistory, error)
	// Save replaces the stored history wholesale.
	Save(ctx context.Context, h AlertHistory) error
}
