package repositories

import (
	"context"
	"time"

	"musidex/internal/models"
)

// SnapshotRepository persists raw metadata snapshots and play history for
// headless clients. Snapshots round-trip through metadata.New; a missing
// snapshot is a nil result, not an error.
type SnapshotRepository interface {
	// SaveSnapshot stores a raw snapshot as the latest known state.
	SaveSnapshot(ctx context.Context, raw *models.RawMetadata) error

	// LatestSnapshot returns the most recently stored snapshot, or nil
	// when none has been stored yet.
	LatestSnapshot(ctx context.Context) (*models.RawMetadata, error)

	// RecordPlay appends a play event to the history.
	RecordPlay(ctx context.Context, id models.MusicID, playedAt time.Time) error

	// RecentPlays returns up to limit most recent play ids, newest first.
	RecentPlays(ctx context.Context, limit int) ([]models.MusicID, error)
}
