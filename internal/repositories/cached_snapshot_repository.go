package repositories

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"musidex/internal/cache"
	"musidex/internal/models"
)

// cachedSnapshotRepository wraps a SnapshotRepository with byte-cache
// shortcuts so a freshly synced client does not hit the backing store on
// every start.
type cachedSnapshotRepository struct {
	repository SnapshotRepository
	cache      cache.Cache
}

// NewCachedSnapshotRepository creates a new cached snapshot repository.
func NewCachedSnapshotRepository(repository SnapshotRepository, cache cache.Cache) SnapshotRepository {
	return &cachedSnapshotRepository{
		repository: repository,
		cache:      cache,
	}
}

const (
	snapshotCacheKey = "musidex:snapshot:latest"
	snapshotCacheTTL = 24 * time.Hour
)

// SaveSnapshot writes through to the repository and refreshes the cache.
func (r *cachedSnapshotRepository) SaveSnapshot(ctx context.Context, raw *models.RawMetadata) error {
	if err := r.repository.SaveSnapshot(ctx, raw); err != nil {
		return err
	}
	if data, err := json.Marshal(raw); err == nil {
		if err := r.cache.Set(ctx, snapshotCacheKey, data, snapshotCacheTTL); err != nil {
			slog.Warn("failed to cache snapshot", "error", err)
		}
	}
	return nil
}

// LatestSnapshot checks the cache first, then the repository.
func (r *cachedSnapshotRepository) LatestSnapshot(ctx context.Context) (*models.RawMetadata, error) {
	if data, err := r.cache.Get(ctx, snapshotCacheKey); err == nil && data != nil {
		var raw models.RawMetadata
		if err := json.Unmarshal(data, &raw); err == nil {
			return &raw, nil
		}
		// Corrupt cache entry; fall back to the repository.
		_ = r.cache.Delete(ctx, snapshotCacheKey)
	}

	raw, err := r.repository.LatestSnapshot(ctx)
	if err != nil || raw == nil {
		return raw, err
	}
	if data, err := json.Marshal(raw); err == nil {
		if err := r.cache.Set(ctx, snapshotCacheKey, data, snapshotCacheTTL); err != nil {
			slog.Warn("failed to cache snapshot", "error", err)
		}
	}
	return raw, nil
}

// RecordPlay passes through; play history is not cached.
func (r *cachedSnapshotRepository) RecordPlay(ctx context.Context, id models.MusicID, playedAt time.Time) error {
	return r.repository.RecordPlay(ctx, id, playedAt)
}

// RecentPlays passes through; play history is not cached.
func (r *cachedSnapshotRepository) RecentPlays(ctx context.Context, limit int) ([]models.MusicID, error) {
	return r.repository.RecentPlays(ctx, limit)
}
