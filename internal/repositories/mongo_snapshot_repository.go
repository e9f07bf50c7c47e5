package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"musidex/internal/models"
)

// mongoSnapshotRepository implements SnapshotRepository using MongoDB.
type mongoSnapshotRepository struct {
	snapshots *mongo.Collection
	plays     *mongo.Collection
}

// snapshotDoc wraps a raw snapshot with its fetch time.
type snapshotDoc struct {
	Raw       models.RawMetadata `bson:"raw"`
	FetchedAt time.Time          `bson:"fetched_at"`
}

// playDoc is a single play event.
type playDoc struct {
	MusicID  models.MusicID `bson:"music_id"`
	PlayedAt time.Time      `bson:"played_at"`
}

// NewMongoSnapshotRepository creates a MongoDB-backed snapshot repository.
func NewMongoSnapshotRepository(db *models.Database) SnapshotRepository {
	return &mongoSnapshotRepository{
		snapshots: db.DB.Collection("snapshots"),
		plays:     db.DB.Collection("plays"),
	}
}

// SaveSnapshot stores the raw snapshot as the latest known state. Only the
// most recent snapshot is kept; last writer wins.
func (r *mongoSnapshotRepository) SaveSnapshot(ctx context.Context, raw *models.RawMetadata) error {
	if raw == nil {
		return errors.New("snapshot cannot be nil")
	}
	doc := snapshotDoc{Raw: *raw, FetchedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	_, err := r.snapshots.ReplaceOne(ctx, bson.M{}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently stored snapshot, or nil when none
// exists.
func (r *mongoSnapshotRepository) LatestSnapshot(ctx context.Context) (*models.RawMetadata, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "fetched_at", Value: -1}})
	var doc snapshotDoc
	err := r.snapshots.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return &doc.Raw, nil
}

// RecordPlay appends a play event.
func (r *mongoSnapshotRepository) RecordPlay(ctx context.Context, id models.MusicID, playedAt time.Time) error {
	_, err := r.plays.InsertOne(ctx, playDoc{MusicID: id, PlayedAt: playedAt})
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// RecentPlays returns up to limit most recent play ids, newest first.
func (r *mongoSnapshotRepository) RecentPlays(ctx context.Context, limit int) ([]models.MusicID, error) {
	if limit <= 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "played_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.plays.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []playDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode plays: %w", err)
	}

	ids := make([]models.MusicID, len(docs))
	for i, d := range docs {
		ids[i] = d.MusicID
	}
	return ids, nil
}
