package testutil

import (
	"musidex/internal/models"
)

// RawBuilder provides a fluent interface for creating raw snapshots in tests.
type RawBuilder struct {
	raw  models.RawMetadata
	tags []models.Tag
}

// NewRawBuilder creates an empty snapshot builder.
func NewRawBuilder() *RawBuilder {
	return &RawBuilder{}
}

// WithMusic appends track ids in server order (oldest first).
func (b *RawBuilder) WithMusic(ids ...models.MusicID) *RawBuilder {
	b.raw.Musics = append(b.raw.Musics, ids...)
	return b
}

// WithUser adds a library user.
func (b *RawBuilder) WithUser(id int64, name string) *RawBuilder {
	b.raw.Users = append(b.raw.Users, models.User{ID: id, Name: name})
	return b
}

// WithSetting appends a settings pair.
func (b *RawBuilder) WithSetting(key, value string) *RawBuilder {
	b.raw.Settings = append(b.raw.Settings, [2]string{key, value})
	return b
}

// WithTag appends an arbitrary tag.
func (b *RawBuilder) WithTag(tag models.Tag) *RawBuilder {
	b.tags = append(b.tags, tag)
	return b
}

// WithTitle sets a track's title tag.
func (b *RawBuilder) WithTitle(id models.MusicID, title string) *RawBuilder {
	return b.WithTag(models.NewTextTag(id, models.KeyTitle, title))
}

// WithArtist sets a track's artist tag.
func (b *RawBuilder) WithArtist(id models.MusicID, artist string) *RawBuilder {
	return b.WithTag(models.NewTextTag(id, models.KeyArtist, artist))
}

// WithEmbedding sets a track's embedding tag.
func (b *RawBuilder) WithEmbedding(id models.MusicID, v ...float64) *RawBuilder {
	return b.WithTag(models.NewVectorTag(id, models.KeyEmbedding, v))
}

// WithLocal marks a track playable offline.
func (b *RawBuilder) WithLocal(id models.MusicID) *RawBuilder {
	return b.WithTag(models.NewTextTag(id, models.LocalKeyPrefix+"mp3", "local.mp3"))
}

// WithLibrary adds a track to a user's library with a membership timestamp.
func (b *RawBuilder) WithLibrary(id models.MusicID, userID, timestamp int64) *RawBuilder {
	return b.WithTag(models.NewIntTag(id, models.UserLibraryKey(userID), timestamp))
}

// WithUserTag applies a free-text user tag to a track.
func (b *RawBuilder) WithUserTag(id models.MusicID, name string) *RawBuilder {
	return b.WithTag(models.NewTextTag(id, models.UserTagKey(name), name))
}

// WithPatch appends an incremental patch.
func (b *RawBuilder) WithPatch(kind models.PatchKind, tag models.Tag) *RawBuilder {
	b.raw.Patches = append(b.raw.Patches, models.Patch{Kind: kind, Tag: tag})
	return b
}

// WithoutTags drops the tag list so the built snapshot is incremental.
func (b *RawBuilder) WithoutTags() *RawBuilder {
	b.tags = nil
	b.raw.Tags = nil
	return b
}

// Build returns the raw snapshot. Tags collected by the builder are attached
// unless WithoutTags was called last.
func (b *RawBuilder) Build() models.RawMetadata {
	raw := b.raw
	if b.tags != nil {
		tags := make([]models.Tag, len(b.tags))
		copy(tags, b.tags)
		raw.Tags = &tags
	}
	return raw
}
