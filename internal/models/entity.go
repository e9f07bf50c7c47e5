package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MusicID identifies a track. Tracks carry no inherent fields beyond the id;
// all descriptive data lives in tags.
type MusicID int64

// Well-known tag keys. Keys are namespaced by convention: "local_*" marks a
// track playable offline, "user_library:<uid>" carries the library-membership
// timestamp for a user, "user_tag:<name>" marks a user-applied free-text tag.
const (
	KeyEmbedding           = "embedding"
	KeyTitle               = "title"
	KeyArtist              = "artist"
	KeyDuration            = "duration"
	KeyThumbnail           = "thumbnail"
	KeyCompressedThumbnail = "compressed_thumbnail"

	LocalKeyPrefix       = "local_"
	UserLibraryKeyPrefix = "user_library:"
	UserTagKeyPrefix     = "user_tag:"
)

// Tag is a single typed fact about a track, compound-keyed by (music_id, key).
// Exactly one payload field is populated.
type Tag struct {
	MusicID MusicID `json:"music_id" bson:"music_id"`
	Key     string  `json:"key" bson:"key"`

	Text    *string   `json:"text,omitempty" bson:"text,omitempty"`
	Integer *int64    `json:"integer,omitempty" bson:"integer,omitempty"`
	Date    *string   `json:"date,omitempty" bson:"date,omitempty"`
	Vector  []float64 `json:"vector,omitempty" bson:"vector,omitempty"`
}

// NewTextTag creates a text-valued tag.
func NewTextTag(id MusicID, key, text string) Tag {
	return Tag{MusicID: id, Key: key, Text: &text}
}

// NewIntTag creates an integer-valued tag.
func NewIntTag(id MusicID, key string, value int64) Tag {
	return Tag{MusicID: id, Key: key, Integer: &value}
}

// NewVectorTag creates an embedding-valued tag.
func NewVectorTag(id MusicID, key string, v []float64) Tag {
	return Tag{MusicID: id, Key: key, Vector: v}
}

// TextValue returns the text payload, or "" when absent.
func (t Tag) TextValue() string {
	if t.Text == nil {
		return ""
	}
	return *t.Text
}

// IntValue returns the integer payload, or 0 when absent.
func (t Tag) IntValue() int64 {
	if t.Integer == nil {
		return 0
	}
	return *t.Integer
}

// UserLibraryKey builds the library-membership tag key for a user.
func UserLibraryKey(userID int64) string {
	return UserLibraryKeyPrefix + strconv.FormatInt(userID, 10)
}

// UserTagKey builds the tag key for a user-applied free-text tag.
func UserTagKey(name string) string {
	return UserTagKeyPrefix + name
}

// IsLocalKey reports whether a tag key marks offline playability.
func IsLocalKey(key string) bool {
	return strings.HasPrefix(key, LocalKeyPrefix)
}

// ParseUserLibraryKey extracts the user id from a "user_library:<uid>" key.
func ParseUserLibraryKey(key string) (int64, bool) {
	rest, found := strings.CutPrefix(key, UserLibraryKeyPrefix)
	if !found || rest == "" {
		return 0, false
	}
	uid, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return uid, true
}

// ParseUserTagKey extracts the tag name from a "user_tag:<name>" key.
func ParseUserTagKey(key string) (string, bool) {
	rest, found := strings.CutPrefix(key, UserTagKeyPrefix)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// User is a library owner.
type User struct {
	ID   int64  `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// RawMetadata is the decoded wire snapshot produced by the daemon. Tags is nil
// for incremental payloads, in which case Patches applies on top of the
// previous snapshot's tag list.
type RawMetadata struct {
	Musics   []MusicID   `json:"musics" bson:"musics"`
	Tags     *[]Tag      `json:"tags,omitempty" bson:"tags,omitempty"`
	Users    []User      `json:"users" bson:"users"`
	Settings [][2]string `json:"settings" bson:"settings"`
	Patches  []Patch     `json:"patches,omitempty" bson:"patches,omitempty"`
}

// PatchKind discriminates incremental tag operations.
type PatchKind string

const (
	PatchAdd    PatchKind = "add"
	PatchUpdate PatchKind = "update"
	PatchRemove PatchKind = "remove"
)

// Patch is a single incremental operation against the tag set. Remove patches
// only use the tag's music id and key.
type Patch struct {
	Kind PatchKind `json:"kind" bson:"kind"`
	Tag  Tag       `json:"tag" bson:"tag"`
}

// UnmarshalJSON accepts both remove encodings seen on the wire: the nested
// {"kind":"remove","tag":{...}} form and the flat {"kind":"remove","id":..,"key":..} form.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var aux struct {
		Kind PatchKind `json:"kind"`
		Tag  *Tag      `json:"tag"`
		ID   *MusicID  `json:"id"`
		Key  *string   `json:"key"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Kind = aux.Kind
	if aux.Tag != nil {
		p.Tag = *aux.Tag
		return nil
	}
	if aux.ID != nil {
		p.Tag.MusicID = *aux.ID
	}
	if aux.Key != nil {
		p.Tag.Key = *aux.Key
	}
	return nil
}
