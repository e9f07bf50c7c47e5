package metadata

import (
	"sort"
	"strings"

	"musidex/internal/models"
	"musidex/internal/vector"
)

// Tags maps tag key to the resolved tag for a single track. At most one tag
// exists per (music_id, key) pair in the resolved view.
type Tags map[string]models.Tag

// SearchDoc is the per-track document indexed for text search.
type SearchDoc struct {
	ID       models.MusicID
	Title    string
	Artist   string
	UserTags string
}

// Metadata is the derived in-memory snapshot built from a raw payload. It is
// immutable once built; a newer snapshot fully replaces it. Rebuilding through
// New is the only update path, which keeps every index consistent with Tags.
type Metadata struct {
	Musics       []models.MusicID
	Tags         []models.Tag
	Users        []models.User
	SettingsList [][2]string

	Settings       map[string]string
	MusicTags      map[models.MusicID]Tags
	Embeddings     map[models.MusicID]vector.Vector
	UserSongs      map[int64][]models.MusicID
	UserNames      map[int64]string
	Playable       map[models.MusicID]struct{}
	SearchDocs     []SearchDoc
	UniqueUserTags map[string]struct{}
}

// New builds a snapshot from a raw payload. When raw carries no tag list the
// previous snapshot's tags are reused as the base (empty on first load).
// Patches apply in input order before index construction.
func New(raw models.RawMetadata, previous *Metadata) *Metadata {
	m := &Metadata{
		Musics:         raw.Musics,
		Users:          raw.Users,
		SettingsList:   raw.Settings,
		Settings:       make(map[string]string, len(raw.Settings)),
		MusicTags:      make(map[models.MusicID]Tags, len(raw.Musics)),
		Embeddings:     make(map[models.MusicID]vector.Vector),
		UserSongs:      make(map[int64][]models.MusicID),
		UserNames:      make(map[int64]string, len(raw.Users)),
		Playable:       make(map[models.MusicID]struct{}),
		UniqueUserTags: make(map[string]struct{}),
	}

	for _, kv := range raw.Settings {
		m.Settings[kv[0]] = kv[1]
	}
	for _, u := range raw.Users {
		m.UserNames[u.ID] = u.Name
	}

	m.Tags = baseTags(raw, previous)
	for _, p := range raw.Patches {
		m.Tags = applyPatch(m.Tags, p)
	}

	m.buildIndexes()
	return m
}

// Empty returns the first-load snapshot.
func Empty() *Metadata {
	return New(models.RawMetadata{}, nil)
}

// baseTags picks the working tag list and copies it so patch application
// never mutates the previous snapshot.
func baseTags(raw models.RawMetadata, previous *Metadata) []models.Tag {
	var src []models.Tag
	switch {
	case raw.Tags != nil:
		src = *raw.Tags
	case previous != nil:
		src = previous.Tags
	}
	out := make([]models.Tag, len(src))
	copy(out, src)
	return out
}

func applyPatch(tags []models.Tag, p models.Patch) []models.Tag {
	switch p.Kind {
	case models.PatchAdd:
		return append(tags, p.Tag)
	case models.PatchUpdate:
		for i, t := range tags {
			if t.MusicID == p.Tag.MusicID && t.Key == p.Tag.Key {
				tags[i] = p.Tag
			}
		}
		return tags
	case models.PatchRemove:
		// Remove iff both music id and key match.
		kept := tags[:0]
		for _, t := range tags {
			if t.MusicID == p.Tag.MusicID && t.Key == p.Tag.Key {
				continue
			}
			kept = append(kept, t)
		}
		return kept
	default:
		// Unknown patch kinds are ignored, never fatal.
		return tags
	}
}

func (m *Metadata) buildIndexes() {
	for _, id := range m.Musics {
		m.MusicTags[id] = make(Tags)
	}

	for _, tag := range m.Tags {
		tm, known := m.MusicTags[tag.MusicID]
		if !known {
			// Tag references a music id absent from the snapshot.
			continue
		}
		tm[tag.Key] = tag

		switch {
		case tag.Key == models.KeyEmbedding && len(tag.Vector) > 0:
			m.Embeddings[tag.MusicID] = vector.New(tag.Vector)
		case models.IsLocalKey(tag.Key):
			m.Playable[tag.MusicID] = struct{}{}
		default:
			if uid, ok := models.ParseUserLibraryKey(tag.Key); ok {
				m.UserSongs[uid] = append(m.UserSongs[uid], tag.MusicID)
			}
		}
	}

	for uid, songs := range m.UserSongs {
		m.sortUserSongs(uid, songs)
	}

	m.SearchDocs = make([]SearchDoc, 0, len(m.Musics))
	for _, id := range m.Musics {
		tags := m.MusicTags[id]
		var userTags []string
		for key := range tags {
			if name, ok := models.ParseUserTagKey(key); ok {
				userTags = append(userTags, name)
				m.UniqueUserTags[name] = struct{}{}
			}
		}
		sort.Strings(userTags)
		m.SearchDocs = append(m.SearchDocs, SearchDoc{
			ID:       id,
			Title:    tags[models.KeyTitle].TextValue(),
			Artist:   tags[models.KeyArtist].TextValue(),
			UserTags: strings.Join(userTags, " "),
		})
	}
}

// sortUserSongs orders a user's library descending by membership timestamp,
// falling back to the numeric id when the timestamp is absent; equal
// timestamps break ties by id descending.
func (m *Metadata) sortUserSongs(uid int64, songs []models.MusicID) {
	key := models.UserLibraryKey(uid)
	ts := func(id models.MusicID) int64 {
		if t, ok := m.MusicTags[id][key]; ok && t.IntValue() != 0 {
			return t.IntValue()
		}
		return int64(id)
	}
	sort.SliceStable(songs, func(i, j int) bool {
		ti, tj := ts(songs[i]), ts(songs[j])
		if ti != tj {
			return ti > tj
		}
		return songs[i] > songs[j]
	})
}

// GetTags returns the tag map for a track, or nil when the snapshot or the id
// is unknown. It never panics on absent data.
func GetTags(m *Metadata, id models.MusicID) Tags {
	if m == nil {
		return nil
	}
	return m.MusicTags[id]
}

// CanPlay reports whether a track has any "local_*" tag.
func CanPlay(tags Tags) bool {
	for key := range tags {
		if models.IsLocalKey(key) {
			return true
		}
	}
	return false
}

// FirstUser returns the first user of the snapshot, if any.
func FirstUser(m *Metadata) (int64, bool) {
	if m == nil || len(m.Users) == 0 {
		return 0, false
	}
	return m.Users[0].ID, true
}

// Raw converts the snapshot back to its wire shape. The result round-trips
// through New, which is what persistence collaborators store.
func (m *Metadata) Raw() models.RawMetadata {
	tags := make([]models.Tag, len(m.Tags))
	copy(tags, m.Tags)
	return models.RawMetadata{
		Musics:   m.Musics,
		Tags:     &tags,
		Users:    m.Users,
		Settings: m.SettingsList,
	}
}
