package tracklist

import (
	"musidex/internal/metadata"
	"musidex/internal/models"
)

// DefaultMaxHistory bounds the play history; the oldest entry is evicted
// first on overflow.
const DefaultMaxHistory = 30

// Tracklist is the play-history state: recently played track ids (most recent
// last), the last explicitly chosen track, and an explicit upcoming queue that
// takes priority over ranking.
type Tracklist struct {
	LastPlayed       []models.MusicID
	MaxHistory       int
	LastManualSelect *models.MusicID
	Queue            []models.MusicID
}

// New returns an empty tracklist with the default history bound.
func New() Tracklist {
	return Tracklist{MaxHistory: DefaultMaxHistory}
}

// ActionKind discriminates tracklist transitions.
type ActionKind string

const (
	ActionPlay       ActionKind = "play"
	ActionRegress    ActionKind = "regress"
	ActionQueue      ActionKind = "queue"
	ActionUnqueue    ActionKind = "unqueue"
	ActionClearQueue ActionKind = "clear_queue"
)

// Action is a single tracklist transition. ID is used by play, queue and
// unqueue; Manual marks a play as explicitly chosen by a user action rather
// than auto-advance.
type Action struct {
	Kind   ActionKind
	ID     models.MusicID
	Manual bool
}

// Apply is the pure transition function over tracklist state. The input is
// never mutated; changed slices are copied.
func Apply(list Tracklist, a Action) Tracklist {
	switch a.Kind {
	case ActionPlay:
		return push(list, a.ID, a.Manual)
	case ActionRegress:
		out, _, _ := Regress(list)
		return out
	case ActionQueue:
		list.Queue = append(copyIDs(list.Queue), a.ID)
		return list
	case ActionUnqueue:
		list.Queue = removeFirst(list.Queue, a.ID)
		return list
	case ActionClearQueue:
		list.Queue = nil
		return list
	default:
		return list
	}
}

// Advance records a chosen track. When manual is set the id also becomes the
// last manual selection. Repeating the current head leaves history untouched;
// the caller still signals "play" to the player.
func Advance(list Tracklist, id models.MusicID, manual bool) Tracklist {
	return Apply(list, Action{Kind: ActionPlay, ID: id, Manual: manual})
}

// Regress pops the most recent entry and returns the new head, which is the
// now-current track. ok is false when nothing remains to play.
func Regress(list Tracklist) (Tracklist, models.MusicID, bool) {
	if len(list.LastPlayed) == 0 {
		return list, 0, false
	}
	played := copyIDs(list.LastPlayed)
	played = played[:len(played)-1]
	list.LastPlayed = played
	if len(played) == 0 {
		return list, 0, false
	}
	return list, played[len(played)-1], true
}

// Head returns the most recently played track, if any.
func (t Tracklist) Head() (models.MusicID, bool) {
	if len(t.LastPlayed) == 0 {
		return 0, false
	}
	return t.LastPlayed[len(t.LastPlayed)-1], true
}

// CanPrev reports whether regressing would yield a previous track.
func (t Tracklist) CanPrev() bool {
	return len(t.LastPlayed) > 1
}

// Reconcile drops history and queue entries referencing tracks absent from
// the snapshot, as happens after a deletion is synced.
func Reconcile(list Tracklist, meta *metadata.Metadata) Tracklist {
	list.LastPlayed = retainKnown(list.LastPlayed, meta)
	list.Queue = retainKnown(list.Queue, meta)
	if list.LastManualSelect != nil && metadata.GetTags(meta, *list.LastManualSelect) == nil {
		list.LastManualSelect = nil
	}
	return list
}

func push(list Tracklist, id models.MusicID, manual bool) Tracklist {
	if manual {
		v := id
		list.LastManualSelect = &v
	}
	if head, ok := list.Head(); ok && head == id {
		return list
	}
	maxSize := list.MaxHistory
	if maxSize <= 0 {
		maxSize = DefaultMaxHistory
	}
	played := append(copyIDs(list.LastPlayed), id)
	if len(played) > maxSize {
		played = played[len(played)-maxSize:]
	}
	list.LastPlayed = played
	return list
}

func retainKnown(ids []models.MusicID, meta *metadata.Metadata) []models.MusicID {
	out := make([]models.MusicID, 0, len(ids))
	for _, id := range ids {
		if metadata.GetTags(meta, id) != nil {
			out = append(out, id)
		}
	}
	return out
}

func removeFirst(ids []models.MusicID, id models.MusicID) []models.MusicID {
	out := copyIDs(ids)
	for i, v := range out {
		if v == id {
			return append(out[:i], out[i+1:]...)
		}
	}
	return out
}

func copyIDs(ids []models.MusicID) []models.MusicID {
	out := make([]models.MusicID, len(ids))
	copy(out, ids)
	return out
}
