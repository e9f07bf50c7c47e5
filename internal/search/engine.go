package search

import (
	"slices"
	"sort"
	"strings"

	"musidex/internal/config"
	"musidex/internal/metadata"
	"musidex/internal/models"
	"musidex/internal/scoring"
	"musidex/internal/tracklist"
)

// Engine computes ranked, filterable, searchable selections over a snapshot.
// It is a pure function of (metadata, form, tracklist) for a fixed session
// seed; it holds no other state between calls.
type Engine struct {
	cfg    *config.RankingConfig
	scorer *scoring.Scorer
}

// NewEngine creates an engine for one session. The seed drives the
// deterministic per-track shuffle and the tie-breaking jitter.
func NewEngine(cfg *config.RankingConfig, seed int64) *Engine {
	if cfg == nil {
		cfg = config.GetRankingConfig()
	}
	return &Engine{
		cfg:    cfg,
		scorer: scoring.NewScorer(cfg, seed),
	}
}

// Select produces the ordered candidate list and the similarity score map
// for the given snapshot, search form and play history.
func (e *Engine) Select(meta *metadata.Metadata, form SearchForm, list tracklist.Tracklist) Selection {
	sel := Selection{ScoreMap: map[models.MusicID]float64{}}

	if qry := form.Filters.Query; qry != "" {
		sel.List = e.textSearch(meta, qry)
	} else {
		candidates := e.candidates(meta, form.Filters)
		switch form.Sort.Kind {
		case SortSimilarity:
			sel.List, sel.ScoreMap = e.rankBySimilarity(meta, form, list, candidates)
		case SortTag:
			sel.List = sortByTag(meta, candidates, form.Sort.TagKey)
		case SortRandom:
			sel.List = e.sortRandom(candidates)
		default:
			// Creation time: candidates are already newest-first.
			sel.List = candidates
		}
		if !form.Sort.Descending {
			slices.Reverse(sel.List)
		}
	}

	sel.List = applyQueue(sel.List, list.Queue)
	return sel
}

// candidates returns the filtered candidate set, newest first. A user filter
// selects that user's library in its membership order.
func (e *Engine) candidates(meta *metadata.Metadata, filters Filters) []models.MusicID {
	if filters.User != nil {
		return append([]models.MusicID(nil), meta.UserSongs[*filters.User]...)
	}
	out := make([]models.MusicID, len(meta.Musics))
	for i, id := range meta.Musics {
		out[len(meta.Musics)-1-i] = id
	}
	return out
}

// textSearch replaces ranking entirely when a query is active. A leading '/'
// switches to regex mode over title and artist.
func (e *Engine) textSearch(meta *metadata.Metadata, qry string) []models.MusicID {
	idx := NewIndex(meta, e.cfg)
	if strings.HasPrefix(qry, "/") {
		return idx.SearchRegex(qry[1:])
	}
	return idx.Search(qry)
}

// rankBySimilarity orders candidates by embedding similarity to the
// reference track: the last manual selection when the form is locked to it,
// the most recent play otherwise. Without a usable reference the candidate
// order is returned unscored.
func (e *Engine) rankBySimilarity(meta *metadata.Metadata, form SearchForm, list tracklist.Tracklist, candidates []models.MusicID) ([]models.MusicID, map[models.MusicID]float64) {
	reference, ok := list.Head()
	if form.Sort.SimilKeepOrder && list.LastManualSelect != nil {
		reference, ok = *list.LastManualSelect, true
	}
	if !ok {
		return candidates, map[models.MusicID]float64{}
	}

	scores := e.scorer.ScoreMap(meta, candidates, reference)
	if len(scores) == 0 {
		return candidates, scores
	}

	malus := map[models.MusicID]float64{}
	if !form.Sort.SimilKeepOrder {
		malus = e.scorer.RecencyMalus(list.LastPlayed)
	}

	temp := form.Similarity.Temperature
	total := func(id models.MusicID) float64 {
		s, ok := scores[id]
		if !ok {
			s = e.cfg.MissingScore
		}
		return s + malus[id]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		drift := (e.scorer.Shuffle(a) - e.scorer.Shuffle(b)) * temp
		return total(b)-total(a)+drift < 0
	})
	return candidates, scores
}

// sortByTag orders candidates by the lexicographic text value of a tag key,
// ascending; tracks without the tag compare as empty strings.
func sortByTag(meta *metadata.Metadata, candidates []models.MusicID, key string) []models.MusicID {
	value := func(id models.MusicID) string {
		return metadata.GetTags(meta, id)[key].TextValue()
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return value(candidates[i]) < value(candidates[j])
	})
	return candidates
}

// sortRandom orders candidates by the session's deterministic per-track
// shuffle: stable across re-renders within a session, different across
// sessions.
func (e *Engine) sortRandom(candidates []models.MusicID) []models.MusicID {
	sort.SliceStable(candidates, func(i, j int) bool {
		return e.scorer.Shuffle(candidates[i]) < e.scorer.Shuffle(candidates[j])
	})
	return candidates
}

// applyQueue removes queued tracks from the computed order and prepends the
// queue verbatim; the queue always plays next regardless of ranking or
// search.
func applyQueue(list []models.MusicID, queue []models.MusicID) []models.MusicID {
	if len(queue) == 0 {
		if list == nil {
			return []models.MusicID{}
		}
		return list
	}
	queued := make(map[models.MusicID]struct{}, len(queue))
	for _, id := range queue {
		queued[id] = struct{}{}
	}
	out := make([]models.MusicID, 0, len(queue)+len(list))
	out = append(out, queue...)
	for _, id := range list {
		if _, inQueue := queued[id]; !inQueue {
			out = append(out, id)
		}
	}
	return out
}

// NextTrack picks the track auto-advance should play: the top ranked
// candidate that is not the current track. When the current track is the only
// candidate it is returned again rather than failing.
func NextTrack(sel Selection, current *models.MusicID) (models.MusicID, bool) {
	if len(sel.List) == 0 {
		return 0, false
	}
	for _, id := range sel.List {
		if current == nil || id != *current {
			return id, true
		}
	}
	return sel.List[0], true
}
