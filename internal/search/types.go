package search

import "musidex/internal/models"

// SortKind selects the no-search ordering of the candidate set.
type SortKind string

const (
	SortSimilarity   SortKind = "similarity"
	SortCreationTime SortKind = "creation_time"
	SortTag          SortKind = "tag"
	SortRandom       SortKind = "random"
)

// SortBy combines the ordering kind with its modifiers. TagKey is only
// meaningful for SortTag. SimilKeepOrder ranks purely by similarity to the
// last manual selection, unaffected by play history.
type SortBy struct {
	Kind           SortKind `json:"kind"`
	TagKey         string   `json:"tag_key,omitempty"`
	Descending     bool     `json:"descending"`
	SimilKeepOrder bool     `json:"simil_keep_order,omitempty"`
}

// Equal reports whether two sort specifications order the same way, ignoring
// direction modifiers.
func (s SortBy) Equal(o SortBy) bool {
	if s.Kind == SortTag && o.Kind == SortTag {
		return s.TagKey == o.TagKey
	}
	return s.Kind == o.Kind
}

// Filters narrows the candidate set before ordering.
type Filters struct {
	User  *int64 `json:"user,omitempty"`
	Query string `json:"q"`
}

// SimilarityParams tunes similarity ordering. Temperature blends the
// session's deterministic per-track shuffle into the comparator; 0 is pure
// score order.
type SimilarityParams struct {
	Temperature float64 `json:"temperature"`
}

// SearchForm is the full selection request supplied by the UI.
type SearchForm struct {
	Filters    Filters          `json:"filters"`
	Sort       SortBy           `json:"sort"`
	Similarity SimilarityParams `json:"similarity_params"`
}

// NewSearchForm returns the default form: similarity ordering, descending,
// locked to the last manual selection, optionally filtered to one user's
// library.
func NewSearchForm(user *int64) SearchForm {
	return SearchForm{
		Filters: Filters{User: user},
		Sort: SortBy{
			Kind:           SortSimilarity,
			Descending:     true,
			SimilKeepOrder: true,
		},
	}
}

// IsSimilarity reports whether the form ranks by similarity (no active text
// query).
func (f SearchForm) IsSimilarity() bool {
	return f.Sort.Kind == SortSimilarity && f.Filters.Query == ""
}

// Selection is the engine output: the ordered candidate list and the scores
// of the similarity pass (empty when that pass did not run).
type Selection struct {
	List     []models.MusicID
	ScoreMap map[models.MusicID]float64
}

// EmptySelection returns a selection with no candidates.
func EmptySelection() Selection {
	return Selection{List: []models.MusicID{}, ScoreMap: map[models.MusicID]float64{}}
}
