package search

import (
	"regexp"
	"sort"
	"strings"

	"musidex/internal/config"
	"musidex/internal/metadata"
	"musidex/internal/models"
)

// Index performs text search over a snapshot's search documents: weighted
// fuzzy matching over title, artist and user tags, plus a regex fallback
// mode. An Index is cheap to build and tied to one snapshot.
type Index struct {
	docs []metadata.SearchDoc
	cfg  *config.RankingConfig
}

// NewIndex builds a text index over the snapshot.
func NewIndex(meta *metadata.Metadata, cfg *config.RankingConfig) *Index {
	if cfg == nil {
		cfg = config.DefaultRankingConfig()
	}
	return &Index{docs: meta.SearchDocs, cfg: cfg}
}

// Search runs weighted fuzzy matching and returns matching track ids ordered
// by relevance, best first, each at most once.
func (ix *Index) Search(query string) []models.MusicID {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	type hit struct {
		id    models.MusicID
		score float64
	}
	var hits []hit
	for _, doc := range ix.docs {
		score := ix.relevance(doc, query)
		if score >= ix.cfg.SearchThreshold {
			hits = append(hits, hit{id: doc.ID, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]models.MusicID, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}

// SearchRegex matches expr case-insensitively against title and artist; a
// track matches if either does. A malformed expression yields an empty
// result set rather than an error.
func (ix *Index) SearchRegex(expr string) []models.MusicID {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return []models.MusicID{}
	}
	var out []models.MusicID
	for _, doc := range ix.docs {
		if re.MatchString(doc.Title) || re.MatchString(doc.Artist) {
			out = append(out, doc.ID)
		}
	}
	return out
}

// relevance is the weighted text-match score of one document: the best field
// match, scaled by that field's weight.
func (ix *Index) relevance(doc metadata.SearchDoc, query string) float64 {
	score := fieldMatch(doc.Title, query) * ix.cfg.TitleWeight
	if s := fieldMatch(doc.Artist, query) * ix.cfg.ArtistWeight; s > score {
		score = s
	}
	if s := fieldMatch(doc.UserTags, query) * ix.cfg.UserTagWeight; s > score {
		score = s
	}
	return score
}

// fieldMatch scores a single field against the query (0-100).
func fieldMatch(field, query string) float64 {
	field = strings.ToLower(field)
	switch {
	case field == "":
		return 0
	case field == query:
		return 100
	case strings.HasPrefix(field, query):
		return 80
	case strings.Contains(field, query):
		return 60
	case fuzzyContains(field, query):
		return 40
	default:
		return 0
	}
}

// fuzzyContains handles typos and word-order differences: spaces removed,
// containment in either direction, or every query token present somewhere in
// the field.
func fuzzyContains(field, query string) bool {
	cleanField := strings.ReplaceAll(field, " ", "")
	cleanQuery := strings.ReplaceAll(query, " ", "")
	if strings.Contains(cleanField, cleanQuery) || strings.Contains(cleanQuery, cleanField) {
		return true
	}
	tokens := strings.Fields(query)
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if !strings.Contains(field, tok) {
			return false
		}
	}
	return true
}
