package scoring

import (
	"math/rand"

	"musidex/internal/config"
	"musidex/internal/metadata"
	"musidex/internal/models"
	"musidex/internal/vector"
)

// Scorer computes per-track similarity scores and recency penalties. It owns
// the session seed: for fixed inputs and seed its output is deterministic,
// while different sessions shuffle differently.
type Scorer struct {
	cfg  *config.RankingConfig
	seed int64
}

// NewScorer creates a scorer for one session.
func NewScorer(cfg *config.RankingConfig, seed int64) *Scorer {
	if cfg == nil {
		cfg = config.DefaultRankingConfig()
	}
	return &Scorer{cfg: cfg, seed: seed}
}

// Config returns the ranking constants in use.
func (s *Scorer) Config() *config.RankingConfig { return s.cfg }

// ScoreMap scores every candidate against the reference track: cosine
// similarity of embeddings plus a small uniform jitter that breaks exact
// ties without reordering distinct scores. The map is empty when the
// reference has no embedding. Candidates without an embedding still get the
// jitter so they keep a stable relative order, but contribute no similarity.
func (s *Scorer) ScoreMap(meta *metadata.Metadata, candidates []models.MusicID, reference models.MusicID) map[models.MusicID]float64 {
	refVec, ok := meta.Embeddings[reference]
	if !ok {
		return map[models.MusicID]float64{}
	}
	scores := make(map[models.MusicID]float64, len(candidates))
	for _, id := range candidates {
		score := s.jitter(id) * s.cfg.JitterAmplitude
		if sim, ok := Similarity(meta, refVec, id); ok {
			score += sim
		}
		scores[id] = score
	}
	return scores
}

// Similarity returns the cosine similarity between a reference vector and a
// track's embedding. ok is false when the track has no usable embedding;
// that track contributes no score rather than erroring.
func Similarity(meta *metadata.Metadata, ref vector.Vector, id models.MusicID) (float64, bool) {
	emb, ok := meta.Embeddings[id]
	if !ok {
		return 0, false
	}
	return vector.Cosine(ref, emb)
}

// RecencyMalus penalizes tracks by how recently they were played. A track d
// positions back gets -1/(d*falloff); the most recent play gets the dominant
// head malus so auto-advance never immediately repeats the active track.
func (s *Scorer) RecencyMalus(lastPlayed []models.MusicID) map[models.MusicID]float64 {
	malus := make(map[models.MusicID]float64, len(lastPlayed))
	for i, id := range lastPlayed {
		d := len(lastPlayed) - 1 - i
		if d == 0 {
			malus[id] = -s.cfg.HeadMalus
			continue
		}
		malus[id] = -1.0 / (float64(d) * s.cfg.RecencyFalloff)
	}
	return malus
}

// Shuffle returns the session's deterministic pseudo-random value for a
// track. It is stable for a given seed and id, so temperature-blended
// orderings do not change between renders within a session.
func (s *Scorer) Shuffle(id models.MusicID) float64 {
	return rand.New(rand.NewSource(s.seed + int64(id))).Float64()
}

// jitterSeed offsets the jitter stream from the shuffle stream so the
// tie-breaker and the temperature drift stay uncorrelated within a session.
const jitterSeed int64 = 0x5deece66d

func (s *Scorer) jitter(id models.MusicID) float64 {
	return rand.New(rand.NewSource((s.seed ^ jitterSeed) + int64(id))).Float64()
}
