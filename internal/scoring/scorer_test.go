package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musidex/internal/config"
	"musidex/internal/metadata"
	"musidex/internal/models"
	"musidex/internal/testutil"
)

func newScoredMeta(t *testing.T) *metadata.Metadata {
	t.Helper()
	raw := testutil.NewRawBuilder().
		WithMusic(1, 2, 3, 4).
		WithEmbedding(1, 1, 0).
		WithEmbedding(2, 1, 0).
		WithEmbedding(3, 0, 1).
		Build()
	return metadata.New(raw, nil)
}

func TestScoreMap(t *testing.T) {
	meta := newScoredMeta(t)
	scorer := NewScorer(config.DefaultRankingConfig(), 42)

	scores := scorer.ScoreMap(meta, []models.MusicID{1, 2, 3, 4}, 1)
	require.Len(t, scores, 4)

	// Identical embedding scores near 1, orthogonal near 0. Jitter only
	// moves a score by at most the jitter amplitude.
	assert.InDelta(t, 1.0, scores[2], 1e-3)
	assert.InDelta(t, 0.0, scores[3], 1e-3)
	assert.Greater(t, scores[2], scores[3])

	// A candidate without an embedding still gets a stable jitter score.
	assert.GreaterOrEqual(t, scores[4], 0.0)
	assert.Less(t, scores[4], config.DefaultRankingConfig().JitterAmplitude)
}

func TestScoreMap_ReferenceWithoutEmbedding(t *testing.T) {
	meta := newScoredMeta(t)
	scorer := NewScorer(nil, 42)

	scores := scorer.ScoreMap(meta, []models.MusicID{1, 2, 3}, 4)
	assert.Empty(t, scores)
}

func TestScoreMap_JitterIndependentOfShuffle(t *testing.T) {
	meta := newScoredMeta(t)
	cfg := config.DefaultRankingConfig()
	scorer := NewScorer(cfg, 42)

	// Candidate 4 has no embedding, so its score is pure jitter. The
	// tie-breaker must not reuse the shuffle stream the temperature
	// comparator draws from.
	scores := scorer.ScoreMap(meta, []models.MusicID{4}, 1)
	require.Len(t, scores, 1)
	assert.NotEqual(t, scorer.Shuffle(4)*cfg.JitterAmplitude, scores[4])
}

func TestScoreMap_Deterministic(t *testing.T) {
	meta := newScoredMeta(t)
	a := NewScorer(config.DefaultRankingConfig(), 7)
	b := NewScorer(config.DefaultRankingConfig(), 7)

	assert.Equal(t,
		a.ScoreMap(meta, []models.MusicID{1, 2, 3, 4}, 1),
		b.ScoreMap(meta, []models.MusicID{1, 2, 3, 4}, 1))
}

func TestSimilarity_NoEmbedding(t *testing.T) {
	meta := newScoredMeta(t)
	_, ok := Similarity(meta, meta.Embeddings[1], 4)
	assert.False(t, ok)
}

func TestRecencyMalus(t *testing.T) {
	cfg := config.DefaultRankingConfig()
	scorer := NewScorer(cfg, 0)

	malus := scorer.RecencyMalus([]models.MusicID{3, 2, 1})
	require.Len(t, malus, 3)

	// Head gets the dominant penalty; older plays decay as -1/(d*falloff).
	assert.Equal(t, -cfg.HeadMalus, malus[1])
	assert.InDelta(t, -1.0/(1*cfg.RecencyFalloff), malus[2], 1e-9)
	assert.InDelta(t, -1.0/(2*cfg.RecencyFalloff), malus[3], 1e-9)
	assert.Less(t, malus[1], malus[2])
	assert.Less(t, malus[2], malus[3])
}

func TestShuffle(t *testing.T) {
	a := NewScorer(nil, 99)
	b := NewScorer(nil, 99)
	c := NewScorer(nil, 100)

	assert.Equal(t, a.Shuffle(5), b.Shuffle(5))
	assert.NotEqual(t, a.Shuffle(5), a.Shuffle(6))
	assert.NotEqual(t, a.Shuffle(5), c.Shuffle(5))

	v := a.Shuffle(5)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
}
