package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musidex/internal/metadata"
	"musidex/internal/models"
	"musidex/internal/testutil"
)

func newSearchMeta(t *testing.T) *metadata.Metadata {
	t.Helper()
	raw := testutil.NewRawBuilder().
		WithMusic(1, 2, 3, 4).
		WithTitle(1, "Alpha Centauri").
		WithArtist(1, "Vangelis").
		WithTitle(2, "Beta Waves").
		WithArtist(2, "Aphex Twin").
		WithTitle(3, "Gamma Ray").
		WithArtist(3, "Beck").
		WithUserTag(3, "chill").
		WithTitle(4, "alpha").
		Build()
	return metadata.New(raw, nil)
}

func TestSearch_RanksByRelevance(t *testing.T) {
	ix := NewIndex(newSearchMeta(t), nil)

	got := ix.Search("alpha")
	require.NotEmpty(t, got)
	// Exact title match outranks a prefix match.
	assert.Equal(t, []models.MusicID{4, 1}, got)
}

func TestSearch_MatchesArtistAndUserTags(t *testing.T) {
	ix := NewIndex(newSearchMeta(t), nil)

	assert.Equal(t, []models.MusicID{1}, ix.Search("vangelis"))
	assert.Equal(t, []models.MusicID{3}, ix.Search("chill"))
}

func TestSearch_CaseInsensitiveAndTrimmed(t *testing.T) {
	ix := NewIndex(newSearchMeta(t), nil)

	assert.Equal(t, ix.Search("beta waves"), ix.Search("  BETA WAVES  "))
}

func TestSearch_FuzzyWordOrder(t *testing.T) {
	ix := NewIndex(newSearchMeta(t), nil)

	got := ix.Search("waves beta")
	assert.Contains(t, got, models.MusicID(2))
}

func TestSearch_BelowThresholdExcluded(t *testing.T) {
	ix := NewIndex(newSearchMeta(t), nil)

	assert.Empty(t, ix.Search("zzzzzz"))
	assert.Nil(t, ix.Search(""))
}

func TestSearchRegex(t *testing.T) {
	ix := NewIndex(newSearchMeta(t), nil)

	// Case-insensitive, anchored, matches title or artist.
	assert.Equal(t, []models.MusicID{1, 2, 4}, ix.SearchRegex("^a"))
	assert.Equal(t, []models.MusicID{2, 3}, ix.SearchRegex("^be"))
	assert.Equal(t, []models.MusicID{1, 2, 3, 4}, ix.SearchRegex(".*"))
}

func TestSearchRegex_Malformed(t *testing.T) {
	ix := NewIndex(newSearchMeta(t), nil)

	got := ix.SearchRegex("[unclosed")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
