package tracklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musidex/internal/metadata"
	"musidex/internal/models"
	"musidex/internal/testutil"
)

func TestAdvance_AppendsHistory(t *testing.T) {
	list := New()
	list = Advance(list, 1, false)
	list = Advance(list, 2, false)

	assert.Equal(t, []models.MusicID{1, 2}, list.LastPlayed)
	head, ok := list.Head()
	require.True(t, ok)
	assert.Equal(t, models.MusicID(2), head)
	assert.Nil(t, list.LastManualSelect)
}

func TestAdvance_RepeatOfHeadDoesNotDuplicate(t *testing.T) {
	list := Advance(New(), 1, false)
	list = Advance(list, 1, false)

	assert.Equal(t, []models.MusicID{1}, list.LastPlayed)
}

func TestAdvance_ManualSetsLastManualSelect(t *testing.T) {
	list := Advance(New(), 5, true)

	require.NotNil(t, list.LastManualSelect)
	assert.Equal(t, models.MusicID(5), *list.LastManualSelect)

	// A repeated manual play of the head still refreshes the selection.
	list = Advance(list, 5, true)
	assert.Equal(t, []models.MusicID{5}, list.LastPlayed)
	assert.Equal(t, models.MusicID(5), *list.LastManualSelect)
}

func TestAdvance_BoundsHistory(t *testing.T) {
	list := New()
	for id := models.MusicID(1); id <= 31; id++ {
		list = Advance(list, id, false)
	}

	require.Len(t, list.LastPlayed, DefaultMaxHistory)
	// The oldest entry was evicted.
	assert.Equal(t, models.MusicID(2), list.LastPlayed[0])
	assert.Equal(t, models.MusicID(31), list.LastPlayed[len(list.LastPlayed)-1])
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	list := Advance(New(), 1, false)
	before := append([]models.MusicID(nil), list.LastPlayed...)

	Advance(list, 2, false)
	assert.Equal(t, before, list.LastPlayed)
}

func TestRegress(t *testing.T) {
	list := Advance(Advance(New(), 1, false), 2, false)
	assert.True(t, list.CanPrev())

	list, prev, ok := Regress(list)
	require.True(t, ok)
	assert.Equal(t, models.MusicID(1), prev)
	assert.Equal(t, []models.MusicID{1}, list.LastPlayed)
	assert.False(t, list.CanPrev())

	list, _, ok = Regress(list)
	assert.False(t, ok)
	assert.Empty(t, list.LastPlayed)

	_, _, ok = Regress(New())
	assert.False(t, ok)
}

func TestApply_QueueActions(t *testing.T) {
	list := Apply(New(), Action{Kind: ActionQueue, ID: 1})
	list = Apply(list, Action{Kind: ActionQueue, ID: 2})
	list = Apply(list, Action{Kind: ActionQueue, ID: 1})
	assert.Equal(t, []models.MusicID{1, 2, 1}, list.Queue)

	list = Apply(list, Action{Kind: ActionUnqueue, ID: 1})
	assert.Equal(t, []models.MusicID{2, 1}, list.Queue)

	list = Apply(list, Action{Kind: ActionClearQueue})
	assert.Empty(t, list.Queue)
}

func TestApply_UnknownActionIsNoop(t *testing.T) {
	list := Advance(New(), 1, false)
	assert.Equal(t, list, Apply(list, Action{Kind: "bogus"}))
}

func TestReconcile_DropsUnknownTracks(t *testing.T) {
	meta := metadata.New(testutil.NewRawBuilder().WithMusic(1, 3).Build(), nil)

	gone := models.MusicID(2)
	list := Advance(Advance(Advance(New(), 1, false), 2, false), 3, false)
	list.Queue = []models.MusicID{2, 3}
	list.LastManualSelect = &gone

	list = Reconcile(list, meta)
	assert.Equal(t, []models.MusicID{1, 3}, list.LastPlayed)
	assert.Equal(t, []models.MusicID{3}, list.Queue)
	assert.Nil(t, list.LastManualSelect)
}
