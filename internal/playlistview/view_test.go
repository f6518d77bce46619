package playlistview

import (
	"errors"
	"sync"
	"testing"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeFetcher(items map[int64]*catalog.PlayableItem) ItemFetcher {
	return func(id int64) (*catalog.PlayableItem, error) {
		it, ok := items[id]
		if !ok {
			return nil, catalog.ErrNotFound
		}
		return it, nil
	}
}

func sampleItems() map[int64]*catalog.PlayableItem {
	return map[int64]*catalog.PlayableItem{
		1: {ID: 1, Filename: "long.mp3", Description: "Long Track", Duration: 600},
		2: {ID: 2, Filename: "mid.mp3", Description: "Mid Track", Duration: 120},
		3: {ID: 3, Filename: "short.mp3", Description: "Short Jingle", Duration: 10},
	}
}

func TestPopWithTimeLimitReturnsFirstFit(t *testing.T) {
	v := New("main", []int64{1, 2, 3}, fakeFetcher(sampleItems()), false)

	item, ok, err := v.PopWithTimeLimit(200)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), item.ID)
	assert.Equal(t, 2, v.Size())
}

func TestPopWithTimeLimitNoFitLeavesViewUntouched(t *testing.T) {
	v := New("main", []int64{1}, fakeFetcher(sampleItems()), false)

	item, ok, err := v.PopWithTimeLimit(5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, item)
	assert.Equal(t, 1, v.Size())
}

func TestPopWithTimeLimitZeroMatchesOnlyZeroDuration(t *testing.T) {
	items := sampleItems()
	items[4] = &catalog.PlayableItem{ID: 4, Filename: "silence.mp3", Duration: 0}
	v := New("main", []int64{1, 2, 4}, fakeFetcher(items), false)

	item, ok, err := v.PopWithTimeLimit(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), item.ID)
}

func TestPopFrontIgnoresDuration(t *testing.T) {
	v := New("main", []int64{1, 2, 3}, fakeFetcher(sampleItems()), false)

	item, ok, err := v.PopFront()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, 2, v.Size())
}

func TestPopDecreasesSizeByExactlyOne(t *testing.T) {
	v := New("main", []int64{1, 2, 3}, fakeFetcher(sampleItems()), false)
	before := v.Size()
	_, ok, err := v.PopWithTimeLimit(1000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before-1, v.Size())
}

func TestPopOnEmptyViewReturnsNotOK(t *testing.T) {
	v := New("main", nil, fakeFetcher(sampleItems()), false)
	item, ok, err := v.PopFront()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, item)
}

func TestFilterMatchesDescriptionCaseInsensitive(t *testing.T) {
	v := New("main", []int64{1, 2, 3}, fakeFetcher(sampleItems()), false)

	filtered, err := v.Filter("jingle")
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Size())

	item, ok, err := filtered.PopFront()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), item.ID)
}

func TestFilterExcludesTombstonedEntries(t *testing.T) {
	v := New("main", []int64{1, 2, 3}, fakeFetcher(sampleItems()), false)
	_, _, err := v.PopFront()
	require.NoError(t, err)

	filtered, err := v.Filter(".")
	require.NoError(t, err)
	assert.Equal(t, 2, filtered.Size())
}

func TestApplyMergeRequestAppend(t *testing.T) {
	v := New("main", []int64{1}, fakeFetcher(sampleItems()), false)
	v.ApplyMergeRequest([]int64{2, 3}, false)
	assert.Equal(t, []int64{1, 2, 3}, v.ItemIDs())
}

func TestApplyMergeRequestReplace(t *testing.T) {
	v := New("main", []int64{1, 2, 3}, fakeFetcher(sampleItems()), false)
	v.ApplyMergeRequest([]int64{3}, true)
	assert.Equal(t, []int64{3}, v.ItemIDs())
}

func TestNeverSaveFlagIsPreserved(t *testing.T) {
	v := New("override", nil, fakeFetcher(sampleItems()), true)
	assert.True(t, v.NeverSave())

	filtered, err := v.Filter(".")
	require.NoError(t, err)
	assert.True(t, filtered.NeverSave())
}

func TestPopWithTimeLimitPropagatesFetchError(t *testing.T) {
	v := New("main", []int64{99}, fakeFetcher(sampleItems()), false)
	_, _, err := v.PopWithTimeLimit(1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestConcurrentPopsAreSerialized(t *testing.T) {
	ids := make([]int64, 50)
	items := make(map[int64]*catalog.PlayableItem, 50)
	for i := range ids {
		id := int64(i + 1)
		ids[i] = id
		items[id] = &catalog.PlayableItem{ID: id, Duration: 1}
	}
	v := New("main", ids, fakeFetcher(items), false)

	var wg sync.WaitGroup
	results := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := v.PopFront()
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	oks := 0
	for ok := range results {
		if ok {
			oks++
		}
	}
	assert.Equal(t, 50, oks)
	assert.Equal(t, 0, v.Size())
}
