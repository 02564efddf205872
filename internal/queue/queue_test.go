package queue

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/hupe1980/fuzzgram/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopK_KeepsBest(t *testing.T) {
	q := NewTopK(3)
	for _, c := range []model.Candidate{
		{ID: 1, Score: 0.2},
		{ID: 2, Score: 0.9},
		{ID: 3, Score: 0.5},
		{ID: 4, Score: 0.1},
		{ID: 5, Score: 0.7},
	} {
		q.Push(c)
	}

	worst, ok := q.Worst()
	require.True(t, ok)
	assert.Equal(t, uint32(3), worst.ID)

	assert.Equal(t, []model.Candidate{
		{ID: 2, Score: 0.9},
		{ID: 5, Score: 0.7},
		{ID: 3, Score: 0.5},
	}, q.Sorted())
	assert.Equal(t, 0, q.Len())
}

func TestTopK_TiesPreferLowerID(t *testing.T) {
	q := NewTopK(2)
	for _, id := range []uint32{9, 4, 7, 2} {
		q.Push(model.Candidate{ID: id, Score: 1})
	}
	assert.Equal(t, []model.Candidate{{ID: 2, Score: 1}, {ID: 4, Score: 1}}, q.Sorted())
}

func TestTopK_MatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var all []model.Candidate
	q := NewTopK(25)
	for i := range 1000 {
		c := model.Candidate{ID: uint32(i), Score: float32(rng.Intn(50)) / 50}
		all = append(all, c)
		q.Push(c)
	}

	slices.SortFunc(all, Compare)
	assert.Equal(t, all[:25], q.Sorted())
}

func TestTopK_Empty(t *testing.T) {
	q := NewTopK(4)
	_, ok := q.Worst()
	assert.False(t, ok)
	assert.Empty(t, q.Sorted())
}
