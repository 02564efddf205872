package search

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/fuzzgram/model"
	"github.com/hupe1980/fuzzgram/trie"
	"github.com/stretchr/testify/assert"
)

func leaves(ls ...trie.Leaf) []trie.Leaf { return ls }

func TestMerge_SharedAndScore(t *testing.T) {
	// query "aab": 2 occurrences of trigram A, 1 of B, total 3
	postings := []Posting{
		{QueryCount: 2, Leaves: leaves(
			trie.Leaf{ID: 1, Count: 1, TotalNgrams: 4},
			trie.Leaf{ID: 3, Count: 5, TotalNgrams: 6},
		)},
		{QueryCount: 1, Leaves: leaves(
			trie.Leaf{ID: 2, Count: 1, TotalNgrams: 2},
			trie.Leaf{ID: 3, Count: 1, TotalNgrams: 6},
		)},
	}

	got := Merge(postings, 3, Options{})
	assert.Equal(t, []model.Candidate{
		{ID: 3, Score: 3.0 / 6.0}, // shared min(2,5)+min(1,1)=3, union 3+6-3
		{ID: 2, Score: 1.0 / 4.0}, // shared 1, union 3+2-1
		{ID: 1, Score: 1.0 / 6.0}, // shared 1, union 3+4-1
	}, got)
}

func TestMerge_TiesByAscendingID(t *testing.T) {
	postings := []Posting{
		{QueryCount: 1, Leaves: leaves(
			trie.Leaf{ID: 4, Count: 1, TotalNgrams: 1},
			trie.Leaf{ID: 9, Count: 1, TotalNgrams: 1},
		)},
		{QueryCount: 1, Leaves: leaves(
			trie.Leaf{ID: 2, Count: 1, TotalNgrams: 1},
		)},
	}
	got := Merge(postings, 1, Options{})
	assert.Equal(t, []model.Candidate{{ID: 2, Score: 1}, {ID: 4, Score: 1}, {ID: 9, Score: 1}}, got)
}

func TestMerge_Threshold(t *testing.T) {
	postings := []Posting{{QueryCount: 1, Leaves: leaves(
		trie.Leaf{ID: 1, Count: 1, TotalNgrams: 1},
		trie.Leaf{ID: 2, Count: 1, TotalNgrams: 10},
	)}}

	all := Merge(postings, 1, Options{Threshold: 0})
	assert.Len(t, all, 2)

	some := Merge(postings, 1, Options{Threshold: 0.5})
	assert.Equal(t, []model.Candidate{{ID: 1, Score: 1}}, some)

	none := Merge(postings, 1, Options{Threshold: 1.01})
	assert.Empty(t, none)
}

func TestMerge_FilterAndLimit(t *testing.T) {
	postings := []Posting{{QueryCount: 1, Leaves: leaves(
		trie.Leaf{ID: 1, Count: 1, TotalNgrams: 1},
		trie.Leaf{ID: 2, Count: 1, TotalNgrams: 2},
		trie.Leaf{ID: 3, Count: 1, TotalNgrams: 3},
	)}}

	got := Merge(postings, 1, Options{Filter: roaring.BitmapOf(2, 3)})
	assert.Equal(t, []uint32{2, 3}, ids(got))

	got = Merge(postings, 1, Options{Limit: 2})
	assert.Equal(t, []uint32{1, 2}, ids(got))
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, 0, Options{}))
	assert.Empty(t, Merge([]Posting{{QueryCount: 1}}, 1, Options{}))
}

func TestMerge_MaxUint32ID(t *testing.T) {
	postings := []Posting{{QueryCount: 1, Leaves: leaves(
		trie.Leaf{ID: ^uint32(0), Count: 1, TotalNgrams: 1},
	)}}
	got := Merge(postings, 1, Options{})
	assert.Equal(t, []model.Candidate{{ID: ^uint32(0), Score: 1}}, got)
}

func TestScore_Bounds(t *testing.T) {
	assert.Equal(t, float32(0), Score(0, 5, 5))
	assert.Equal(t, float32(1), Score(5, 5, 5))
	// saturated candidate total smaller than the shared count
	assert.Equal(t, float32(1), Score(280, 280, 255))

	for shared := uint32(0); shared <= 20; shared++ {
		for q := shared; q <= 20; q++ {
			for c := uint32(0); c <= 20; c++ {
				s := Score(shared, q, c)
				assert.GreaterOrEqual(t, s, float32(0))
				assert.LessOrEqual(t, s, float32(1))
			}
		}
	}
}

func ids(cs []model.Candidate) []uint32 {
	out := make([]uint32, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
