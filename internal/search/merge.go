package search

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/fuzzgram/internal/queue"
	"github.com/hupe1980/fuzzgram/model"
	"github.com/hupe1980/fuzzgram/trie"
)

// Posting is the posting list of one query trigram together with the number
// of times the trigram occurs in the query.
type Posting struct {
	QueryCount uint32
	Leaves     []trie.Leaf
}

// Options tunes a merge.
type Options struct {
	// Threshold drops candidates scoring below it. Zero keeps everything.
	Threshold float32
	// Filter, if non-nil, drops candidates whose id is not in the bitmap.
	Filter *roaring.Bitmap
	// Limit, if positive, keeps only the best Limit candidates.
	Limit int
}

// Merge scores every id that appears in at least one posting list.
// queryTotal is the total trigram count of the query. Results are ordered by
// descending score, ties by ascending id.
func Merge(postings []Posting, queryTotal uint32, opts Options) []model.Candidate {
	iterators := make([]postingIterator, 0, len(postings))
	for _, p := range postings {
		if len(p.Leaves) == 0 || p.QueryCount == 0 {
			continue
		}
		iterators = append(iterators, postingIterator{leaves: p.Leaves, queryCount: p.QueryCount})
	}

	var candidates []model.Candidate
	var top *queue.TopK
	if opts.Limit > 0 {
		top = queue.NewTopK(opts.Limit)
	}

	for {
		// Find min id. A linear scan is fine: there is one iterator per
		// distinct query trigram.
		var minID uint32
		live := false
		for i := range iterators {
			it := &iterators[i]
			if it.exhausted() {
				continue
			}
			if id := it.leaf().ID; !live || id < minID {
				minID = id
				live = true
			}
		}
		if !live {
			break
		}

		var shared uint32
		var total uint8
		for i := range iterators {
			it := &iterators[i]
			if it.exhausted() || it.leaf().ID != minID {
				continue
			}
			l := it.leaf()
			shared += min(it.queryCount, uint32(l.Count))
			total = l.TotalNgrams
			it.next()
		}

		if opts.Filter != nil && !opts.Filter.Contains(minID) {
			continue
		}

		score := Score(shared, queryTotal, uint32(total))
		if score < opts.Threshold {
			continue
		}
		c := model.Candidate{ID: minID, Score: score}
		if top != nil {
			top.Push(c)
		} else {
			candidates = append(candidates, c)
		}
	}

	if top != nil {
		return top.Sorted()
	}

	// Emission order is ascending id, so a stable sort breaks ties by id.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

// Score returns the weighted Jaccard coefficient of two trigram multisets
// given their shared count and totals. The union is never smaller than
// shared, so saturated totals cannot push the score above 1.
func Score(shared, queryTotal, candidateTotal uint32) float32 {
	if shared == 0 {
		return 0
	}
	sum, s := uint64(queryTotal)+uint64(candidateTotal), uint64(shared)
	var union uint64
	if sum > s {
		union = sum - s
	}
	if union < s {
		union = s
	}
	return float32(float64(s) / float64(union))
}
