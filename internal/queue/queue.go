// Package queue provides a bounded heap that keeps the best k candidates.
package queue

import (
	"slices"

	"github.com/hupe1980/fuzzgram/model"
)

// TopK keeps the k best candidates pushed into it. A candidate ranks above
// another when its score is higher, or when scores tie and its id is lower.
//
// The backing slice is a min-heap on that ranking, so the worst kept
// candidate sits at the root and is the one evicted.
type TopK struct {
	k     int
	items []model.Candidate
}

// NewTopK returns a TopK that keeps at most k candidates. k must be positive.
func NewTopK(k int) *TopK {
	return &TopK{
		k:     k,
		items: make([]model.Candidate, 0, min(k, 1024)),
	}
}

// Len returns the number of candidates held.
func (q *TopK) Len() int { return len(q.items) }

// Push offers c. It is kept if fewer than k candidates are held or if it
// ranks above the worst one held.
func (q *TopK) Push(c model.Candidate) {
	if len(q.items) < q.k {
		q.items = append(q.items, c)
		q.siftUp(len(q.items) - 1)
		return
	}
	if !worse(q.items[0], c) {
		return
	}
	q.items[0] = c
	q.siftDown(0)
}

// Worst returns the lowest ranked candidate held.
func (q *TopK) Worst() (model.Candidate, bool) {
	if len(q.items) == 0 {
		return model.Candidate{}, false
	}
	return q.items[0], true
}

// Sorted drains the queue and returns its candidates best first.
func (q *TopK) Sorted() []model.Candidate {
	out := q.items
	q.items = nil
	slices.SortFunc(out, Compare)
	return out
}

// Compare orders candidates best first: descending score, then ascending id.
func Compare(a, b model.Candidate) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

func worse(a, b model.Candidate) bool {
	return Compare(a, b) > 0
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !worse(q.items[i], q.items[p]) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		w := l
		if r := l + 1; r < n && worse(q.items[r], q.items[l]) {
			w = r
		}
		if !worse(q.items[w], q.items[i]) {
			return
		}
		q.items[i], q.items[w] = q.items[w], q.items[i]
		i = w
	}
}
