package search

import "github.com/hupe1980/fuzzgram/trie"

// postingIterator walks one posting list.
type postingIterator struct {
	leaves     []trie.Leaf
	idx        int
	queryCount uint32
}

func (it *postingIterator) exhausted() bool {
	return it.idx >= len(it.leaves)
}

// leaf returns the current posting. The iterator must not be exhausted.
func (it *postingIterator) leaf() trie.Leaf {
	return it.leaves[it.idx]
}

func (it *postingIterator) next() {
	it.idx++
}
