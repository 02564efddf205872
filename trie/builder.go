package trie

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hupe1980/fuzzgram/trigram"
)

// Builder accumulates leaves into an in-memory trie.
type Builder struct {
	root   Branches
	leaves int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Root returns the top-level branches. The result must not be modified.
func (b *Builder) Root() Branches {
	return b.root
}

// Len returns the number of leaves stored.
func (b *Builder) Len() int {
	return b.leaves
}

// Insert stores leaf under the path t. Branches are created on demand and
// kept sorted by code point; the leaf is placed in id order. A leaf with the
// same id already stored under t is replaced.
func (b *Builder) Insert(t trigram.Trigram, leaf Leaf) error {
	children := Children(b.root)
	var parent *Branch

	for depth, r := range t {
		branches, ok := children.(Branches)
		if !ok {
			return fmt.Errorf("%w: leaves found at depth %d of %q", ErrInvariant, depth, t.String())
		}

		c := uint32(r)
		i, found := searchBranches(branches, c)
		if !found {
			next := &Branch{Char: c}
			if depth == Depth-1 {
				next.Children = Leaves(nil)
			} else {
				next.Children = Branches(nil)
			}
			branches = slices.Insert(branches, i, next)
			if parent == nil {
				b.root = branches
			} else {
				parent.Children = branches
			}
		}

		parent = branches[i]
		children = parent.Children
	}

	leaves, ok := children.(Leaves)
	if !ok {
		return fmt.Errorf("%w: branches found below %q", ErrInvariant, t.String())
	}

	i := sort.Search(len(leaves), func(i int) bool { return leaves[i].ID >= leaf.ID })
	if i < len(leaves) && leaves[i].ID == leaf.ID {
		leaves[i] = leaf
		return nil
	}
	parent.Children = slices.Insert(leaves, i, leaf)
	b.leaves++

	return nil
}

// searchBranches returns the position of c in branches, or the position at
// which it would be inserted.
func searchBranches(branches Branches, c uint32) (int, bool) {
	i := sort.Search(len(branches), func(i int) bool { return branches[i].Char >= c })
	return i, i < len(branches) && branches[i].Char == c
}
