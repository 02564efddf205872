package trie

const (
	tagBranch byte = 1
	tagLeaf   byte = 2

	// tag + count
	headerSize = 1 + 4
	// char + offset
	branchSlotSize = 4 + 4
	// id + count + total
	leafSize = 4 + 1 + 1

	// Depth is the number of branch levels between the root and the leaves.
	Depth = 3
)
