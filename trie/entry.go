package trie

// Leaf records one source string's statistics for a trigram path.
type Leaf struct {
	ID uint32
	// Count is the number of occurrences of the trigram in the source
	// string, saturated to 255.
	Count uint8
	// TotalNgrams is the number of trigrams of the source string,
	// saturated to 255.
	TotalNgrams uint8
}

// Children is the child list of a node: either Branches or Leaves.
type Children interface {
	Len() int
	children()
}

// Branches is an ordered list of branch nodes, ascending by Char.
type Branches []*Branch

// Leaves is an ordered list of leaves, ascending by ID.
type Leaves []Leaf

func (b Branches) Len() int { return len(b) }
func (Branches) children()  {}

func (l Leaves) Len() int { return len(l) }
func (Leaves) children()  {}

// Branch is an internal node keyed by one code point of a trigram.
type Branch struct {
	Char     uint32
	Children Children
}
