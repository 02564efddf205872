package model

import (
	"fmt"
)

// Candidate is a search hit.
type Candidate struct {
	ID uint32 `json:"id"`
	// Score is the weighted Jaccard similarity between the query and the
	// candidate's trigram multisets.
	Score float32 `json:"score"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("Candidate(id=%d, score=%.3f)", c.ID, c.Score)
}
