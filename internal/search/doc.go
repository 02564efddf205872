// Package search merges trigram posting lists into ranked similarity scores.
//
// Each distinct query trigram contributes one posting list, ascending by id.
// Merge walks all lists document-at-a-time: it repeatedly takes the smallest
// unconsumed id, sums min(query count, leaf count) over every list positioned
// on that id, and scores the id with the weighted Jaccard coefficient
//
//	shared / (queryTotal + candidateTotal - shared)
//
// Working memory is one cursor per list, independent of the number of
// candidates.
package search
