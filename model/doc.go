// Package model defines the result types shared by the search packages.
//
// # Identity
//
// IDs are opaque, caller-assigned uint32 values. The index places no ordering
// requirement on them.
//
// # Candidate
//
// Candidate is a search hit: an ID and its similarity score in [0, 1].
package model
