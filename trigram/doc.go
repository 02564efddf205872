// Package trigram turns strings into padded character trigrams.
//
// A string is lowercased and NFC-composed, then framed by two virtual '$'
// sentinels on each side. Every window of three consecutive characters of the
// framed string is a trigram, so a normalized string of length L yields L+2
// trigrams. The empty string yields the single trigram "$$$".
//
//	counts, total := trigram.Extract("spam")
//	// $$s $sp spa pam am$ m$$, total = 6
//
// Trigram identity is exact equality of the three code points.
package trigram
