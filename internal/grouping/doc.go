// Package grouping clusters fingerprinted files into duplicate groups.
// Grouping runs in two phases: an exact phase that collects identical
// signatures, then a fuzzy phase that compares near-miss signatures
// inside locality buckets. A candidate only joins a fuzzy group when it
// clears the threshold against every existing member, so groups never
// chain together files that are only transitively similar.
package grouping
