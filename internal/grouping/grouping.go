package grouping

import (
	"sort"

	"dedupe/internal/discovery"
)

// Candidate pairs a discovered file with its computed signature. Files
// whose signature is absent never form groups.
type Candidate struct {
	Record    discovery.FileRecord
	Signature string
}

// Comparer scores signatures and assigns locality buckets. Implemented
// by the per-category signature providers.
type Comparer interface {
	CompareSignatures(a, b string) float64
	BucketKey(sig string) string
}

// Group is a set of files judged duplicates of one another. Similarity
// is 1.0 for exact groups; for fuzzy groups it is the lowest pairwise
// score accepted while building the group. HashValue carries the shared
// signature for exact groups and is empty otherwise.
type Group struct {
	Members    []Candidate
	Similarity float64
	HashValue  string
}

// Grouper runs the two-phase grouping for one category.
type Grouper struct {
	comparer  Comparer
	threshold float64
}

func New(comparer Comparer, threshold float64) *Grouper {
	return &Grouper{comparer: comparer, threshold: threshold}
}

// Group clusters candidates into duplicate groups. check is polled
// between comparisons so callers can pause or stop a long run; a
// non-nil return aborts with that error. Results are deterministic for
// a given candidate set.
func (g *Grouper) Group(candidates []Candidate, check func() error) ([]Group, error) {
	if check == nil {
		check = func() error { return nil }
	}

	ordered := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Signature == "" {
			continue
		}
		ordered = append(ordered, cand)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Record.Path < ordered[j].Record.Path
	})

	groups, grouped, err := g.exactGroups(ordered, check)
	if err != nil {
		return nil, err
	}

	fuzzy, err := g.fuzzyGroups(ordered, grouped, check)
	if err != nil {
		return nil, err
	}
	groups = append(groups, fuzzy...)
	return groups, nil
}

// exactGroups collects candidates whose signatures are identical.
// Members of an exact group are excluded from the fuzzy phase.
func (g *Grouper) exactGroups(ordered []Candidate, check func() error) ([]Group, map[string]bool, error) {
	bySignature := make(map[string][]Candidate)
	signatures := make([]string, 0)
	for _, cand := range ordered {
		if _, seen := bySignature[cand.Signature]; !seen {
			signatures = append(signatures, cand.Signature)
		}
		bySignature[cand.Signature] = append(bySignature[cand.Signature], cand)
	}
	sort.Strings(signatures)

	var groups []Group
	grouped := make(map[string]bool)
	for _, sig := range signatures {
		if err := check(); err != nil {
			return nil, nil, err
		}
		members := bySignature[sig]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, Group{Members: members, Similarity: 1.0, HashValue: sig})
		for _, member := range members {
			grouped[member.Record.Path] = true
		}
	}
	return groups, grouped, nil
}

// fuzzyGroups compares the remaining candidates inside locality
// buckets. An empty bucket key marks an exact-only category and skips
// the candidate entirely.
func (g *Grouper) fuzzyGroups(ordered []Candidate, grouped map[string]bool, check func() error) ([]Group, error) {
	buckets := make(map[string][]Candidate)
	keys := make([]string, 0)
	for _, cand := range ordered {
		if grouped[cand.Record.Path] {
			continue
		}
		key := g.comparer.BucketKey(cand.Signature)
		if key == "" {
			continue
		}
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], cand)
	}
	sort.Strings(keys)

	var groups []Group
	for _, key := range keys {
		bucketGroups, err := g.groupBucket(buckets[key], check)
		if err != nil {
			return nil, err
		}
		groups = append(groups, bucketGroups...)
	}
	return groups, nil
}

// groupBucket greedily grows groups within one bucket. A candidate
// joins only when it clears the threshold against every member already
// in the group; the group's similarity is the weakest accepted score.
// A file joins at most one group: once a candidate is claimed it is
// never reconsidered, so a file that matches some but not all members
// of an earlier group may end up in no group at all.
func (g *Grouper) groupBucket(bucket []Candidate, check func() error) ([]Group, error) {
	var groups []Group
	used := make([]bool, len(bucket))
	for i := range bucket {
		if used[i] {
			continue
		}
		if err := check(); err != nil {
			return nil, err
		}

		group := Group{Members: []Candidate{bucket[i]}, Similarity: 1.0}
		used[i] = true
		for j := i + 1; j < len(bucket); j++ {
			if used[j] {
				continue
			}
			if err := check(); err != nil {
				return nil, err
			}
			score, ok := g.matchesAll(group.Members, bucket[j])
			if !ok {
				continue
			}
			group.Members = append(group.Members, bucket[j])
			used[j] = true
			if score < group.Similarity {
				group.Similarity = score
			}
		}
		if len(group.Members) >= 2 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

// matchesAll scores a candidate against every group member and returns
// the weakest score. ok is false when any pairing falls below the
// threshold.
func (g *Grouper) matchesAll(members []Candidate, cand Candidate) (float64, bool) {
	lowest := 1.0
	for _, member := range members {
		score := g.comparer.CompareSignatures(member.Signature, cand.Signature)
		if score < g.threshold {
			return 0, false
		}
		if score < lowest {
			lowest = score
		}
	}
	return lowest, true
}
