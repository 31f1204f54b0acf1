package solver

import "math/rand"

const hashTableSize = 1 << 16

// hasher fingerprints tours. Each node id gets a pseudorandom value from the
// run's seeded RNG; a tour's hash is the XOR over its edges of rand[a]*rand[b],
// which is order independent and can be maintained incrementally across moves.
type hasher struct {
	rnd []uint64
}

func newHasher(dimension int, rng *rand.Rand) *hasher {
	h := &hasher{rnd: make([]uint64, dimension+1)}
	for i := 1; i <= dimension; i++ {
		h.rnd[i] = rng.Uint64() | 1
	}
	return h
}

// edge returns the fingerprint contribution of one tour edge.
func (h *hasher) edge(a, b *Node) uint64 {
	return h.rnd[a.Id] * h.rnd[b.Id]
}

// hashEntry is one occupied slot: a fingerprint plus the tour cost, so that
// colliding fingerprints of different tours never read as duplicates.
type hashEntry struct {
	hash uint64
	cost int64
	used bool
}

// hashTable is a fixed-size open-addressed table of (hash, cost) pairs seen
// during a run. It is bounded: once full, further inserts overwrite the
// probed slot, which only weakens duplicate detection, never correctness.
type hashTable struct {
	slots [hashTableSize]hashEntry
}

func newHashTable() *hashTable {
	return &hashTable{}
}

// insert records a (hash, cost) pair.
func (t *hashTable) insert(hash uint64, cost int64) {
	i := hash % hashTableSize
	for probe := 0; probe < 8; probe++ {
		s := &t.slots[(i+uint64(probe))%hashTableSize]
		if !s.used || (s.hash == hash && s.cost == cost) {
			s.hash = hash
			s.cost = cost
			s.used = true
			return
		}
	}
	s := &t.slots[i]
	s.hash = hash
	s.cost = cost
	s.used = true
}

// contains reports whether the exact (hash, cost) pair was seen. A matching
// hash with a different cost is a collision, not a duplicate.
func (t *hashTable) contains(hash uint64, cost int64) bool {
	i := hash % hashTableSize
	for probe := 0; probe < 8; probe++ {
		s := &t.slots[(i+uint64(probe))%hashTableSize]
		if !s.used {
			return false
		}
		if s.hash == hash && s.cost == cost {
			return true
		}
	}
	return false
}
