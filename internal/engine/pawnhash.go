package engine

// PawnEntry stores a cached pawn-structure score.
type PawnEntry struct {
	Key   uint64
	Score int32
	valid bool
}

// PawnTable caches pawn-structure scores by pawn key. Pawn placements
// change far less often than positions, so most lookups hit.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a new pawn hash table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	numEntries := sizeMB * 1024 * 1024 / 16

	// Round down to power of 2
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}

	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the cached score for key.
func (pt *PawnTable) Probe(key uint64) (int, bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.valid && entry.Key == key {
		return int(entry.Score), true
	}
	return 0, false
}

// Store saves a score, replacing the slot.
func (pt *PawnTable) Store(key uint64, score int) {
	pt.entries[key&pt.mask] = PawnEntry{Key: key, Score: int32(score), valid: true}
}

// Clear clears the pawn hash table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
