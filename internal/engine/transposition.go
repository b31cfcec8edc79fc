package engine

// TTFlag indicates the type of bound stored in the transposition table.
// The zero value marks an empty slot.
type TTFlag uint8

const (
	TTExact      TTFlag = iota + 1 // score inside the window
	TTUpperBound                   // failed low, true score <= stored
	TTLowerBound                   // failed high, true score >= stored
)

// TTEntry is one slot: 16 bytes.
type TTEntry struct {
	Key   uint64
	Score int32
	Depth int16
	Flag  TTFlag
}

// TranspositionTable is a direct-mapped cache of search results. A store
// always replaces whatever occupied the slot; a lookup with a different key
// is simply a miss.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	n := uint64(sizeMB) * 1024 * 1024 / 16
	if n == 0 {
		n = 1
	}
	return &TranspositionTable{
		entries: make([]TTEntry, n),
		size:    n,
	}
}

// Probe returns a usable score for the position if the slot holds this hash
// at sufficient depth and the stored bound decides the window (alpha, beta).
// Bound hits return alpha or beta, matching the fail-hard search.
func (tt *TranspositionTable) Probe(hash uint64, alpha, beta, depth, ply int) (int, bool) {
	e := &tt.entries[hash%tt.size]
	if e.Flag == 0 || e.Key != hash || int(e.Depth) < depth {
		return 0, false
	}

	score := scoreFromTT(int(e.Score), ply)
	switch e.Flag {
	case TTExact:
		return score, true
	case TTUpperBound:
		if score <= alpha {
			return alpha, true
		}
	case TTLowerBound:
		if score >= beta {
			return beta, true
		}
	}
	return 0, false
}

// Store saves a search result, overwriting the slot.
func (tt *TranspositionTable) Store(hash uint64, score, depth int, flag TTFlag, ply int) {
	tt.entries[hash%tt.size] = TTEntry{
		Key:   hash,
		Score: int32(scoreToTT(score, ply)),
		Depth: int16(depth),
		Flag:  flag,
	}
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
}

// Size returns the number of slots.
func (tt *TranspositionTable) Size() int {
	return int(tt.size)
}

// HashFull returns the used share of the first thousand slots, in permille.
func (tt *TranspositionTable) HashFull() int {
	n := min(tt.size, 1000)
	used := 0
	for i := uint64(0); i < n; i++ {
		if tt.entries[i].Flag != 0 {
			used++
		}
	}
	return used * 1000 / int(n)
}

// scoreToTT converts a mate score from distance-to-root into
// distance-to-this-node before storing.
func scoreToTT(score, ply int) int {
	if score > MateScore {
		return score + ply
	}
	if score < -MateScore {
		return score - ply
	}
	return score
}

// scoreFromTT undoes scoreToTT for a node at the given ply.
func scoreFromTT(score, ply int) int {
	if score > MateScore {
		return score - ply
	}
	if score < -MateScore {
		return score + ply
	}
	return score
}
