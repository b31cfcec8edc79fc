package engine

import "testing"

func TestTranspositionProbe(t *testing.T) {
	tt := NewTranspositionTable(1)
	const hash = 0xDEADBEEFCAFEF00D

	if _, ok := tt.Probe(hash, -Infinity, Infinity, 0, 0); ok {
		t.Fatal("hit in an empty table")
	}

	tests := []struct {
		name        string
		score       int
		flag        TTFlag
		alpha, beta int
		depth       int
		want        int
		hit         bool
	}{
		{"exact", 42, TTExact, -100, 100, 4, 42, true},
		{"exact shallower request", 42, TTExact, -100, 100, 2, 42, true},
		{"too shallow", 42, TTExact, -100, 100, 6, 0, false},
		{"upper bound below alpha", -50, TTUpperBound, 0, 100, 4, 0, true},
		{"upper bound inside window", 50, TTUpperBound, 0, 100, 4, 0, false},
		{"lower bound above beta", 150, TTLowerBound, 0, 100, 4, 100, true},
		{"lower bound inside window", 50, TTLowerBound, 0, 100, 4, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt.Store(hash, tc.score, 4, tc.flag, 0)
			got, ok := tt.Probe(hash, tc.alpha, tc.beta, tc.depth, 0)
			if ok != tc.hit || (ok && got != tc.want) {
				t.Errorf("Probe = %d, %v; want %d, %v", got, ok, tc.want, tc.hit)
			}
		})
	}
}

func TestTranspositionAlwaysReplaces(t *testing.T) {
	tt := NewTranspositionTable(1)
	a := uint64(12345)
	b := a + uint64(tt.Size()) // same slot

	tt.Store(a, 10, 8, TTExact, 0)
	tt.Store(b, 20, 1, TTExact, 0)

	if _, ok := tt.Probe(a, -Infinity, Infinity, 0, 0); ok {
		t.Error("deeper entry survived a colliding store")
	}
	if got, ok := tt.Probe(b, -Infinity, Infinity, 1, 0); !ok || got != 20 {
		t.Errorf("Probe = %d, %v; want 20, true", got, ok)
	}

	tt.Clear()
	if _, ok := tt.Probe(b, -Infinity, Infinity, 0, 0); ok {
		t.Error("hit after Clear")
	}
	if tt.HashFull() != 0 {
		t.Errorf("HashFull = %d after Clear", tt.HashFull())
	}
}

func TestTranspositionMateDistance(t *testing.T) {
	tt := NewTranspositionTable(1)
	const hash = 99

	// Mate in 5 plies from the root, found at ply 3: 2 plies from the node.
	tt.Store(hash, MateValue-5, 4, TTExact, 3)
	if got := tt.entries[hash%tt.size].Score; got != MateValue-2 {
		t.Errorf("stored %d, want %d", got, MateValue-2)
	}
	// Reached again at ply 1 it is mate 3 plies from the root.
	if got, _ := tt.Probe(hash, -Infinity, Infinity, 4, 1); got != MateValue-3 {
		t.Errorf("probe at ply 1 = %d, want %d", got, MateValue-3)
	}

	tt.Store(hash, -MateValue+6, 4, TTExact, 2)
	if got, _ := tt.Probe(hash, -Infinity, Infinity, 4, 4); got != -MateValue+8 {
		t.Errorf("mated probe at ply 4 = %d, want %d", got, -MateValue+8)
	}

	tt.Store(hash, 300, 4, TTExact, 7)
	if got, _ := tt.Probe(hash, -Infinity, Infinity, 4, 2); got != 300 {
		t.Errorf("plain score shifted to %d", got)
	}
}
