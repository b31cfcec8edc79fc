package board

import (
	"fmt"
	"testing"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func TestPerft(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		counts []uint64 // counts[i] is perft(i+1)
		slow   int      // deeper counts are skipped with -short
	}{
		{"start", StartFEN, []uint64{20, 400, 8902, 197281, 4865609}, 4},
		{"kiwipete", kiwipete, []uint64{48, 2039, 97862, 4085603, 193690690}, 3},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []uint64{14, 191, 2812, 43238, 674624}, 4},
		{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467, 422333}, 3},
		{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379}, 3},
		{"en passant pin", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []uint64{6, 94}, 2},
	}

	for _, tc := range tests {
		for i, want := range tc.counts {
			depth := i + 1
			t.Run(fmt.Sprintf("%s/depth%d", tc.name, depth), func(t *testing.T) {
				if depth > tc.slow && testing.Short() {
					t.Skip("deep perft")
				}
				pos := mustFEN(t, tc.fen)
				before := pos.ToFEN()
				if got := pos.Perft(depth); got != want {
					t.Errorf("perft(%d) = %d, want %d", depth, got, want)
				}
				if after := pos.ToFEN(); after != before {
					t.Errorf("position changed by perft: %s -> %s", before, after)
				}
			})
		}
	}
}

type mapCache struct {
	m    map[[2]uint64]uint64
	hits int
}

func (c *mapCache) Get(hash uint64, depth int) (uint64, bool, error) {
	n, ok := c.m[[2]uint64{hash, uint64(depth)}]
	if ok {
		c.hits++
	}
	return n, ok, nil
}

func (c *mapCache) Put(hash uint64, depth int, nodes uint64) error {
	c.m[[2]uint64{hash, uint64(depth)}] = nodes
	return nil
}

func TestPerftCachedMatchesPerft(t *testing.T) {
	pos := mustFEN(t, kiwipete)
	cache := &mapCache{m: map[[2]uint64]uint64{}}

	got, err := pos.PerftCached(3, cache)
	if err != nil {
		t.Fatal(err)
	}
	if got != 97862 {
		t.Errorf("PerftCached(3) = %d, want 97862", got)
	}

	again, err := pos.PerftCached(3, cache)
	if err != nil {
		t.Fatal(err)
	}
	if again != got || cache.hits == 0 {
		t.Errorf("second run = %d with %d hits", again, cache.hits)
	}
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := mustFEN(t, kiwipete)
	var sum uint64
	entries := pos.Divide(2)
	for _, e := range entries {
		sum += e.Nodes
	}
	if len(entries) != 48 || sum != 2039 {
		t.Errorf("divide: %d moves summing to %d, want 48 and 2039", len(entries), sum)
	}
}
