package board

// PerftCache memoizes subtree counts by position hash and depth.
type PerftCache interface {
	Get(hash uint64, depth int) (nodes uint64, ok bool, err error)
	Put(hash uint64, depth int, nodes uint64) error
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var ml MoveList
	p.GenerateMoves(&ml)

	var nodes uint64
	for _, m := range ml.Slice() {
		s := p.Snapshot()
		if !p.MakeMove(m) {
			continue
		}
		if depth == 1 {
			nodes++
		} else {
			nodes += p.Perft(depth - 1)
		}
		p.Restore(s)
	}
	return nodes
}

// PerftCached is Perft with subtree counts looked up in and written to
// cache. Interior nodes of depth 2 or more are cached.
func (p *Position) PerftCached(depth int, cache PerftCache) (uint64, error) {
	if depth < 2 {
		return p.Perft(depth), nil
	}
	if n, ok, err := cache.Get(p.Hash, depth); err != nil {
		return 0, err
	} else if ok {
		return n, nil
	}

	var ml MoveList
	p.GenerateMoves(&ml)

	var nodes uint64
	for _, m := range ml.Slice() {
		s := p.Snapshot()
		if !p.MakeMove(m) {
			continue
		}
		n, err := p.PerftCached(depth-1, cache)
		p.Restore(s)
		if err != nil {
			return 0, err
		}
		nodes += n
	}
	if err := cache.Put(p.Hash, depth, nodes); err != nil {
		return 0, err
	}
	return nodes, nil
}

// DivideEntry is the subtree count under one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide returns the perft count under each legal root move, in generation
// order.
func (p *Position) Divide(depth int) []DivideEntry {
	if depth < 1 {
		return nil
	}
	var out []DivideEntry
	for _, m := range p.LegalMoves() {
		s := p.Snapshot()
		p.MakeMove(m)
		out = append(out, DivideEntry{Move: m, Nodes: p.Perft(depth - 1)})
		p.Restore(s)
	}
	return out
}
