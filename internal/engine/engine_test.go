package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hailam/negachess/internal/board"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

var (
	tablesOnce sync.Once
	tables     *board.Tables
	tablesErr  error
)

func testTables(t testing.TB) *board.Tables {
	t.Helper()
	tablesOnce.Do(func() {
		tables, tablesErr = board.NewTables(board.DefaultSeed)
	})
	if tablesErr != nil {
		t.Fatalf("NewTables: %v", tablesErr)
	}
	return tables
}

func mustFEN(t testing.TB, fen string) *board.Position {
	t.Helper()
	p, err := board.ParseFEN(testTables(t), fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return p
}

func newTestEngine(t testing.TB, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(testTables(t), opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.HashMB = 4
	return opts
}

func TestSearchFindsMate(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want string
		mate int
	}{
		{"back rank", "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", "a1a8", 1},
		{"queen and king", "7k/8/6K1/8/8/8/8/1Q6 w - - 0 1", "b1b8", 1},
		{"black to move", "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", "a8a1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, smallOptions())
			res := e.Search(context.Background(), mustFEN(t, tt.fen), Limits{Depth: 4})
			if res.Move.String() != tt.want {
				t.Errorf("best move = %s, want %s", res.Move, tt.want)
			}
			if n, ok := MateIn(res.Score); !ok || n != tt.mate {
				t.Errorf("score %d (%s), want mate %d", res.Score, FormatScore(res.Score), tt.mate)
			}
		})
	}
}

func TestSearchWinsHangingQueen(t *testing.T) {
	e := newTestEngine(t, smallOptions())
	res := e.Search(context.Background(), mustFEN(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1"), Limits{Depth: 3})
	if res.Move.String() != "e4d5" {
		t.Errorf("best move = %s, want e4d5", res.Move)
	}
	if res.Score <= 0 {
		t.Errorf("score = %d, want white ahead after the capture", res.Score)
	}
}

func TestTerminalScores(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want int
	}{
		{"checkmate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", -MateValue},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, smallOptions())
			res := e.Search(context.Background(), mustFEN(t, tt.fen), Limits{Depth: 3})
			if res.Score != tt.want {
				t.Errorf("score = %d, want %d", res.Score, tt.want)
			}
			if res.Move != board.NoMove {
				t.Errorf("best move = %s, want none", res.Move)
			}
		})
	}
}

func TestMatedScoreDependsOnPly(t *testing.T) {
	e := newTestEngine(t, smallOptions())
	s := e.newSearcher(context.Background(), mustFEN(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"))
	for _, ply := range []int{0, 1, 5} {
		if got := s.negamax(2, ply, -Infinity, Infinity); got != -MateValue+ply {
			t.Errorf("ply %d: score = %d, want %d", ply, got, -MateValue+ply)
		}
	}
}

func TestNegamaxStaysInWindow(t *testing.T) {
	fens := []string{
		board.StartFEN,
		kiwipete,
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
	}
	windows := [][2]int{
		{-Infinity, Infinity},
		{-50, 50},
		{0, 1},
		{200, 400},
		{-400, -200},
		{-MateValue, -MateScore},
	}

	e := newTestEngine(t, smallOptions())
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		for _, w := range windows {
			e.Clear()
			s := e.newSearcher(context.Background(), pos)
			got := s.negamax(3, 0, w[0], w[1])
			if got < w[0] || got > w[1] {
				t.Errorf("%s window [%d, %d]: score %d outside", fen, w[0], w[1], got)
			}
			if s.pos.Hash != pos.Hash || s.pos.ToFEN() != pos.ToFEN() {
				t.Errorf("%s: search left the position changed", fen)
			}
		}
	}
}

func TestRepeatedSearchIsIdempotent(t *testing.T) {
	for _, fen := range []string{board.StartFEN, kiwipete} {
		e := newTestEngine(t, smallOptions())
		pos := mustFEN(t, fen)

		first := e.Search(context.Background(), pos, Limits{Depth: 4})
		e.Clear()
		second := e.Search(context.Background(), pos, Limits{Depth: 4})

		if first.Move != second.Move || first.Score != second.Score {
			t.Errorf("%s: first %s (%d), second %s (%d)", fen, first.Move, first.Score, second.Move, second.Score)
		}
		if first.Depth != 4 {
			t.Errorf("%s: depth = %d, want 4", fen, first.Depth)
		}
	}
}

func TestSearchReportsEachIteration(t *testing.T) {
	e := newTestEngine(t, smallOptions())
	var depths []int
	e.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		if len(info.PV) == 0 {
			t.Errorf("depth %d: empty PV", info.Depth)
		}
	}
	pos := mustFEN(t, board.StartFEN)
	res := e.Search(context.Background(), pos, Limits{Depth: 3})

	if len(depths) != 3 || depths[0] != 1 || depths[2] != 3 {
		t.Errorf("iterations = %v, want [1 2 3]", depths)
	}

	// The PV must be playable from the root.
	p := pos.Clone()
	for _, m := range res.PV {
		if !p.MakeMove(m) {
			t.Fatalf("PV move %s is illegal", m)
		}
	}
}

func TestSearchStop(t *testing.T) {
	opts := smallOptions()
	opts.NodeCheckInterval = 1
	e := newTestEngine(t, opts)
	e.OnInfo = func(info SearchInfo) {
		if info.Depth == 2 {
			e.Stop()
		}
	}

	pos := mustFEN(t, board.StartFEN)
	res := e.Search(context.Background(), pos, Limits{Infinite: true})
	if res.Depth != 2 {
		t.Errorf("depth = %d, want the last completed iteration 2", res.Depth)
	}
	if res.Move == board.NoMove || !contains(pos.LegalMoves(), res.Move) {
		t.Errorf("best move %s is not legal", res.Move)
	}
}

func TestSearchCancelledContext(t *testing.T) {
	e := newTestEngine(t, smallOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pos := mustFEN(t, kiwipete)
	res := e.Search(ctx, pos, Limits{Infinite: true})
	if res.Depth != 0 {
		t.Errorf("depth = %d, want 0", res.Depth)
	}
	if !contains(pos.LegalMoves(), res.Move) {
		t.Errorf("fallback move %s is not legal", res.Move)
	}
}

func TestSearchMoveTime(t *testing.T) {
	e := newTestEngine(t, smallOptions())
	start := time.Now()
	res := e.Search(context.Background(), mustFEN(t, kiwipete), Limits{MoveTime: 100 * time.Millisecond})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("search took %v with a 100ms budget", elapsed)
	}
	if res.Move == board.NoMove {
		t.Error("no move returned")
	}
}

func TestSearchAvoidsRepetitionWhenWinning(t *testing.T) {
	// White is a queen up; shuffling back into a repeated position scores
	// zero, so the engine must pick something else.
	pos := mustFEN(t, "7k/8/8/8/8/8/6Q1/K7 w - - 0 1")
	for _, s := range []string{"g2g3", "h8h7", "g3g2", "h7h8"} {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		pos.MakeMove(m)
	}
	e := newTestEngine(t, smallOptions())
	res := e.Search(context.Background(), pos, Limits{Depth: 4})
	if res.Score <= 0 {
		t.Errorf("score = %d, want a winning score", res.Score)
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "cp 0"},
		{35, "cp 35"},
		{-120, "cp -120"},
		{MateValue - 1, "mate 1"},
		{MateValue - 3, "mate 2"},
		{MateValue - 5, "mate 3"},
		{-MateValue + 2, "mate -1"},
		{-MateValue + 4, "mate -2"},
	}
	for _, tt := range tests {
		if got := FormatScore(tt.score); got != tt.want {
			t.Errorf("FormatScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestNewEngineRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.HashMB = 0
	if _, err := NewEngine(testTables(t), opts); err == nil {
		t.Error("NewEngine accepted a zero hash size")
	}

	e := newTestEngine(t, smallOptions())
	bad := e.Options()
	bad.NodeCheckInterval = 0
	if err := e.SetOptions(bad); err == nil {
		t.Error("SetOptions accepted a zero node check interval")
	}

	good := e.Options()
	good.HashMB = 2
	if err := e.SetOptions(good); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if got, want := e.tt.Size(), 2*1024*1024/16; got != want {
		t.Errorf("table size = %d, want %d", got, want)
	}
}

func TestEvaluate(t *testing.T) {
	if got := Evaluate(mustFEN(t, board.StartFEN), nil); got != 0 {
		t.Errorf("start position = %d, want 0", got)
	}

	// White up a rook.
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	if got := Evaluate(pos, nil); got < 400 {
		t.Errorf("white to move = %d, want a rook ahead", got)
	}
	black := mustFEN(t, "4k3/8/8/8/8/8/8/R3K3 b - - 0 1")
	if got, want := Evaluate(black, nil), -Evaluate(pos, nil); got != want {
		t.Errorf("black to move = %d, want %d", got, want)
	}
}

func TestEvaluateIsColorSymmetric(t *testing.T) {
	pt := NewPawnTable(1)
	for _, fen := range []string{
		kiwipete,
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	} {
		pos := mustFEN(t, fen)
		mirrored := mustFEN(t, mirrorFEN(fen))
		if a, b := Evaluate(pos, pt), Evaluate(mirrored, pt); a != b {
			t.Errorf("%s: %d, mirrored %d", fen, a, b)
		}
	}
}

func TestPawnTableCachesStructure(t *testing.T) {
	pos := mustFEN(t, "4k3/p1p5/8/3p4/3P4/P7/P7/4K3 w - - 0 1")
	pt := NewPawnTable(1)

	want := pawnStructure(pos, nil)
	key := pos.PawnKey
	if _, ok := pt.Probe(key); ok {
		t.Fatal("hit in an empty table")
	}
	if got := pawnStructure(pos, pt); got != want {
		t.Errorf("first call = %d, want %d", got, want)
	}
	if got, ok := pt.Probe(key); !ok || got != want {
		t.Errorf("cached = %d, %v; want %d, true", got, ok, want)
	}
	pt.Clear()
	if _, ok := pt.Probe(key); ok {
		t.Error("hit after Clear")
	}
}

func TestKingFilePenalty(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want int
	}{
		{"sheltered", "4k3/8/8/8/8/8/3PPP2/4K3 w - - 0 1", 0},
		{"neighbour file half open", "4k3/8/8/8/8/3p4/4PP2/4K3 w - - 0 1", semiOpenFileScore},
		{"neighbour file open", "4k3/8/8/8/8/8/4PP2/4K3 w - - 0 1", semiOpenFileScore + openFileScore},
		{"edge king", "4k3/8/8/8/8/8/6PP/7K w - - 0 1", 0},
		{"bare", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", 3 * (semiOpenFileScore + openFileScore)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			own := pos.Pieces[board.WhitePawn]
			all := own | pos.Pieces[board.BlackPawn]
			if got := kingFilePenalty(pos.KingSquare(board.White), own, all); got != tt.want {
				t.Errorf("penalty = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimeManager(t *testing.T) {
	var tm TimeManager

	tm.Init(Limits{MoveTime: 250 * time.Millisecond}, board.White, 0)
	if !tm.Limited() || tm.OptimumTime() != 250*time.Millisecond || tm.MaximumTime() != 250*time.Millisecond {
		t.Errorf("movetime: limited=%v opt=%v max=%v", tm.Limited(), tm.OptimumTime(), tm.MaximumTime())
	}

	tm.Init(Limits{Infinite: true, Time: [2]time.Duration{time.Minute, time.Minute}}, board.White, 20)
	if tm.Limited() || tm.ShouldStop() || tm.PastOptimum() {
		t.Error("infinite search is limited")
	}

	tm.Init(Limits{Time: [2]time.Duration{time.Minute, 10 * time.Second}, MovesToGo: 20}, board.Black, 40)
	if !tm.Limited() {
		t.Fatal("clock search is not limited")
	}
	if opt := tm.OptimumTime(); opt != 500*time.Millisecond {
		t.Errorf("optimum = %v, want 500ms", opt)
	}
	if hard := tm.MaximumTime(); hard > 8*time.Second || hard < tm.OptimumTime() {
		t.Errorf("maximum = %v", hard)
	}
}

func mirrorFEN(fen string) string {
	fields := strings.Fields(fen)
	ranks := strings.Split(fields[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	fields[0] = swapCase(strings.Join(ranks, "/"))

	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	if fields[2] != "-" {
		fields[2] = swapCase(fields[2])
	}
	if ep := fields[3]; ep != "-" {
		fields[3] = string(ep[0]) + string('1'+'8'-ep[1])
	}
	return strings.Join(fields, " ")
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, s)
}

func contains(moves []board.Move, m board.Move) bool {
	for _, x := range moves {
		if x == m {
			return true
		}
	}
	return false
}
