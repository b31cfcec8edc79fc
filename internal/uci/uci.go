// Package uci speaks the Universal Chess Interface protocol over a pair of
// streams, driving an engine.Engine.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/negachess/internal/board"
	"github.com/hailam/negachess/internal/engine"
	"github.com/hailam/negachess/internal/render"
)

const (
	engineName   = "negachess"
	engineAuthor = "the negachess authors"
	svgSize      = 480
)

// errQuit ends the dispatcher without reporting an error.
var errQuit = errors.New("quit")

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	eng    *engine.Engine
	tables *board.Tables
	out    *writer

	// Dispatcher state; only the dispatcher goroutine touches these.
	position *board.Position
	lastMove board.Move
	search   *search
	group    *errgroup.Group
	ctx      context.Context
}

// search tracks one running "go" command.
type search struct {
	id       string
	infinite bool
	done     chan struct{}
	cancel   context.CancelFunc
}

// writer serializes output lines from the dispatcher and the search.
type writer struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func (w *writer) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format+"\n", args...)
}

// New creates a protocol handler. The engine must have been built over
// tables.
func New(eng *engine.Engine, tables *board.Tables) *UCI {
	return &UCI{
		eng:      eng,
		tables:   tables,
		position: board.NewPosition(tables),
	}
}

// Run reads commands from in and writes responses to out until "quit", end
// of input, or ctx is cancelled. A running search is stopped and its
// bestmove written before Run returns.
func (u *UCI) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	u.out = &writer{w: out}
	logger := zerolog.Ctx(ctx)

	g, gctx := errgroup.WithContext(ctx)
	u.group, u.ctx = g, gctx
	u.eng.OnInfo = u.sendInfo

	// The reader is not part of the group: a blocked read on a terminal
	// cannot be interrupted, and quitting must not wait for it.
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-gctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	g.Go(func() error {
		err := u.loop(gctx, lines, readErr)
		if errors.Is(err, errQuit) {
			u.stopSearch()
			return nil
		}
		u.finishSearch()
		return err
	})

	err := g.Wait()
	if err == nil {
		err = u.out.err
	}
	if err != nil {
		logger.Error().Err(err).Msg("protocol loop ended")
	}
	return err
}

// loop feeds input lines to dispatch until end of input or cancellation.
func (u *UCI) loop(ctx context.Context, lines <-chan string, readErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := u.dispatch(line); err != nil {
				return err
			}
		}
	}
}

// dispatch handles one input line.
func (u *UCI) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	zerolog.Ctx(u.ctx).Trace().Str("cmd", line).Msg("command received")

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.out.printf("readyok")
	case "ucinewgame":
		u.stopSearch()
		u.eng.Clear()
		u.position = board.NewPosition(u.tables)
		u.lastMove = board.NoMove
	case "position":
		u.stopSearch()
		u.handlePosition(args)
	case "go":
		u.stopSearch()
		u.handleGo(args)
	case "stop":
		u.stopSearch()
	case "quit":
		return errQuit
	case "setoption":
		u.stopSearch()
		u.handleSetOption(args)
	// Debug commands
	case "d":
		u.out.printf("%s", u.position)
	case "perft":
		u.stopSearch()
		u.handlePerft(args)
	case "svg":
		u.handleSVG(args)
	default:
		u.infoString("unknown command: %s", cmd)
	}
	return nil
}

func (u *UCI) infoString(format string, args ...any) {
	u.out.printf("info string "+format, args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	def := engine.DefaultOptions()
	u.out.printf("id name %s", engineName)
	u.out.printf("id author %s", engineAuthor)
	u.out.printf("option name Hash type spin default %d min 1 max 4096", def.HashMB)
	u.out.printf("option name PawnHash type spin default %d min 0 max 256", def.PawnHashMB)
	u.out.printf("option name NullMoveReduction type spin default %d min 0 max 4", def.NullMoveReduction)
	u.out.printf("option name LMRFullDepthMoves type spin default %d min 1 max 64", def.LMRFullDepthMoves)
	u.out.printf("option name LMRDepthLimit type spin default %d min 2 max 16", def.LMRDepthLimit)
	u.out.printf("option name AspirationWindow type spin default %d min 1 max 1000", def.AspirationWindow)
	u.out.printf("option name Clear Hash type button")
	u.out.printf("uciok")
}

// handlePosition sets up a position.
// Formats:
//   - position startpos [moves e2e4 e7e5 ...]
//   - position fen <fen> [moves ...]
//
// The current position is replaced only if the whole command is valid.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		u.infoString("position: missing arguments")
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition(u.tables)
	case "fen":
		var err error
		pos, err = board.ParseFEN(u.tables, strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.infoString("invalid fen: %v", err)
			return
		}
	default:
		u.infoString("position: expected startpos or fen, got %q", args[0])
		return
	}

	last := board.NoMove
	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := pos.ParseMove(s)
			if err != nil {
				u.infoString("%v", err)
				return
			}
			pos.MakeMove(m)
			last = m
		}
	}

	u.position = pos
	u.lastMove = last
	u.eng.Clear()
}

// parseLimits parses "go" command arguments.
func parseLimits(args []string) (engine.Limits, error) {
	var limits engine.Limits

	next := func(i int) (int, error) {
		if i+1 >= len(args) {
			return 0, fmt.Errorf("go %s: missing value", args[i])
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("go %s: bad value %q", args[i], args[i+1])
		}
		return n, nil
	}
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	for i := 0; i < len(args); i++ {
		if args[i] == "infinite" {
			limits.Infinite = true
			continue
		}
		n, err := next(i)
		if err != nil {
			return limits, err
		}
		switch args[i] {
		case "depth":
			limits.Depth = n
		case "movetime":
			limits.MoveTime = ms(n)
		case "wtime":
			limits.Time[board.White] = ms(n)
		case "btime":
			limits.Time[board.Black] = ms(n)
		case "winc":
			limits.Inc[board.White] = ms(n)
		case "binc":
			limits.Inc[board.Black] = ms(n)
		case "movestogo":
			limits.MovesToGo = n
		default:
			return limits, fmt.Errorf("go: unsupported parameter %q", args[i])
		}
		i++
	}
	return limits, nil
}

// handleGo starts a search in the background. Its bestmove line is written
// when it finishes, or, for "go infinite", once "stop" arrives.
func (u *UCI) handleGo(args []string) {
	limits, err := parseLimits(args)
	if err != nil {
		u.infoString("%v", err)
		return
	}

	s := &search{
		id:       uuid.NewString(),
		infinite: limits.Infinite,
		done:     make(chan struct{}),
	}
	logger := zerolog.Ctx(u.ctx).With().Str("search", s.id).Logger()
	ctx, cancel := context.WithCancel(logger.WithContext(u.ctx))
	s.cancel = cancel
	u.search = s
	pos := u.position.Clone()

	u.group.Go(func() error {
		defer close(s.done)

		res := u.eng.Search(ctx, pos, limits)
		if limits.Infinite {
			<-ctx.Done()
		}
		u.out.printf("bestmove %s", res.Move)
		return nil
	})
}

// stopSearch stops the running search, if any, and waits for its bestmove.
func (u *UCI) stopSearch() {
	s := u.search
	if s == nil {
		return
	}
	// Cancelling the context cannot be lost, unlike a Stop that lands
	// before the search has started.
	s.cancel()
	<-s.done
	u.search = nil
}

// finishSearch waits for a running search to end on its own. An infinite
// search never does, so it is stopped.
func (u *UCI) finishSearch() {
	if s := u.search; s != nil && !s.infinite {
		<-s.done
	}
	u.stopSearch()
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d score %s nodes %d time %d",
		info.Depth, engine.FormatScore(info.Score), info.Nodes, info.Time.Milliseconds())
	if info.Time > 0 {
		fmt.Fprintf(&sb, " nps %d", uint64(float64(info.Nodes)/info.Time.Seconds()))
	}
	if info.HashFull > 0 {
		fmt.Fprintf(&sb, " hashfull %d", info.HashFull)
	}
	if len(info.PV) > 0 {
		sb.WriteString(" pv")
		for _, m := range info.PV {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	u.out.printf("%s", sb.String())
}

// handleSetOption processes "setoption name <name> [value <value>]".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, arg)
		}
	}
	key := strings.ToLower(strings.Join(name, " "))

	if key == "clear hash" {
		u.eng.Clear()
		return
	}

	n, err := strconv.Atoi(strings.Join(value, " "))
	if err != nil {
		u.infoString("setoption %s: bad value %q", strings.Join(name, " "), strings.Join(value, " "))
		return
	}

	opts := u.eng.Options()
	switch key {
	case "hash":
		opts.HashMB = n
	case "pawnhash":
		opts.PawnHashMB = n
	case "nullmovereduction":
		opts.NullMoveReduction = n
	case "lmrfulldepthmoves":
		opts.LMRFullDepthMoves = n
	case "lmrdepthlimit":
		opts.LMRDepthLimit = n
	case "aspirationwindow":
		opts.AspirationWindow = n
	default:
		u.infoString("unknown option %q", strings.Join(name, " "))
		return
	}
	if err := u.eng.SetOptions(opts); err != nil {
		u.infoString("%v", err)
	}
}

// handlePerft prints the divided perft count of the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			u.infoString("perft: bad depth %q", args[0])
			return
		}
		depth = n
	}

	start := time.Now()
	var total uint64
	for _, e := range u.position.Divide(depth) {
		u.out.printf("%s: %d", e.Move, e.Nodes)
		total += e.Nodes
	}
	elapsed := time.Since(start)

	u.out.printf("")
	u.out.printf("Nodes: %d", total)
	u.out.printf("Time: %v", elapsed)
	if elapsed > 0 {
		u.out.printf("NPS: %.0f", float64(total)/elapsed.Seconds())
	}
}

// handleSVG writes the current position to a file, highlighting the last
// move played.
func (u *UCI) handleSVG(args []string) {
	if len(args) != 1 {
		u.infoString("svg: expected a file name")
		return
	}

	var marks []board.Square
	if u.lastMove != board.NoMove {
		marks = []board.Square{u.lastMove.From(), u.lastMove.To()}
	}

	f, err := os.Create(args[0])
	if err != nil {
		u.infoString("svg: %v", err)
		return
	}
	err = render.WriteSVG(f, u.position, svgSize, marks...)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		u.infoString("svg: %v", err)
		return
	}
	u.infoString("wrote %s", args[0])
}
