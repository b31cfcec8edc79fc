// Command negaperft counts move-generator leaf nodes, split by root move,
// caching subtree counts in a Badger store between runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/negachess/internal/board"
	"github.com/hailam/negachess/internal/storage"
)

var (
	fen      = flag.String("fen", board.StartFEN, "position to count from")
	depth    = flag.Int("depth", 5, "perft depth")
	cacheDir = flag.String("cache", "", `cache directory ("" for the default, "mem" for in-memory, "off" to disable)`)
	threads  = flag.Int("threads", runtime.NumCPU(), "root moves counted in parallel")
	verbose  = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(context.Background()); err != nil {
		log.Error().Err(err).Msg("perft")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if *depth < 1 {
		return fmt.Errorf("depth %d: must be at least 1", *depth)
	}

	tables, err := board.NewTables(board.DefaultSeed)
	if err != nil {
		return err
	}
	pos, err := board.ParseFEN(tables, *fen)
	if err != nil {
		return err
	}

	cache, err := openCache(*cacheDir)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	moves := pos.LegalMoves()
	counts := make([]uint64, len(moves))
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*threads, 1))
	for i, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := pos.Clone()
			child.MakeMove(m)
			if cache == nil || *depth < 3 {
				counts[i] = child.Perft(*depth - 1)
				return nil
			}
			n, err := child.PerftCached(*depth-1, cache)
			if err != nil {
				return fmt.Errorf("%s: %w", m, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	var total uint64
	for i, m := range moves {
		fmt.Printf("%s: %d\n", m, counts[i])
		total += counts[i]
	}
	fmt.Printf("\nNodes: %d\nTime: %v\n", total, elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(total)/elapsed.Seconds())
	}

	ev := log.Debug().Int("depth", *depth).Uint64("nodes", total)
	if cache != nil {
		st := cache.Stats()
		ev = ev.Uint64("hits", st.Hits).Uint64("misses", st.Misses)
	}
	ev.Msg("perft-done")
	return nil
}

func openCache(dir string) (*storage.PerftStore, error) {
	switch dir {
	case "off":
		return nil, nil
	case "mem":
		dir = ""
	case "":
		var err error
		if dir, err = storage.PerftDir(); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("dir", dir).Msg("opening perft cache")
	return storage.Open(dir, log.Logger)
}
