package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/negachess/internal/board"
	"github.com/hailam/negachess/internal/engine"
	"github.com/hailam/negachess/internal/uci"
)

var defaults = engine.DefaultOptions()

var (
	hashMB     = flag.Int("hash", defaults.HashMB, "transposition table size in MB")
	nullR      = flag.Int("nullr", defaults.NullMoveReduction, "null-move depth reduction")
	lmrMoves   = flag.Int("lmr-moves", defaults.LMRFullDepthMoves, "moves searched at full depth before LMR")
	lmrDepth   = flag.Int("lmr-depth", defaults.LMRDepthLimit, "minimum depth for LMR")
	aspiration = flag.Int("aspiration", defaults.AspirationWindow, "aspiration window half-width in centipawns")
	seed       = flag.Uint64("seed", board.DefaultSeed, "seed for magic numbers and Zobrist keys")
	logLevel   = flag.String("loglevel", "info", "log level: trace, debug, info, warn, error, disabled")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("bad log level")
	}
	zerolog.SetGlobalLevel(level)

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu-profiling")
	}

	start := time.Now()
	tables, err := board.NewTables(*seed)
	if err != nil {
		log.Fatal().Err(err).Uint64("seed", *seed).Msg("attack tables")
	}
	log.Debug().Dur("elapsed", time.Since(start)).Uint64("seed", *seed).Msg("attack tables built")

	opts := defaults
	opts.HashMB = *hashMB
	opts.NullMoveReduction = *nullR
	opts.LMRFullDepthMoves = *lmrMoves
	opts.LMRDepthLimit = *lmrDepth
	opts.AspirationWindow = *aspiration
	eng, err := engine.NewEngine(tables, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	if err := uci.New(eng, tables).Run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("uci")
		os.Exit(1)
	}
}
