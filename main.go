package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"
	"uct/config"
	"uct/experiments"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "YAML run configuration")
	games := flag.Int("games", 0, "Number of games to play")
	duration := flag.Duration("duration", 0, "Search time per move")
	simulations := flag.Int("simulations", 0, "Simulations per move, replaces -duration")
	c := flag.Float64("c", 0, "Exploration constant")
	opponent := flag.String("opponent", "", "Opponent of the engine: uct or random")
	statsDir := flag.String("stats-dir", "", "Directory of the stats files")
	format := flag.String("format", "", "Stats file format: json or parquet")
	seed := flag.Uint64("seed", 0, "Random seed, 0 for a random one")
	outDir := flag.String("out", "", "Directory of the CSV records")
	verbose := flag.Bool("v", false, "Log every search")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
	}

	// Only flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "games":
			cfg.Games = *games
		case "duration":
			cfg.Duration = *duration
		case "simulations":
			cfg.Simulations = *simulations
		case "c":
			cfg.C = *c
		case "opponent":
			cfg.Opponent = *opponent
		case "stats-dir":
			cfg.StatsDir = *statsDir
		case "format":
			cfg.Format = *format
		case "seed":
			cfg.Seed = *seed
		case "out":
			cfg.OutDir = *outDir
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := experiments.Run(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
	log.Info().Msgf("played %d games", result.Games)
	if result.RunDir != "" {
		log.Info().Msgf("records stored in %s", result.RunDir)
	}
}
