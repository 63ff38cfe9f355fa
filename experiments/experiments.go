package experiments

import (
	"context"
	"errors"
	"fmt"
	"uct/agent"
	"uct/config"
	"uct/connect4"
	"uct/engine"
	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"
	"uct/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

const (
	PrimaryName   = "mcts1"
	SecondaryName = "mcts2"
	RandomName    = "random"
)

// Result counts the games played by a run.
type Result struct {
	Games  int
	Wins   map[string]int
	Draws  int
	RunDir string // CSV records, empty when none were written
}

// Run plays cfg.Games connect-four games between the learning engine and
// its opponent, alternating who moves first. The tables are saved every
// cfg.SaveEvery games and once more when the run ends, also when ctx is
// cancelled.
func Run(ctx context.Context, cfg config.Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	env := connect4.NewEnv()

	primary, err := openEngine(env, cfg, PrimaryName, 0)
	if err != nil {
		return Result{}, err
	}
	engines := []*searcher.UCT{primary}

	var opponent agent.Agent
	switch cfg.Opponent {
	case config.OpponentUCT:
		secondary, err := openEngine(env, cfg, SecondaryName, 1)
		if err != nil {
			return Result{}, err
		}
		engines = append(engines, secondary)
		opponent = agent.NewSearchAgent(secondary)
	case config.OpponentRandom:
		opponent = agent.NewRandomAgent(RandomName, env, seed(cfg, 2))
	}
	agents := [2]agent.Agent{agent.NewSearchAgent(primary), opponent}

	result := Result{Wins: map[string]int{}}
	gameRecords := []metrics.GameMetric{}
	moveRecords := []metrics.MoveRecord{}

	log.Info().Msgf("starting %d games between %s and %s...", cfg.Games, agents[0].Name(), agents[1].Name())

	var runErr error
	for i := 0; i < cfg.Games && ctx.Err() == nil; i++ {
		first, second := agents[0], agents[1]
		if i%2 == 1 {
			first, second = second, first
		}
		log.Info().Msgf("starting game %d of %d...", i+1, cfg.Games)

		e := engine.NewLocal(env, env.Initial(), first, second)
		winner, gameMetric, moveMetrics, err := e.Run(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Msgf("game %d interrupted", i+1)
			break
		}
		if err != nil {
			runErr = fmt.Errorf("game %d failed: %w", i+1, err)
			break
		}

		result.Games++
		if winner == "" {
			result.Draws++
		} else {
			result.Wins[winner]++
		}
		gameRecords = append(gameRecords, gameMetric)
		for _, mm := range moveMetrics {
			moveRecords = append(moveRecords, metrics.MoveRecord{Game: gameMetric.ID, MoveMetric: mm})
		}

		if cfg.SaveEvery > 0 && result.Games%cfg.SaveEvery == 0 {
			if err := save(engines); err != nil {
				return result, err
			}
		}
	}

	log.Info().Msgf("completed %d games: %v wins, %d draws", result.Games, result.Wins, result.Draws)

	if err := save(engines); err != nil {
		return result, errors.Join(runErr, err)
	}
	if runErr != nil {
		return result, runErr
	}

	if cfg.OutDir == "" {
		return result, nil
	}
	writer, err := metrics.NewWriter(cfg.OutDir)
	if err != nil {
		return result, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	result.RunDir = writer.Dir()
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return result, fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return result, fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")
	return result, nil
}

func openEngine(env game.Environment, cfg config.Config, name string, offset uint64) (*searcher.UCT, error) {
	options := []searcher.Option{
		searcher.WithExploration(cfg.C),
		searcher.WithDuration(cfg.Duration),
		searcher.WithSimulations(cfg.Simulations),
		searcher.WithMaxActions(cfg.MaxActions),
		searcher.WithSeed(seed(cfg, offset)),
		searcher.WithStatsPath(cfg.StatsPath(name)),
		searcher.WithStatsOptions(
			stats.WithSizeLimit(cfg.SizeLimit()),
			stats.WithValidator(connect4.Validate),
		),
	}
	if cfg.Alternate {
		options = append(options, searcher.WithAlternatingPerspective())
	}
	return searcher.Open(name, env, options...)
}

// seed derives a distinct seed per engine from the configured one.
func seed(cfg config.Config, offset uint64) uint64 {
	if cfg.Seed == 0 {
		return frand.Uint64n(1<<63) + 1
	}
	return cfg.Seed + offset
}

// save writes every engine's table concurrently. Each engine owns a
// distinct file.
func save(engines []*searcher.UCT) error {
	var g errgroup.Group
	for _, u := range engines {
		g.Go(u.Save)
	}
	return g.Wait()
}
