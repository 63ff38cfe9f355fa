package experiments

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"uct/config"
	"uct/connect4"
	"uct/stats"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Games = 2
	cfg.Simulations = 10
	cfg.Seed = 1
	cfg.SaveEvery = 1
	cfg.StatsDir = t.TempDir()
	cfg.OutDir = t.TempDir()
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun(t *testing.T) {
	t.Run("playing against the random agent", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Opponent = config.OpponentRandom

		result, err := Run(context.Background(), cfg)

		require.NoError(t, err)
		require.Equal(t, 2, result.Games)
		require.Equal(t, 2, result.Draws+result.Wins[PrimaryName]+result.Wins[RandomName])
		require.FileExists(t, cfg.StatsPath(PrimaryName))
		require.NoFileExists(t, cfg.StatsPath(RandomName))

		games := readCSV(t, filepath.Join(result.RunDir, "game_records.csv"))
		require.Len(t, games, 3, "Header plus one row per game")
		require.Equal(t, PrimaryName, games[1][1], "First game starts with the engine")
		require.Equal(t, RandomName, games[2][1], "Second game starts with the opponent")
		require.NotEqual(t, games[1][0], games[2][0], "Game ids should be unique")
	})

	t.Run("self-play saves both tables", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Format = config.FormatParquet

		_, err := Run(context.Background(), cfg)
		require.NoError(t, err)

		for _, name := range []string{PrimaryName, SecondaryName} {
			table, err := stats.Open(cfg.StatsPath(name), stats.WithValidator(connect4.Validate))
			require.NoError(t, err)
			require.Positive(t, table.Len())
		}
	})

	t.Run("learning carries over between runs", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Opponent = config.OpponentRandom
		cfg.OutDir = ""

		_, err := Run(context.Background(), cfg)
		require.NoError(t, err)
		first, err := stats.Open(cfg.StatsPath(PrimaryName))
		require.NoError(t, err)

		_, err = Run(context.Background(), cfg)
		require.NoError(t, err)
		second, err := stats.Open(cfg.StatsPath(PrimaryName))
		require.NoError(t, err)

		require.GreaterOrEqual(t, second.Len(), first.Len())
		for key, s := range first.Snapshot() {
			got, ok := second.Get(key)
			require.True(t, ok)
			require.GreaterOrEqual(t, got.Visits, s.Visits)
		}
	})

	t.Run("saving on a cancelled context", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Games = 5
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := Run(ctx, cfg)

		require.NoError(t, err)
		require.Zero(t, result.Games)
		require.FileExists(t, cfg.StatsPath(PrimaryName))
		require.FileExists(t, cfg.StatsPath(SecondaryName))
	})

	t.Run("rejecting an invalid configuration", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Format = "xml"

		_, err := Run(context.Background(), cfg)

		require.ErrorIs(t, err, config.ErrInvalid)
	})
}
