// Package config holds the settings of a self-play run, read from a YAML
// file and overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"uct/searcher"
	"uct/stats"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON    = "json"
	FormatParquet = "parquet"

	OpponentUCT    = "uct"
	OpponentRandom = "random"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Games       int           `yaml:"games"`
	Duration    time.Duration `yaml:"duration"`
	Simulations int           `yaml:"simulations"` // Replaces Duration when positive
	C           float64       `yaml:"c"`
	MaxActions  int           `yaml:"max_actions"`
	Alternate   bool          `yaml:"alternating_perspective"`
	Seed        uint64        `yaml:"seed"` // 0 picks a random seed
	StatsDir    string        `yaml:"stats_dir"`
	Format      string        `yaml:"format"`
	SizeLimitMB int64         `yaml:"size_limit_mb"`
	SaveEvery   int           `yaml:"save_every"` // Games between saves, 0 saves at the end only
	Opponent    string        `yaml:"opponent"`
	OutDir      string        `yaml:"out_dir"` // Empty skips the CSV records
}

func Default() Config {
	return Config{
		Games:       1,
		Duration:    searcher.DefaultDuration,
		C:           searcher.DefaultExploration,
		MaxActions:  searcher.DefaultMaxActions,
		StatsDir:    ".",
		Format:      FormatJSON,
		SizeLimitMB: stats.DefaultSizeLimit >> 20,
		SaveEvery:   10,
		Opponent:    OpponentUCT,
	}
}

// Load reads path over the defaults. Unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Games < 0:
		return fmt.Errorf("%w: negative number of games %d", ErrInvalid, c.Games)
	case c.C < 0:
		return fmt.Errorf("%w: negative exploration constant %g", ErrInvalid, c.C)
	case c.Format != FormatJSON && c.Format != FormatParquet:
		return fmt.Errorf("%w: unknown stats format %q", ErrInvalid, c.Format)
	case c.Opponent != OpponentUCT && c.Opponent != OpponentRandom:
		return fmt.Errorf("%w: unknown opponent %q", ErrInvalid, c.Opponent)
	case c.SaveEvery < 0:
		return fmt.Errorf("%w: negative save interval %d", ErrInvalid, c.SaveEvery)
	}
	return nil
}

// StatsPath is the stats file of the engine called name.
func (c Config) StatsPath(name string) string {
	file := stats.FileName(name)
	if c.Format == FormatParquet {
		file = strings.TrimSuffix(file, filepath.Ext(file)) + ".parquet"
	}
	return filepath.Join(c.StatsDir, file)
}

func (c Config) SizeLimit() int64 {
	return c.SizeLimitMB << 20
}
