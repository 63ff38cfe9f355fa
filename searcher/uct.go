package searcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"
	"uct/experiments/metrics"
	"uct/game"
	"uct/stats"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"lukechampine.com/frand"
)

var ErrNoPosition = errors.New("no position to search from")

type Option func(u *UCT)

func WithExploration(c float64) Option {
	return func(u *UCT) {
		if c >= 0 {
			u.c = c
		}
	}
}

// WithDuration sets the wall-clock budget of one search.
func WithDuration(duration time.Duration) Option {
	return func(u *UCT) {
		if duration > 0 {
			u.duration = duration
		}
	}
}

// WithSimulations runs a fixed number of simulations per search instead of
// a wall-clock budget.
func WithSimulations(simulations int) Option {
	return func(u *UCT) {
		if simulations > 0 {
			u.simulations = simulations
		}
	}
}

func WithMaxActions(plies int) Option {
	return func(u *UCT) {
		if plies > 0 {
			u.maxActions = plies
		}
	}
}

// WithTruncationReward sets the reward of a trajectory that hits the max
// actions cutoff before the game ends.
func WithTruncationReward(reward float64) Option {
	return func(u *UCT) {
		u.truncationReward = reward
	}
}

func WithSeed(seed uint64) Option {
	return func(u *UCT) {
		u.rng = rand.New(rand.NewSource(seed))
	}
}

// WithStatsDir places the default stats file of the engine in dir.
func WithStatsDir(dir string) Option {
	return func(u *UCT) {
		u.path = filepath.Join(dir, stats.FileName(u.name))
	}
}

func WithStatsPath(path string) Option {
	return func(u *UCT) {
		if path != "" {
			u.path = path
		}
	}
}

// WithStatsOptions configures the table loaded by Open.
func WithStatsOptions(options ...stats.Option) Option {
	return func(u *UCT) {
		u.statsOptions = append(u.statsOptions, options...)
	}
}

// WithAlternatingPerspective makes the tree policy minimize the searching
// player's mean at plies where the opponent moves. By default every ply
// maximizes the same fixed-perspective reward.
func WithAlternatingPerspective() Option {
	return func(u *UCT) {
		u.alternate = true
	}
}

// UCT searches for the action of one player in one game session. It owns
// the history of the real game and mutates the injected table.
type UCT struct {
	name             string
	env              game.Environment
	table            *stats.Table
	path             string
	statsOptions     []stats.Option
	c                float64
	duration         time.Duration
	simulations      int
	maxActions       int
	truncationReward float64
	alternate        bool
	rng              *rand.Rand
	history          []game.Key
	player           game.Player
	metrics          metrics.Collector
	log              zerolog.Logger
}

func newUCT(name string, env game.Environment, options ...Option) *UCT {
	if env == nil {
		panic("searcher needs an environment")
	}
	u := &UCT{ // Default values
		name:       name,
		env:        env,
		path:       stats.FileName(name),
		c:          DefaultExploration,
		duration:   DefaultDuration,
		maxActions: DefaultMaxActions,
		metrics:    metrics.NewCollector(),
		log:        log.With().Str("engine", name).Logger(),
	}
	for _, option := range options {
		option(u)
	}
	if u.rng == nil {
		u.rng = rand.New(rand.NewSource(frand.Uint64n(math.MaxUint64)))
	}
	return u
}

// NewUCT returns a searcher learning into table.
func NewUCT(name string, env game.Environment, table *stats.Table, options ...Option) *UCT {
	if table == nil {
		panic("searcher needs a stats table")
	}
	u := newUCT(name, env, options...)
	u.table = table
	return u
}

// Open returns a searcher whose table is loaded from its stats file. A
// malformed file fails construction.
func Open(name string, env game.Environment, options ...Option) (*UCT, error) {
	u := newUCT(name, env, options...)

	u.log.Info().Msgf("loading file %s", u.path)
	table, err := stats.Open(u.path, u.statsOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for %s: %w", name, err)
	}
	u.table = table
	u.log.Info().Msgf("loading complete: %d states", table.Len())
	return u, nil
}

func (u *UCT) Name() string {
	return u.name
}

func (u *UCT) Table() *stats.Table {
	return u.table
}

func (u *UCT) Path() string {
	return u.path
}

// Update records a real move: state is the position reached and next the
// player to move in it.
func (u *UCT) Update(state game.Key, next game.Player) {
	u.history = append(u.history, state)
	u.player = next
}

// Reset forgets the history to start a new game. The table is kept.
func (u *UCT) Reset() {
	u.history = nil
	u.player = 0
}

func (u *UCT) History() []game.Key {
	return append([]game.Key(nil), u.history...)
}

// FindNextMove searches from the latest real position and returns the
// action with the best mean reward, or game.NoAction when there is none.
// ctx is only checked between simulations.
func (u *UCT) FindNextMove(ctx context.Context) (game.Action, metrics.SearchMetric, error) {
	if len(u.history) == 0 {
		return game.NoAction, metrics.SearchMetric{}, ErrNoPosition
	}
	state := u.history[len(u.history)-1]

	u.metrics.Start()
	// Do not search when we can only perform one or no actions
	actions := u.env.LegalActions(state)
	switch len(actions) {
	case 0:
		return game.NoAction, u.metrics.Complete(u.table.Len()), nil
	case 1:
		u.metrics.SetShortcut()
		return actions[0], u.metrics.Complete(u.table.Len()), nil
	}

	if u.simulations > 0 {
		u.iterate(ctx)
	} else {
		u.countdown(ctx)
	}

	action, best := u.evaluate(state, actions)
	metric := u.metrics.Complete(u.table.Len())
	u.log.Info().Msgf("finished %d simulations in %s", metric.Simulations, metric.Duration.Round(time.Millisecond))
	u.log.Debug().Msgf("choosing action: %d (%g/%d)", action, best.Value, best.Visits)
	return action, metric, nil
}

func (u *UCT) iterate(ctx context.Context) {
	for i := 0; i < u.simulations && ctx.Err() == nil; i++ {
		u.step()
	}
}

func (u *UCT) countdown(ctx context.Context) {
	deadline := time.Now().Add(u.duration)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		u.step()
	}
}

func (u *UCT) step() {
	t := u.simulate()
	u.backup(t)
	u.metrics.AddSimulation()
	if t.terminal {
		u.metrics.AddFullPlayout()
	}
	u.log.Trace().Msgf("game ends with a reward of %g after %d plies", t.reward, len(t.visited))
}

// Save persists the table. A file already over the size limit is left as
// is and only logged.
func (u *UCT) Save() error {
	err := u.table.Save(u.path)
	if errors.Is(err, stats.ErrSizeLimit) {
		u.log.Warn().Err(err).Msgf("file size of %s exceeds memory limit, saving failed", u.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", u.name, err)
	}
	u.log.Info().Msgf("saved %d states to %s", u.table.Len(), u.path)
	return nil
}
