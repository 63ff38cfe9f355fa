package engine

import (
	"context"
	"fmt"
	"time"
	"uct/agent"
	"uct/experiments/metrics"
	"uct/game"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Option func(e *Local)

func WithMaxMoves(moves int) Option {
	return func(e *Local) {
		if moves > 0 {
			e.maxMoves = moves
		}
	}
}

// Local plays one game between two in-process agents. The first agent moves
// as game.PlayerOne.
type Local struct {
	env      game.Environment
	initial  game.Key
	agents   [2]agent.Agent
	maxMoves int
}

var _ Engine = (*Local)(nil)

func NewLocal(env game.Environment, initial game.Key, first, second agent.Agent, options ...Option) *Local {
	if env == nil || first == nil || second == nil {
		panic("engine needs an environment and two agents")
	}
	e := &Local{
		env:      env,
		initial:  initial,
		agents:   [2]agent.Agent{first, second},
		maxMoves: MaxMoves,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *Local) agentFor(player game.Player) agent.Agent {
	if player == game.PlayerOne {
		return e.agents[0]
	}
	return e.agents[1]
}

// Run executes the entire game loop. Every agent is informed of every real
// move, whoever played it.
func (e *Local) Run(ctx context.Context) (string, metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{
		ID:        uuid.NewString(),
		First:     e.agents[0].Name(),
		Second:    e.agents[1].Name(),
		StartTime: time.Now(),
	}

	state, player := e.initial, game.PlayerOne
	for _, a := range e.agents {
		a.Reset()
		a.Update(state, player)
	}

	log.Info().Msgf("%s is starting game %s", e.agents[0].Name(), gameMetric.ID)

	var winner string
	var moveMetrics []metrics.MoveMetric
	for step := 1; step <= e.maxMoves; step++ {
		if err := ctx.Err(); err != nil {
			return "", gameMetric, moveMetrics, err
		}

		mover := e.agentFor(player)
		action, searchMetric, err := mover.FindMove(ctx)
		if err != nil {
			return "", gameMetric, moveMetrics, fmt.Errorf("%s failed to find a move: %w", mover.Name(), err)
		}
		if action == game.NoAction {
			log.Debug().Msgf("%s has no possible actions", mover.Name())
			break
		}

		state = e.env.Apply(state, action, player)
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         step,
			Player:       player,
			Action:       action,
			SearchMetric: searchMetric,
		})

		next := e.env.NextPlayer(player)
		for _, a := range e.agents {
			a.Update(state, next)
		}

		if w, done := e.outcome(action, state); done {
			winner = w
			break
		}
		player = next
	}

	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = len(moveMetrics)
	gameMetric.Winner = winner

	if winner == "" {
		log.Info().Msgf("game %s ended without a winner after %d moves", gameMetric.ID, gameMetric.TotalMoves)
	} else {
		log.Info().Msgf("game %s won by %s after %d moves", gameMetric.ID, winner, gameMetric.TotalMoves)
	}
	return winner, gameMetric, moveMetrics, nil
}

// outcome compares the rewards of both players of a terminal state. Equal
// rewards are a draw.
func (e *Local) outcome(last game.Action, state game.Key) (string, bool) {
	one, terminal := e.env.Outcome(last, state, game.PlayerOne)
	if !terminal {
		return "", false
	}
	two, _ := e.env.Outcome(last, state, game.PlayerTwo)
	switch {
	case one > two:
		return e.agents[0].Name(), true
	case two > one:
		return e.agents[1].Name(), true
	}
	return "", true
}
