package metrics

import (
	"sync/atomic"
	"time"
	"uct/game"
)

type SearchMetric struct {
	Duration     time.Duration
	Simulations  int
	FullPlayouts int // Trajectories that reached a terminal state
	MaxDepth     int // Deepest ply expanded so far
	TableSize    int
	Shortcut     bool // Answered without simulating
}

type MoveMetric struct {
	Step   int
	Player game.Player
	Action game.Action
	SearchMetric
}

type GameMetric struct {
	ID         string
	First      string // Agent moving first
	Second     string
	Winner     string // Agent name, empty on a draw
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
}

type Collector interface {
	Start()
	AddSimulation()
	AddFullPlayout()
	SetDepth(depth int)
	SetShortcut()
	Complete(tableSize int) SearchMetric
}

type collector struct {
	startTime    time.Time
	simulations  atomic.Int32
	fullPlayouts atomic.Int32
	maxDepth     atomic.Int32
	shortcut     atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the per-search counters. The max depth is kept across
// searches since the table it describes persists.
func (m *collector) Start() {
	m.startTime = time.Now()
	m.simulations.Store(0)
	m.fullPlayouts.Store(0)
	m.shortcut.Store(false)
}

func (m *collector) AddSimulation() {
	m.simulations.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) SetDepth(depth int) {
	for {
		current := m.maxDepth.Load()
		if int32(depth) <= current || m.maxDepth.CompareAndSwap(current, int32(depth)) {
			return
		}
	}
}

func (m *collector) SetShortcut() {
	m.shortcut.Store(true)
}

func (m *collector) Complete(tableSize int) SearchMetric {
	return SearchMetric{
		Duration:     time.Since(m.startTime),
		Simulations:  int(m.simulations.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		MaxDepth:     int(m.maxDepth.Load()),
		TableSize:    tableSize,
		Shortcut:     m.shortcut.Load(),
	}
}
