package searcher

import "time"

// Hyperparameters for UCT

const DefaultExploration = 2.0 // 1/sqrt(2) is the Kocsis-Szepesvari value

const DefaultDuration = 3 * time.Second

const DefaultMaxActions = 1000 // Plies per simulated trajectory
