// Package effects resolves CSV-driven effects: condition keys, space effect
// rows, card immediate effects and dice tables. The engine holds no game
// progress of its own; every state change goes through a Mutator.
package effects

import (
	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// Mutator is the subset of the state container the effect handlers call.
type Mutator interface {
	UpdatePlayerMoney(playerID string, amount int, reason string) (string, error)
	UpdatePlayerTime(playerID string, amount int, reason string) (string, error)
	AddWorkToPlayerScope(playerID, workType string, cost int) (string, error)
	ForcePlayerDiscard(playerID string, count int, cardType state.CardType) ([]state.Card, error)
	SetSkipNextTurn(playerID string, skip bool) error
}

// Engine evaluates conditions and applies effects.
type Engine struct {
	source     data.Source
	mutator    Mutator
	conditions map[string]Condition
	logger     *zap.Logger
}

// NewEngine creates an engine reading from source and writing through mutator.
func NewEngine(source data.Source, mutator Mutator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if source == nil {
		source = data.EmptyDatabase()
	}
	return &Engine{
		source:     source,
		mutator:    mutator,
		conditions: namedConditions(),
		logger:     logger,
	}
}

// WithMutator returns a copy of the engine that writes through m.
func (e *Engine) WithMutator(m Mutator) *Engine {
	c := *e
	c.mutator = m
	return &c
}

// Source returns the data source the engine reads.
func (e *Engine) Source() data.Source {
	return e.source
}
