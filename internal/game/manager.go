package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/effects"
	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// Manager is the state container. It owns the canonical GameState, the event
// bus and the effects engine. Every mutation builds a new immutable state,
// commits it under the lock and publishes events after releasing it, so
// listeners may call back into the manager.
type Manager struct {
	logger   *zap.Logger
	source   data.Source
	bus      *rules.EventBus
	engine   *effects.Engine
	defaults state.Settings
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.RWMutex
	current *state.GameState

	reporting atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSeed makes catalog draws reproducible.
func WithSeed(seed uint64) Option {
	return func(m *Manager) { m.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithDefaultSettings sets the settings used when InitializeGame gets none.
func WithDefaultSettings(s state.Settings) Option {
	return func(m *Manager) { m.defaults = s }
}

// NewManager creates a manager over a read-only data source.
func NewManager(source data.Source, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if source == nil {
		source = data.EmptyDatabase()
	}
	m := &Manager{
		logger:   logger,
		source:   source,
		bus:      rules.NewEventBus(logger.Named("bus")),
		defaults: state.DefaultSettings(),
		now:      time.Now,
		current:  state.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m.engine = effects.NewEngine(source, m, logger.Named("effects"))
	m.bus.SetErrorHandler(func(event rules.Event, err error) {
		m.HandleError(err, "listener:"+string(event.Type))
	})
	return m
}

// Bus returns the event bus.
func (m *Manager) Bus() *rules.EventBus {
	return m.bus
}

// Engine returns the effects engine.
func (m *Manager) Engine() *effects.Engine {
	return m.engine
}

// Source returns the data source.
func (m *Manager) Source() data.Source {
	return m.source
}

// GetState returns the current state. The value is shared and must be
// treated as read-only; use Clone before modifying it.
func (m *Manager) GetState() *state.GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetState merges an update into the current state and publishes
// stateChanged.
func (m *Manager) SetState(update state.StateUpdate) *state.GameState {
	m.mu.Lock()
	prev := m.current
	next := prev.Merge(update, m.now())
	m.current = next
	m.mu.Unlock()

	m.bus.Publish(rules.StateChanged{Previous: prev, Current: next, Updates: update})
	return next
}

// transform computes an update from the locked current state and commits
// it. fn must not call back into the manager.
func (m *Manager) transform(fn func(gs *state.GameState) (state.StateUpdate, error)) (prev, next *state.GameState, err error) {
	m.mu.Lock()
	prev = m.current
	update, err := fn(prev)
	if err != nil {
		m.mu.Unlock()
		return prev, prev, err
	}
	next = prev.Merge(update, m.now())
	m.current = next
	m.mu.Unlock()

	m.bus.Publish(rules.StateChanged{Previous: prev, Current: next, Updates: update})
	return prev, next, nil
}

// UpdatePlayer applies an update to one player. The players slice and the
// player are replaced; every other player keeps its identity.
func (m *Manager) UpdatePlayer(playerID string, update state.PlayerUpdate) (*state.Player, error) {
	_, after, err := m.updatePlayer(playerID, func(*state.Player) (state.PlayerUpdate, error) {
		return update, nil
	})
	return after, err
}

// updatePlayer runs fn against the committed player and commits the result
// in one step.
func (m *Manager) updatePlayer(playerID string, fn func(p *state.Player) (state.PlayerUpdate, error)) (before, after *state.Player, err error) {
	if playerID == "" {
		return nil, nil, fmt.Errorf("update player: %w: player id", ErrMissingArgument)
	}
	_, _, err = m.transform(func(gs *state.GameState) (state.StateUpdate, error) {
		p, idx := gs.Player(playerID)
		if p == nil {
			return state.StateUpdate{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}
		update, err := fn(p)
		if err != nil {
			return state.StateUpdate{}, err
		}
		before = p
		after = p.With(update)
		players := make([]*state.Player, len(gs.Players))
		copy(players, gs.Players)
		players[idx] = after
		return state.StateUpdate{Players: players}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// player returns the committed player or ErrPlayerNotFound.
func (m *Manager) player(playerID string) (*state.Player, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id", ErrMissingArgument)
	}
	p, _ := m.GetState().Player(playerID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return p, nil
}

// HandleError records err as the state's last error and publishes
// errorOccurred. Failures raised while reporting are only logged.
func (m *Manager) HandleError(err error, context string) {
	if err == nil {
		return
	}
	m.logger.Error("game error", zap.String("context", context), zap.Error(err))
	if !m.reporting.CompareAndSwap(false, true) {
		return
	}
	defer m.reporting.Store(false)

	msg := err.Error()
	m.SetState(state.StateUpdate{Error: &msg})
	m.bus.Publish(rules.ErrorOccurred{Message: msg, Context: context})
}

// ClearError resets the recorded error.
func (m *Manager) ClearError() {
	empty := ""
	m.SetState(state.StateUpdate{Error: &empty})
}
