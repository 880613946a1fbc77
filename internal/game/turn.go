package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// DefaultStartingSpace is used when neither the settings nor the data
// source name a starting space.
const DefaultStartingSpace = "OWNER-SCOPE-INITIATION"

var errStaleAction = errors.New("stale action")

// InitializeGame seats the players at the starting space and starts the
// first turn. settings may be nil to use the manager defaults.
func (m *Manager) InitializeGame(setups []state.PlayerSetup, settings *state.Settings) (*state.GameState, error) {
	cfg := m.defaults
	if settings != nil {
		cfg = *settings
		if cfg.MaxPlayers == 0 {
			cfg.MaxPlayers = m.defaults.MaxPlayers
		}
		if cfg.WinCondition == "" {
			cfg.WinCondition = m.defaults.WinCondition
		}
	}
	if len(setups) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidGameSetup)
	}
	if cfg.MaxPlayers > 0 && len(setups) > cfg.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players, at most %d allowed", ErrInvalidGameSetup, len(setups), cfg.MaxPlayers)
	}

	start := cfg.StartingSpace
	if start == "" {
		if s, ok := m.source.StartingSpace(); ok {
			start = s
		} else {
			start = DefaultStartingSpace
		}
	}
	cfg.StartingSpace = start

	seen := make(map[string]bool, len(setups))
	players := make([]*state.Player, 0, len(setups))
	for i, setup := range setups {
		name := strings.TrimSpace(setup.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: player %d has no name", ErrInvalidGameSetup, i+1)
		}
		id := setup.ID
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate player id %s", ErrInvalidGameSetup, id)
		}
		seen[id] = true

		p := &state.Player{
			ID:            id,
			Name:          name,
			Color:         setup.Color,
			Avatar:        setup.Avatar,
			Position:      start,
			VisitType:     state.VisitFirst,
			Cards:         state.NewHand(),
			ScopeItems:    []state.ScopeItem{},
			VisitedSpaces: []string{start},
		}
		p.SpaceEntrySnapshot = p.Snapshot(m.now())
		players = append(players, p)
	}

	phase := state.PhasePlaying
	noError := ""
	gs := m.SetState(state.StateUpdate{
		GamePhase:     &phase,
		CurrentPlayer: &players[0].ID,
		TurnCount:     state.Ptr(1),
		Players:       players,
		Settings: &state.SettingsUpdate{
			MaxPlayers:    &cfg.MaxPlayers,
			WinCondition:  &cfg.WinCondition,
			Debug:         &cfg.Debug,
			StartingSpace: &cfg.StartingSpace,
		},
		Error: &noError,
	})

	m.logger.Info("game initialized",
		zap.Int("players", len(players)),
		zap.String("starting_space", start),
	)
	m.bus.Publish(rules.GameInitialized{Players: gs.Players, Settings: gs.Settings})

	if _, err := m.InitializeTurnActions(players[0].ID); err != nil {
		return nil, err
	}
	return m.GetState(), nil
}

// InitializeTurnActions builds a fresh turn for the player from their
// current space: a dice action when the space needs a roll and a card
// action per card type it offers.
func (m *Manager) InitializeTurnActions(playerID string) (*state.TurnState, error) {
	p, err := m.player(playerID)
	if err != nil {
		return nil, fmt.Errorf("initialize turn: %w", err)
	}
	requiresDice, cardTypes := m.spaceRequirements(p.Position, p.VisitType)
	required := rules.BuildRequiredActions(requiresDice, cardTypes)

	var turn *state.TurnState
	_, _, err = m.transform(func(gs *state.GameState) (state.StateUpdate, error) {
		turn = rules.NewTurnState(playerID, gs.TurnCount, required, m.now())
		return state.StateUpdate{CurrentTurn: turn}, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("turn actions initialized",
		zap.String("player_id", playerID),
		zap.String("space", p.Position),
		zap.Int("required", turn.ActionCounts.Required),
	)
	m.bus.Publish(rules.TurnActionsInitialized{PlayerID: playerID, Turn: turn})
	return turn, nil
}

var cardColumns = map[state.CardType]string{
	state.CardTypeWork:      "w_card",
	state.CardTypeBank:      "b_card",
	state.CardTypeInvestor:  "i_card",
	state.CardTypeLife:      "l_card",
	state.CardTypeExpeditor: "e_card",
}

// spaceRequirements reads the space row. requires_dice_roll decides the dice
// action; without that column a dice outcome row for the space does.
func (m *Manager) spaceRequirements(space string, visit state.VisitType) (bool, []state.CardType) {
	row, ok := m.source.Space(space, string(visit))
	if !ok {
		_, hasOutcome := m.source.DiceOutcome(space, string(visit))
		return hasOutcome, nil
	}

	var requiresDice bool
	if row.Has("requires_dice_roll") {
		requiresDice = row.Bool("requires_dice_roll")
	} else {
		_, requiresDice = m.source.DiceOutcome(space, string(visit))
	}

	var cardTypes []state.CardType
	for _, ct := range state.CardTypes {
		if offersCards(row.Get(cardColumns[ct])) {
			cardTypes = append(cardTypes, ct)
		}
	}
	return requiresDice, cardTypes
}

func offersCards(value string) bool {
	switch strings.ToLower(value) {
	case "", "0", "no", "n", "false", "none", "n/a", "-":
		return false
	}
	return true
}

// ProcessPlayerAction marks the first matching pending action of the
// current turn as completed. Actions from any other player are ignored.
func (m *Manager) ProcessPlayerAction(playerID string, actionType state.ActionType, details state.ActionDetails) (*state.TurnState, bool) {
	var (
		turn    *state.TurnState
		matched bool
	)
	_, _, err := m.transform(func(gs *state.GameState) (state.StateUpdate, error) {
		if gs.CurrentTurn == nil || gs.CurrentTurn.PlayerID != playerID {
			return state.StateUpdate{}, errStaleAction
		}
		turn, matched = rules.CompleteAction(gs.CurrentTurn, actionType, details, m.now())
		return state.StateUpdate{CurrentTurn: turn}, nil
	})
	if err != nil {
		m.logger.Info("ignoring out-of-turn action",
			zap.String("player_id", playerID),
			zap.String("action", string(actionType)),
		)
		return nil, false
	}

	m.bus.Publish(rules.ActionCompleted{
		PlayerID:   playerID,
		ActionType: actionType,
		Details:    details,
		Turn:       turn,
	})
	return turn, matched
}

// RecordDiceRoll stores the roll on the current turn.
func (m *Manager) RecordDiceRoll(playerID string, roll int) error {
	if roll < 1 || roll > 6 {
		return fmt.Errorf("record dice roll: roll %d out of range", roll)
	}
	return m.updateTurn(playerID, func(t *state.TurnState) { t.DiceRoll = roll })
}

// SetPendingDestination stores where the player moves at end of turn.
func (m *Manager) SetPendingDestination(playerID, destination string) error {
	return m.updateTurn(playerID, func(t *state.TurnState) { t.PendingDestination = destination })
}

func (m *Manager) updateTurn(playerID string, fn func(t *state.TurnState)) error {
	_, _, err := m.transform(func(gs *state.GameState) (state.StateUpdate, error) {
		if gs.GamePhase != state.PhasePlaying || gs.CurrentTurn == nil {
			return state.StateUpdate{}, ErrGameNotStarted
		}
		if gs.CurrentTurn.PlayerID != playerID {
			return state.StateUpdate{}, fmt.Errorf("%w: %s", ErrNotCurrentPlayer, playerID)
		}
		turn := gs.CurrentTurn.Clone()
		fn(turn)
		turn.LastActionTimestamp = m.now()
		return state.StateUpdate{CurrentTurn: turn}, nil
	})
	return err
}

// EndTurn passes the turn to the next player. A player flagged to skip is
// passed over once and their flag cleared. The turn count increases each
// time the rotation wraps back to the first seat.
func (m *Manager) EndTurn(playerID string) (*state.GameState, error) {
	var (
		rotation rules.Rotation
		skipped  string
		nextID   string
		count    int
	)
	prev, next, err := m.transform(func(gs *state.GameState) (state.StateUpdate, error) {
		if gs.GamePhase != state.PhasePlaying {
			return state.StateUpdate{}, ErrGameNotStarted
		}
		if gs.CurrentPlayer != playerID {
			return state.StateUpdate{}, fmt.Errorf("%w: %s", ErrNotCurrentPlayer, playerID)
		}
		if gs.CurrentTurn != nil && gs.CurrentTurn.PlayerID == playerID && !gs.CurrentTurn.CanEndTurn {
			return state.StateUpdate{}, fmt.Errorf("%w: %d of %d done", ErrActionsPending,
				gs.CurrentTurn.ActionCounts.Completed, gs.CurrentTurn.ActionCounts.Required)
		}

		rotation = rules.NextPlayer(gs.Players, gs.CurrentPlayerIndex())
		if rotation.Index < 0 {
			return state.StateUpdate{}, fmt.Errorf("%w: no players", ErrInvalidGameSetup)
		}
		update := state.StateUpdate{}
		if rotation.Skipped >= 0 {
			players := make([]*state.Player, len(gs.Players))
			copy(players, gs.Players)
			players[rotation.Skipped] = players[rotation.Skipped].With(state.PlayerUpdate{SkipNextTurn: state.Ptr(false)})
			skipped = players[rotation.Skipped].ID
			update.Players = players
		}
		count = gs.TurnCount
		if rotation.Wrapped {
			count++
		}
		nextID = gs.Players[rotation.Index].ID
		update.CurrentPlayer = &nextID
		update.TurnCount = &count
		if gs.CurrentTurn != nil {
			done := gs.CurrentTurn.Clone()
			done.Phase = state.TurnCompleted
			update.CurrentTurn = done
		}
		return update, nil
	})
	if err != nil {
		return nil, fmt.Errorf("end turn: %w", err)
	}

	if skipped != "" {
		m.logger.Info("player turn skipped", zap.String("player_id", skipped))
		m.bus.Publish(rules.PlayerSkipTurnSet{PlayerID: skipped, Skip: false})
	}
	m.logger.Debug("turn advanced",
		zap.String("from", prev.CurrentPlayer),
		zap.String("to", nextID),
		zap.Int("turn_count", count),
	)
	m.bus.Publish(rules.TurnAdvanced{
		PreviousPlayer: prev.CurrentPlayer,
		CurrentPlayer:  nextID,
		SkippedPlayer:  skipped,
		TurnCount:      count,
		RoundCompleted: rotation.Wrapped,
	})

	if _, err := m.InitializeTurnActions(nextID); err != nil {
		return next, err
	}
	return m.GetState(), nil
}
