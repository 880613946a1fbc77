package rules

import (
	"time"

	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// StateChanged is published after every committed state update.
// Previous and Current are immutable snapshots.
type StateChanged struct {
	Previous *state.GameState  `json:"previous"`
	Current  *state.GameState  `json:"current"`
	Updates  state.StateUpdate `json:"updates"`
}

func (StateChanged) EventType() EventType { return EventStateChanged }

type GameInitialized struct {
	Players  []*state.Player `json:"players"`
	Settings state.Settings  `json:"settings"`
}

func (GameInitialized) EventType() EventType { return EventGameInitialized }

type ErrorOccurred struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

func (ErrorOccurred) EventType() EventType { return EventErrorOccurred }

type PlayerMoved struct {
	PlayerID  string          `json:"playerId"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	VisitType state.VisitType `json:"visitType"`
}

func (PlayerMoved) EventType() EventType { return EventPlayerMoved }

type PlayerMovedWithEffects struct {
	PlayerID  string          `json:"playerId"`
	Space     string          `json:"space"`
	VisitType state.VisitType `json:"visitType"`
	Messages  []string        `json:"messages"`
}

func (PlayerMovedWithEffects) EventType() EventType { return EventPlayerMovedWithEffects }

// PlayerMoneyChanged carries before/after money and the applied delta.
type PlayerMoneyChanged struct {
	PlayerID string `json:"playerId"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Amount   int    `json:"amount"`
	Reason   string `json:"reason"`
}

func (PlayerMoneyChanged) EventType() EventType { return EventPlayerMoneyChanged }

// PlayerTimeChanged carries before/after time spent and the applied delta.
type PlayerTimeChanged struct {
	PlayerID string `json:"playerId"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Amount   int    `json:"amount"`
	Reason   string `json:"reason"`
}

func (PlayerTimeChanged) EventType() EventType { return EventPlayerTimeChanged }

type PlayerActionTaken struct {
	PlayerID    string    `json:"playerId"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func (PlayerActionTaken) EventType() EventType { return EventPlayerActionTaken }

type PlayerSkipTurnSet struct {
	PlayerID string `json:"playerId"`
	Skip     bool   `json:"skip"`
}

func (PlayerSkipTurnSet) EventType() EventType { return EventPlayerSkipTurnSet }

type PlayerSnapshotSaved struct {
	PlayerID string                `json:"playerId"`
	Snapshot *state.PlayerSnapshot `json:"snapshot"`
}

func (PlayerSnapshotSaved) EventType() EventType { return EventPlayerSnapshotSaved }

type PlayerSnapshotRestored struct {
	PlayerID  string `json:"playerId"`
	Space     string `json:"space"`
	Penalty   int    `json:"penalty"`
	TimeSpent int    `json:"timeSpent"`
}

func (PlayerSnapshotRestored) EventType() EventType { return EventPlayerSnapshotRestored }

type CardsAddedToPlayer struct {
	PlayerID string         `json:"playerId"`
	CardType state.CardType `json:"cardType"`
	Cards    []state.Card   `json:"cards"`
}

func (CardsAddedToPlayer) EventType() EventType { return EventCardsAddedToPlayer }

type CardUsed struct {
	PlayerID string     `json:"playerId"`
	Card     state.Card `json:"card"`
	Effect   string     `json:"effect"`
	Messages []string   `json:"messages"`
}

func (CardUsed) EventType() EventType { return EventCardUsed }

type CardsDiscarded struct {
	PlayerID string       `json:"playerId"`
	Cards    []state.Card `json:"cards"`
	Reason   string       `json:"reason"`
}

func (CardsDiscarded) EventType() EventType { return EventCardsDiscarded }

type WorkAddedToScope struct {
	PlayerID       string `json:"playerId"`
	WorkType       string `json:"workType"`
	Cost           int    `json:"cost"`
	ScopeTotalCost int    `json:"scopeTotalCost"`
}

func (WorkAddedToScope) EventType() EventType { return EventWorkAddedToScope }

type TurnActionsInitialized struct {
	PlayerID string           `json:"playerId"`
	Turn     *state.TurnState `json:"turn"`
}

func (TurnActionsInitialized) EventType() EventType { return EventTurnActionsInitialized }

type ActionCompleted struct {
	PlayerID   string              `json:"playerId"`
	ActionType state.ActionType    `json:"actionType"`
	Details    state.ActionDetails `json:"details"`
	Turn       *state.TurnState    `json:"turn"`
}

func (ActionCompleted) EventType() EventType { return EventActionCompleted }

// TurnAdvanced is published by EndTurn. SkippedPlayer is set when a player's
// skipNextTurn flag was consumed.
type TurnAdvanced struct {
	PreviousPlayer string `json:"previousPlayer"`
	CurrentPlayer  string `json:"currentPlayer"`
	SkippedPlayer  string `json:"skippedPlayer,omitempty"`
	TurnCount      int    `json:"turnCount"`
	RoundCompleted bool   `json:"roundCompleted"`
}

func (TurnAdvanced) EventType() EventType { return EventTurnAdvanced }

type DiceRolled struct {
	PlayerID    string   `json:"playerId"`
	Roll        int      `json:"roll"`
	Destination string   `json:"destination,omitempty"`
	Messages    []string `json:"messages"`
}

func (DiceRolled) EventType() EventType { return EventDiceRolled }

type GameStartRequested struct {
	Players  []state.PlayerSetup `json:"players"`
	Settings *state.Settings     `json:"settings,omitempty"`
}

func (GameStartRequested) EventType() EventType { return EventGameStartRequested }

// DiceRollRequested asks for a roll; Roll 0 lets the orchestrator roll.
type DiceRollRequested struct {
	PlayerID string `json:"playerId"`
	Roll     int    `json:"roll,omitempty"`
}

func (DiceRollRequested) EventType() EventType { return EventDiceRollRequested }

type CardActionRequested struct {
	PlayerID string         `json:"playerId"`
	CardType state.CardType `json:"cardType"`
}

func (CardActionRequested) EventType() EventType { return EventCardActionRequested }

type CardUseRequested struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
}

func (CardUseRequested) EventType() EventType { return EventCardUseRequested }

type MoveRequested struct {
	PlayerID    string `json:"playerId"`
	Destination string `json:"destination"`
}

func (MoveRequested) EventType() EventType { return EventMoveRequested }

type NegotiateRequested struct {
	PlayerID string `json:"playerId"`
}

func (NegotiateRequested) EventType() EventType { return EventNegotiateRequested }

type EndTurnRequested struct {
	PlayerID string `json:"playerId"`
}

func (EndTurnRequested) EventType() EventType { return EventEndTurnRequested }
