package state

import (
	"time"
)

// TurnPhase is the lifecycle of a single turn.
type TurnPhase string

const (
	TurnSetup     TurnPhase = "SETUP"
	TurnActions   TurnPhase = "ACTIONS"
	TurnCompleted TurnPhase = "COMPLETED"
)

// ActionType names a turn-blocking action.
type ActionType string

const (
	ActionDice ActionType = "dice"
	ActionCard ActionType = "card"
)

// ActionDetails qualifies an action, e.g. which card type a card action is for.
type ActionDetails struct {
	CardType    CardType `json:"cardType,omitempty"`
	Description string   `json:"description,omitempty"`
}

// RequiredAction is an action that must be completed before the turn can end.
type RequiredAction struct {
	Type        ActionType    `json:"type"`
	Required    bool          `json:"required"`
	Completed   bool          `json:"completed"`
	CompletedAt time.Time     `json:"completedAt,omitempty"`
	Details     ActionDetails `json:"details"`
}

// CompletedAction is an entry in the append-only action log of a turn.
type CompletedAction struct {
	Type        ActionType    `json:"type"`
	Details     ActionDetails `json:"details"`
	CompletedAt time.Time     `json:"completedAt"`
}

// ActionCounts summarises required versus completed actions.
type ActionCounts struct {
	Required  int `json:"required"`
	Completed int `json:"completed"`
}

// TurnState tracks the active turn.
type TurnState struct {
	PlayerID            string            `json:"playerId"`
	TurnNumber          int               `json:"turnNumber"`
	Phase               TurnPhase         `json:"phase"`
	RequiredActions     []RequiredAction  `json:"requiredActions"`
	CompletedActions    []CompletedAction `json:"completedActions"`
	ActionCounts        ActionCounts      `json:"actionCounts"`
	CanEndTurn          bool              `json:"canEndTurn"`
	LastActionTimestamp time.Time         `json:"lastActionTimestamp"`
	DiceRoll            int               `json:"diceRoll,omitempty"`
	PendingDestination  string            `json:"pendingDestination,omitempty"`
}

// Clone returns an independent copy of the turn state.
func (t *TurnState) Clone() *TurnState {
	if t == nil {
		return nil
	}
	cp := *t
	cp.RequiredActions = append([]RequiredAction{}, t.RequiredActions...)
	cp.CompletedActions = append([]CompletedAction{}, t.CompletedActions...)
	return &cp
}
