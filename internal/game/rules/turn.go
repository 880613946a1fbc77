package rules

import (
	"time"

	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// BuildRequiredActions lists the turn-blocking actions for a space: one dice
// action when the space needs a roll and one card action per offered card
// type. Movement is resolved at end of turn and never blocks.
func BuildRequiredActions(requiresDice bool, cardTypes []state.CardType) []state.RequiredAction {
	actions := make([]state.RequiredAction, 0, len(cardTypes)+1)
	if requiresDice {
		actions = append(actions, state.RequiredAction{
			Type:     state.ActionDice,
			Required: true,
			Details:  state.ActionDetails{Description: "Roll the dice"},
		})
	}
	for _, ct := range cardTypes {
		actions = append(actions, state.RequiredAction{
			Type:     state.ActionCard,
			Required: true,
			Details: state.ActionDetails{
				CardType:    ct,
				Description: "Resolve " + string(ct) + " card action",
			},
		})
	}
	return actions
}

// NewTurnState creates the turn state for a player's turn.
func NewTurnState(playerID string, turnNumber int, required []state.RequiredAction, now time.Time) *state.TurnState {
	if required == nil {
		required = []state.RequiredAction{}
	}
	ts := &state.TurnState{
		PlayerID:            playerID,
		TurnNumber:          turnNumber,
		Phase:               state.TurnActions,
		RequiredActions:     required,
		CompletedActions:    []state.CompletedAction{},
		LastActionTimestamp: now,
	}
	recount(ts)
	return ts
}

// CompleteAction returns a new turn state where the first pending required
// action of the given type is marked complete. A card action only matches a
// required card action of the same card type when details names one. The
// action is appended to the completed log either way; matched reports
// whether a required action was satisfied.
func CompleteAction(ts *state.TurnState, actionType state.ActionType, details state.ActionDetails, now time.Time) (*state.TurnState, bool) {
	next := ts.Clone()
	matched := false
	for i, action := range next.RequiredActions {
		if action.Completed || action.Type != actionType {
			continue
		}
		if actionType == state.ActionCard && details.CardType != "" && action.Details.CardType != details.CardType {
			continue
		}
		next.RequiredActions[i].Completed = true
		next.RequiredActions[i].CompletedAt = now
		matched = true
		break
	}

	next.CompletedActions = append(next.CompletedActions, state.CompletedAction{
		Type:        actionType,
		Details:     details,
		CompletedAt: now,
	})
	next.LastActionTimestamp = now
	recount(next)
	return next, matched
}

// HasPending reports whether the turn still has a required action of the
// given type. For card actions a non-empty cardType must match.
func HasPending(ts *state.TurnState, actionType state.ActionType, cardType state.CardType) bool {
	if ts == nil {
		return false
	}
	for _, action := range ts.RequiredActions {
		if action.Completed || action.Type != actionType {
			continue
		}
		if actionType == state.ActionCard && cardType != "" && action.Details.CardType != cardType {
			continue
		}
		return true
	}
	return false
}

func recount(ts *state.TurnState) {
	required, completed := 0, 0
	for _, a := range ts.RequiredActions {
		if !a.Required {
			continue
		}
		required++
		if a.Completed {
			completed++
		}
	}
	ts.ActionCounts = state.ActionCounts{Required: required, Completed: completed}
	ts.CanEndTurn = completed >= required
}

// Rotation is the outcome of advancing the turn order.
type Rotation struct {
	Index   int  // index of the new current player
	Skipped int  // index of the player whose turn was skipped, or -1
	Wrapped bool // the advance passed index 0, completing a round
}

// NextPlayer advances from current to the next seat, wrapping at the end.
// A next player flagged with SkipNextTurn is passed over once; clearing the
// flag is the caller's job.
func NextPlayer(players []*state.Player, current int) Rotation {
	n := len(players)
	if n == 0 {
		return Rotation{Index: -1, Skipped: -1}
	}

	r := Rotation{Skipped: -1}
	next := (current + 1) % n
	if next == 0 {
		r.Wrapped = true
	}
	if n > 1 && players[next].SkipNextTurn {
		r.Skipped = next
		next = (next + 1) % n
		if next == 0 {
			r.Wrapped = true
		}
	}
	r.Index = next
	return r
}
