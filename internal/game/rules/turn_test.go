package rules

import (
	"testing"
	"time"

	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

func seats(ids ...string) []*state.Player {
	players := make([]*state.Player, len(ids))
	for i, id := range ids {
		players[i] = &state.Player{ID: id}
	}
	return players
}

func TestBuildRequiredActions(t *testing.T) {
	actions := BuildRequiredActions(true, []state.CardType{state.CardTypeWork, state.CardTypeBank})

	if len(actions) != 3 {
		t.Fatalf("expected 3 required actions, got %d", len(actions))
	}
	if actions[0].Type != state.ActionDice {
		t.Fatalf("expected dice action first, got %s", actions[0].Type)
	}
	if actions[2].Details.CardType != state.CardTypeBank {
		t.Fatalf("expected B card action last, got %s", actions[2].Details.CardType)
	}
}

func TestNewTurnStateWithoutActionsCanEnd(t *testing.T) {
	ts := NewTurnState("Alice", 1, nil, time.Now())

	if !ts.CanEndTurn {
		t.Fatal("expected a turn without required actions to be endable")
	}
	if ts.Phase != state.TurnActions {
		t.Fatalf("expected ACTIONS phase, got %s", ts.Phase)
	}
}

func TestCompleteActionGatesTurnEnd(t *testing.T) {
	ts := NewTurnState("Alice", 1, BuildRequiredActions(true, []state.CardType{state.CardTypeWork}), time.Now())
	if ts.CanEndTurn {
		t.Fatal("expected pending actions to block the turn")
	}

	afterDice, matched := CompleteAction(ts, state.ActionDice, state.ActionDetails{}, time.Now())
	if !matched {
		t.Fatal("expected dice action to match")
	}
	if afterDice.CanEndTurn {
		t.Fatal("expected card action to still block the turn")
	}
	if ts.RequiredActions[0].Completed {
		t.Fatal("CompleteAction must not modify its input")
	}

	wrongType, matched := CompleteAction(afterDice, state.ActionCard, state.ActionDetails{CardType: state.CardTypeBank}, time.Now())
	if matched {
		t.Fatal("expected B card action not to satisfy a W requirement")
	}
	if len(wrongType.CompletedActions) != 2 {
		t.Fatalf("expected unmatched action to be logged, got %d entries", len(wrongType.CompletedActions))
	}

	done, matched := CompleteAction(afterDice, state.ActionCard, state.ActionDetails{CardType: state.CardTypeWork}, time.Now())
	if !matched || !done.CanEndTurn {
		t.Fatal("expected all actions complete")
	}
	if done.ActionCounts.Required != 2 || done.ActionCounts.Completed != 2 {
		t.Fatalf("unexpected counts %+v", done.ActionCounts)
	}
}

func TestNextPlayerWrapsOncePerRound(t *testing.T) {
	players := seats("A", "B", "C")

	index := 0
	wraps := 0
	for i := 0; i < 3; i++ {
		r := NextPlayer(players, index)
		if r.Wrapped {
			wraps++
		}
		index = r.Index
	}

	if index != 0 {
		t.Fatalf("expected to return to seat 0, got %d", index)
	}
	if wraps != 1 {
		t.Fatalf("expected exactly one wrap, got %d", wraps)
	}
}

func TestNextPlayerSkipsFlaggedPlayer(t *testing.T) {
	players := seats("A", "B", "C")
	players[1].SkipNextTurn = true

	r := NextPlayer(players, 0)
	if r.Index != 2 {
		t.Fatalf("expected C (2), got %d", r.Index)
	}
	if r.Skipped != 1 {
		t.Fatalf("expected B (1) skipped, got %d", r.Skipped)
	}
	if r.Wrapped {
		t.Fatal("did not pass seat 0")
	}
}

func TestNextPlayerSkipAcrossWrap(t *testing.T) {
	players := seats("A", "B")
	players[0].SkipNextTurn = true

	r := NextPlayer(players, 1)
	if r.Index != 1 || r.Skipped != 0 || !r.Wrapped {
		t.Fatalf("unexpected rotation %+v", r)
	}
}

func TestHasPending(t *testing.T) {
	ts := NewTurnState("Alice", 1, BuildRequiredActions(true, []state.CardType{state.CardTypeWork}), time.Now())

	if !HasPending(ts, state.ActionDice, "") {
		t.Fatal("expected dice action pending")
	}
	if !HasPending(ts, state.ActionCard, state.CardTypeWork) {
		t.Fatal("expected W card action pending")
	}
	if HasPending(ts, state.ActionCard, state.CardTypeBank) {
		t.Fatal("expected no B card action")
	}

	done, _ := CompleteAction(ts, state.ActionDice, state.ActionDetails{}, time.Now())
	if HasPending(done, state.ActionDice, "") {
		t.Fatal("expected dice action done")
	}
	if HasPending(nil, state.ActionDice, "") {
		t.Fatal("expected nil turn to have nothing pending")
	}
}
