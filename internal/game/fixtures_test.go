package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

const (
	startSpace = "OWNER-SCOPE-INITIATION"
	feeSpace   = "OWNER-FUND-INITIATION"
	diceSpace  = "PM-DECISION-CHECK"
	cardSpace  = "ARCH-INITIATION"
	nextSpace  = "LEND-SCOPE-CHECK"
)

func testDatabase() *data.Database {
	return data.NewDatabase(map[string][]data.Row{
		data.TableSpaces: {
			{"space_name": startSpace, "visit_type": "First", "requires_dice_roll": "No", "is_starting_space": "Yes", "time": "1"},
			{"space_name": feeSpace, "visit_type": "First", "requires_dice_roll": "No", "time": "3 days"},
			{"space_name": diceSpace, "visit_type": "First", "requires_dice_roll": "Yes"},
			{"space_name": cardSpace, "visit_type": "First", "requires_dice_roll": "No", "w_card": "Draw 2"},
			{"space_name": nextSpace, "visit_type": "First", "requires_dice_roll": "No"},
		},
		data.TableSpaceEffects: {
			{"space_name": feeSpace, "visit_type": "First", "effect_type": "e_money", "effect_value": "-500", "condition": "always"},
			{"space_name": feeSpace, "visit_type": "First", "effect_type": "time", "effect_action": "add", "effect_value": "2", "condition": "first_visit"},
			{"space_name": diceSpace, "visit_type": "First", "effect_type": "time", "effect_value": "dice", "roll_1": "1", "roll_2": "2", "roll_3": "3", "roll_4": "4", "roll_5": "5", "roll_6": "6"},
		},
		data.TableDiceOutcomes: {
			{"space_name": diceSpace, "visit_type": "First", "roll_1": nextSpace, "roll_2": nextSpace, "roll_3": feeSpace, "roll_4": feeSpace, "roll_5": nextSpace, "roll_6": nextSpace},
		},
		data.TableDiceEffects: {
			{"space_name": diceSpace, "visit_type": "First", "card_type": "W", "roll_1": "Draw 1", "roll_2": "Draw 2", "roll_3": "No change", "roll_4": "Remove 1", "roll_5": "Replace 1", "roll_6": "Draw 3"},
		},
		data.TableCards: {
			{"card_id": "W001", "card_type": "W", "card_name": "Plumbing", "work_cost": "1000", "work_type_restriction": "Plumbing"},
			{"card_id": "B001", "card_type": "B", "card_name": "Bank Loan", "loan_amount": "100000"},
		},
	})
}

// newTestManager returns a manager over the fixture database with a fixed
// clock and a started two-player game.
func newTestManager(t *testing.T, players ...string) *Manager {
	t.Helper()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(testDatabase(), zaptest.NewLogger(t),
		WithClock(func() time.Time { return clock }),
		WithSeed(7),
	)
	if len(players) == 0 {
		players = []string{"P1", "P2"}
	}
	setups := make([]state.PlayerSetup, len(players))
	for i, id := range players {
		setups[i] = state.PlayerSetup{ID: id, Name: id}
	}
	_, err := m.InitializeGame(setups, nil)
	require.NoError(t, err)
	return m
}

func playerOf(t *testing.T, m *Manager, id string) *state.Player {
	t.Helper()
	p, _ := m.GetState().Player(id)
	require.NotNil(t, p, id)
	return p
}

func catalogCard(t *testing.T, m *Manager, id string) state.Card {
	t.Helper()
	row, ok := m.Source().CardByID(id)
	require.True(t, ok, id)
	c, err := state.NewCard(row)
	require.NoError(t, err)
	return c
}

// collect records every event published on the bus.
func collect(m *Manager) *[]rules.Event {
	var events []rules.Event
	m.Bus().Subscribe(func(e rules.Event) { events = append(events, e) })
	return &events
}

func eventTypes(events []rules.Event) []rules.EventType {
	out := make([]rules.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
