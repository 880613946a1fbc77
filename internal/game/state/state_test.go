package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomaszsb/code2026-sub000/internal/data"
)

func workCard(id, workType string, cost string) Card {
	return Card{
		ID:     id,
		Type:   CardTypeWork,
		Fields: data.Row{"card_id": id, "card_type": "W", "work_type_restriction": workType, "work_cost": cost},
	}
}

func TestComputeScopeAggregatesByWorkType(t *testing.T) {
	items, total := ComputeScope([]Card{
		workCard("W1", "Plumbing", "1000"),
		workCard("W2", "Plumbing", "2000"),
	})

	require.Len(t, items, 1)
	assert.Equal(t, ScopeItem{WorkType: "Plumbing", Cost: 3000, Count: 2}, items[0])
	assert.Equal(t, 3000, total)
}

func TestComputeScopeDefaultsWorkType(t *testing.T) {
	items, total := ComputeScope([]Card{
		workCard("W1", "", "500"),
		workCard("W2", "Electrical", "1.5K"),
	})

	require.Len(t, items, 2)
	assert.Equal(t, DefaultWorkType, items[0].WorkType)
	assert.Equal(t, "Electrical", items[1].WorkType)
	assert.Equal(t, 2000, total)
}

func TestPlayerWithRecomputesScopeFromWorkCards(t *testing.T) {
	p := &Player{ID: "p1", Cards: NewHand()}

	next := p.With(PlayerUpdate{Cards: p.Cards.With(CardTypeWork, []Card{workCard("W1", "Roofing", "4M")})})

	assert.Equal(t, 4000000, next.ScopeTotalCost)
	require.Len(t, next.ScopeItems, 1)
	assert.Empty(t, p.Cards[CardTypeWork], "original player must not change")
	assert.Zero(t, p.ScopeTotalCost)
}

func TestPlayerWithLeavesUnsetFieldsAlone(t *testing.T) {
	p := &Player{ID: "p1", Money: 10, TimeSpent: 3, Position: "A"}

	next := p.With(PlayerUpdate{Money: Ptr(25)})

	assert.Equal(t, 25, next.Money)
	assert.Equal(t, 3, next.TimeSpent)
	assert.Equal(t, "A", next.Position)
	assert.NotSame(t, p, next)
}

func TestHandFindAndWithout(t *testing.T) {
	h := NewHand().With(CardTypeBank, []Card{{ID: "B1", Type: CardTypeBank}, {ID: "B2", Type: CardTypeBank}})

	card, i, ok := h.Find("B2")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, CardTypeBank, card.Type)

	smaller := h.Without(CardTypeBank, i)
	assert.Len(t, smaller[CardTypeBank], 1)
	assert.Len(t, h[CardTypeBank], 2)
	assert.Equal(t, 1, smaller.Count())

	_, _, ok = h.Find("missing")
	assert.False(t, ok)
}

func TestParseCardType(t *testing.T) {
	for in, want := range map[string]CardType{"W": CardTypeWork, "b": CardTypeBank, "i_cards": CardTypeInvestor, "L cards": CardTypeLife, "E": CardTypeExpeditor} {
		got, err := ParseCardType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseCardType("Work")
	assert.Error(t, err)
	_, err = ParseCardType("")
	assert.Error(t, err)
}

func TestMergeRecursesIntoNestedStructs(t *testing.T) {
	s := New()
	s.UI = UIState{ActiveModal: "dice", Loading: true}

	next := s.Merge(StateUpdate{UI: &UIUpdate{Loading: Ptr(false)}}, time.Now())

	assert.Equal(t, "dice", next.UI.ActiveModal, "sibling field must survive the merge")
	assert.False(t, next.UI.Loading)
	assert.True(t, s.UI.Loading, "merge must not mutate the source")
}

func TestMergeReplacesSlicesWholesale(t *testing.T) {
	s := New()
	s.Players = []*Player{{ID: "a"}, {ID: "b"}}

	next := s.Merge(StateUpdate{Players: []*Player{{ID: "c"}}}, time.Now())

	require.Len(t, next.Players, 1)
	assert.Equal(t, "c", next.Players[0].ID)
	assert.Len(t, s.Players, 2)
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.Players = []*Player{{ID: "a", Cards: NewHand(), VisitedSpaces: []string{"X"}}}
	s.CurrentTurn = &TurnState{PlayerID: "a", RequiredActions: []RequiredAction{{Type: ActionDice}}}

	cp := s.Clone()
	cp.Players[0].Money = 99
	cp.Players[0].VisitedSpaces[0] = "Y"
	cp.CurrentTurn.RequiredActions[0].Completed = true

	assert.Zero(t, s.Players[0].Money)
	assert.Equal(t, "X", s.Players[0].VisitedSpaces[0])
	assert.False(t, s.CurrentTurn.RequiredActions[0].Completed)
}

func TestLoanTotal(t *testing.T) {
	p := &Player{Cards: NewHand().With(CardTypeBank, []Card{
		{ID: "B1", Type: CardTypeBank, Fields: data.Row{"loan_amount": "1M"}},
		{ID: "B2", Type: CardTypeBank, Fields: data.Row{"loan_amount": "500K"}},
	})}
	assert.Equal(t, 1500000, p.LoanTotal())
}
