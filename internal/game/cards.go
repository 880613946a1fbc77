package game

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/effects"
	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// AddCardsToPlayer appends cards to the player's cardType bucket. For every
// type except E, each card's loan_amount, investment_amount and
// money_effect are added to money and its time_effect to time in the same
// commit. E cards only take effect when used.
func (m *Manager) AddCardsToPlayer(playerID string, cardType state.CardType, cards []state.Card) ([]string, error) {
	if cardType == "" {
		return nil, fmt.Errorf("add cards: %w: card type", ErrMissingArgument)
	}
	if len(cards) == 0 {
		return nil, nil
	}

	var added []state.Card
	moneyDelta, timeDelta := 0, 0
	before, after, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		added = uniqueCards(p.Cards, cardType, cards)
		bucket := make([]state.Card, 0, len(p.Cards[cardType])+len(added))
		bucket = append(bucket, p.Cards[cardType]...)
		bucket = append(bucket, added...)

		u := state.PlayerUpdate{Cards: p.Cards.With(cardType, bucket)}
		if cardType != state.CardTypeExpeditor {
			for _, c := range added {
				moneyDelta += c.Int("loan_amount") + c.Int("investment_amount") + c.Int("money_effect")
				timeDelta += c.Int("time_effect")
			}
			if moneyDelta != 0 {
				u.Money = state.Ptr(p.Money + moneyDelta)
			}
			if timeDelta != 0 {
				u.TimeSpent = state.Ptr(p.TimeSpent + timeDelta)
			}
		}
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("add cards: %w", err)
	}

	messages := []string{effects.CardsMessage(cardType, len(added))}
	m.bus.Publish(rules.CardsAddedToPlayer{PlayerID: playerID, CardType: cardType, Cards: added})
	if moneyDelta != 0 {
		m.bus.Publish(rules.PlayerMoneyChanged{
			PlayerID: playerID,
			Previous: before.Money,
			Current:  after.Money,
			Amount:   moneyDelta,
			Reason:   fmt.Sprintf("%s cards drawn", cardType),
		})
		messages = append(messages, effects.MoneyMessage(moneyDelta))
	}
	if timeDelta != 0 {
		m.bus.Publish(rules.PlayerTimeChanged{
			PlayerID: playerID,
			Previous: before.TimeSpent,
			Current:  after.TimeSpent,
			Amount:   timeDelta,
			Reason:   fmt.Sprintf("%s cards drawn", cardType),
		})
		messages = append(messages, effects.TimeMessage(timeDelta))
	}
	return messages, nil
}

// uniqueCards tags the cards with cardType and renames any whose id is
// already held, so each card in a hand can be addressed by id.
func uniqueCards(hand state.Hand, cardType state.CardType, cards []state.Card) []state.Card {
	seen := make(map[string]bool, hand.Count()+len(cards))
	for _, bucket := range hand {
		for _, c := range bucket {
			seen[c.ID] = true
		}
	}
	out := make([]state.Card, len(cards))
	for i, c := range cards {
		c.Type = cardType
		if c.ID == "" || seen[c.ID] {
			c.ID = string(cardType) + "-" + uuid.NewString()
		}
		seen[c.ID] = true
		out[i] = c
	}
	return out
}

// DrawCards draws count cards of cardType from the catalog at random and
// adds them to the player. An empty pool is an error: drawing nothing would
// silently change the game.
func (m *Manager) DrawCards(playerID string, cardType state.CardType, count int) ([]state.Card, []string, error) {
	if count <= 0 {
		return nil, nil, nil
	}
	if _, err := m.player(playerID); err != nil {
		return nil, nil, fmt.Errorf("draw cards: %w", err)
	}
	pool := m.source.CardsByType(string(cardType))
	if len(pool) == 0 {
		return nil, nil, fmt.Errorf("draw %d %s: %w", count, cardType, ErrEmptyCardPool)
	}

	drawn := make([]state.Card, 0, count)
	m.rngMu.Lock()
	for i := 0; i < count; i++ {
		row := pool[m.rng.IntN(len(pool))]
		c, err := state.NewCard(row)
		if err != nil {
			m.rngMu.Unlock()
			return nil, nil, fmt.Errorf("draw cards: %w", err)
		}
		drawn = append(drawn, c)
	}
	m.rngMu.Unlock()

	messages, err := m.AddCardsToPlayer(playerID, cardType, drawn)
	if err != nil {
		return nil, nil, err
	}
	return drawn, messages, nil
}

// StubCards generates count placeholder cards of cardType with fresh ids.
// Space effects that grant cards without naming them produce stubs.
func StubCards(cardType state.CardType, count int) []state.Card {
	cards := make([]state.Card, count)
	for i := range cards {
		id := string(cardType) + "-" + uuid.NewString()
		cards[i] = state.Card{
			ID:   id,
			Type: cardType,
			Name: string(cardType) + " card",
			Fields: data.Row{
				"card_id":   id,
				"card_type": string(cardType),
			},
		}
	}
	return cards
}

// UsePlayerCard applies the card's immediate effect and removes it from the
// hand. A failing effect leaves the card in hand and returns the error.
func (m *Manager) UsePlayerCard(playerID, cardID string) (effects.Result, error) {
	if cardID == "" {
		return effects.Result{}, fmt.Errorf("use card: %w: card id", ErrMissingArgument)
	}
	p, err := m.player(playerID)
	if err != nil {
		return effects.Result{}, fmt.Errorf("use card: %w", err)
	}
	card, _, ok := p.Cards.Find(cardID)
	if !ok {
		return effects.Result{}, fmt.Errorf("use card: %w: %s", ErrCardNotFound, cardID)
	}

	result, err := m.engine.WithMutator(cardUse{Manager: m, cardID: cardID}).ApplyImmediateEffect(card, playerID)
	if err != nil {
		m.logger.Info("card effect failed",
			zap.String("player_id", playerID),
			zap.String("card_id", cardID),
			zap.Error(err),
		)
		return effects.Result{}, fmt.Errorf("use card %s: %w", cardID, err)
	}

	// The effect may have removed the card already.
	_, _, err = m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		c, i, ok := p.Cards.Find(cardID)
		if !ok {
			return state.PlayerUpdate{}, nil
		}
		return state.PlayerUpdate{Cards: p.Cards.Without(c.Type, i)}, nil
	})
	if err != nil {
		return result, fmt.Errorf("use card: %w", err)
	}

	m.bus.Publish(rules.CardUsed{
		PlayerID: playerID,
		Card:     card,
		Effect:   string(result.Effect),
		Messages: result.Messages,
	})
	m.bus.Publish(rules.PlayerActionTaken{
		PlayerID:    playerID,
		Action:      "cardUsed",
		Description: fmt.Sprintf("Used %s (%s)", cardLabel(card), result.Effect),
		Timestamp:   m.now(),
	})
	return result, nil
}

// cardUse applies a used card's effects through the manager. Work added to
// the scope replaces the used card in one commit.
type cardUse struct {
	*Manager
	cardID string
}

func (u cardUse) AddWorkToPlayerScope(playerID, workType string, cost int) (string, error) {
	return u.addWork(playerID, workType, cost, u.cardID)
}

func cardLabel(c state.Card) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// ForcePlayerDiscard removes the count oldest cards of cardType. With an
// empty cardType the oldest cards are taken across buckets in W, B, I, L, E
// order. Fewer cards are discarded when the player holds fewer.
func (m *Manager) ForcePlayerDiscard(playerID string, count int, cardType state.CardType) ([]state.Card, error) {
	if count <= 0 {
		return nil, nil
	}
	var discarded []state.Card
	_, _, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		discarded = nil
		hand := p.Cards
		types := state.CardTypes
		if cardType != "" {
			types = []state.CardType{cardType}
		}
		remaining := count
		for _, ct := range types {
			bucket := hand[ct]
			n := min(remaining, len(bucket))
			if n == 0 {
				continue
			}
			discarded = append(discarded, bucket[:n]...)
			hand = hand.With(ct, append([]state.Card{}, bucket[n:]...))
			remaining -= n
			if remaining == 0 {
				break
			}
		}
		if len(discarded) == 0 {
			return state.PlayerUpdate{}, nil
		}
		return state.PlayerUpdate{Cards: hand}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("discard: %w", err)
	}
	if len(discarded) > 0 {
		m.bus.Publish(rules.CardsDiscarded{
			PlayerID: playerID,
			Cards:    discarded,
			Reason:   "forced discard of " + strconv.Itoa(count),
		})
	}
	return discarded, nil
}

// ReplaceCards discards count cards of cardType and draws as many new ones.
func (m *Manager) ReplaceCards(playerID string, cardType state.CardType, count int) ([]string, error) {
	discarded, err := m.ForcePlayerDiscard(playerID, count, cardType)
	if err != nil {
		return nil, err
	}
	if len(discarded) == 0 {
		return nil, nil
	}
	_, messages, err := m.DrawCards(playerID, cardType, len(discarded))
	if err != nil {
		return nil, err
	}
	return append([]string{effects.CardsMessage(cardType, -len(discarded))}, messages...), nil
}

// AddWorkToPlayerScope commits work to the player's scope. The work is held
// as a W card so the scope stays a projection of the W bucket.
func (m *Manager) AddWorkToPlayerScope(playerID, workType string, cost int) (string, error) {
	return m.addWork(playerID, workType, cost, "")
}

// addWork adds a work card to the scope, removing the held card consumed
// when it is non-empty.
func (m *Manager) addWork(playerID, workType string, cost int, consumed string) (string, error) {
	if workType == "" {
		workType = state.DefaultWorkType
	}
	id := "W-" + uuid.NewString()
	work := state.Card{
		ID:   id,
		Type: state.CardTypeWork,
		Name: workType + " work",
		Fields: data.Row{
			"card_id":               id,
			"card_type":             string(state.CardTypeWork),
			"work_cost":             strconv.Itoa(cost),
			"work_type_restriction": workType,
		},
	}
	_, after, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		hand := p.Cards
		if consumed != "" {
			if c, i, ok := hand.Find(consumed); ok {
				hand = hand.Without(c.Type, i)
			}
		}
		bucket := append(append([]state.Card{}, hand[state.CardTypeWork]...), work)
		return state.PlayerUpdate{Cards: hand.With(state.CardTypeWork, bucket)}, nil
	})
	if err != nil {
		return "", fmt.Errorf("add work: %w", err)
	}
	m.bus.Publish(rules.WorkAddedToScope{
		PlayerID:       playerID,
		WorkType:       workType,
		Cost:           cost,
		ScopeTotalCost: after.ScopeTotalCost,
	})
	return effects.WorkMessage(workType, cost), nil
}
