package game

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/game/effects"
	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// MovePlayerWithEffects is the entry point for moving a player during play.
// It moves the player, saves the space entry snapshot, applies the
// destination's space effects in row order and publishes
// playerMovedWithEffects. Every precondition, including that each effect row
// parses and names a known condition, is checked before the first change.
func (m *Manager) MovePlayerWithEffects(playerID, destination string, visit state.VisitType) ([]string, error) {
	if destination == "" {
		return nil, fmt.Errorf("move with effects: %w: destination", ErrMissingArgument)
	}
	if _, err := m.player(playerID); err != nil {
		return nil, fmt.Errorf("move with effects: %w", err)
	}
	if visit == "" {
		visit = state.VisitFirst
	}
	spaceEffects, err := m.spaceEffects(destination, visit)
	if err != nil {
		return nil, fmt.Errorf("move to %s: %w", destination, err)
	}

	if _, err := m.MovePlayer(playerID, destination, visit); err != nil {
		return nil, err
	}
	if _, err := m.SavePlayerSnapshot(playerID); err != nil {
		return nil, err
	}

	messages := []string{}
	for _, effect := range spaceEffects {
		msgs, err := m.processSpaceEffect(playerID, effect)
		if err != nil {
			return messages, fmt.Errorf("move to %s: %w", destination, err)
		}
		messages = append(messages, msgs...)
	}

	m.bus.Publish(rules.PlayerMovedWithEffects{
		PlayerID:  playerID,
		Space:     destination,
		VisitType: visit,
		Messages:  messages,
	})
	return messages, nil
}

// spaceEffects parses the effect rows of a space and checks their condition
// keys. A data source that is not loaded yields no effects.
func (m *Manager) spaceEffects(space string, visit state.VisitType) ([]effects.SpaceEffect, error) {
	if !m.source.Loaded() {
		m.logger.Debug("data not loaded, no space effects", zap.String("space", space))
		return nil, nil
	}
	rows := m.source.SpaceEffects(space, string(visit))
	if len(rows) == 0 {
		m.logger.Debug("no space effects",
			zap.String("space", space),
			zap.String("visit_type", string(visit)),
		)
		return nil, nil
	}
	parsed := make([]effects.SpaceEffect, 0, len(rows))
	for i, row := range rows {
		effect, err := effects.ParseSpaceEffect(row)
		if err != nil {
			return nil, fmt.Errorf("effect row %d: %w", i, err)
		}
		if _, err := m.engine.Condition(effect.Condition()); err != nil {
			return nil, fmt.Errorf("effect row %d: %w", i, err)
		}
		parsed = append(parsed, effect)
	}
	return parsed, nil
}

// processSpaceEffect applies one effect if its condition holds for the
// player as they are now.
func (m *Manager) processSpaceEffect(playerID string, effect effects.SpaceEffect) ([]string, error) {
	gs := m.GetState()
	p, _ := gs.Player(playerID)
	ok, err := m.engine.MeetsCondition(effect.Condition(), gs, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		m.logger.Debug("space effect condition not met",
			zap.String("player_id", playerID),
			zap.String("condition", effect.Condition()),
		)
		return nil, nil
	}

	reason := effect.Description()
	if reason == "" {
		reason = "space effect at " + p.Position
	}

	switch e := effect.(type) {
	case effects.TimeEffect:
		if e.Amount == 0 {
			return nil, nil
		}
		msg, err := m.UpdatePlayerTime(playerID, e.Amount, reason)
		return []string{msg}, err

	case effects.MoneyEffect:
		if e.Amount == 0 {
			return nil, nil
		}
		msg, err := m.UpdatePlayerMoney(playerID, e.Amount, reason)
		return []string{msg}, err

	case effects.CardEffect:
		return m.applyCardEffect(playerID, e)

	case effects.DiceDeferredEffect:
		m.logger.Debug("space effect deferred to dice roll",
			zap.String("player_id", playerID),
			zap.String("kind", e.Kind),
		)
		return nil, nil

	case effects.UnsupportedEffect:
		// Reported without failing the move.
		m.HandleError(e.Err(), "space effect at "+p.Position)
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %T", effects.ErrUnsupportedEffect, effect)
}

func (m *Manager) applyCardEffect(playerID string, e effects.CardEffect) ([]string, error) {
	if e.Count == 0 {
		return nil, nil
	}
	switch e.Action {
	case effects.CardRemove:
		discarded, err := m.ForcePlayerDiscard(playerID, e.Count, e.CardType)
		if err != nil {
			return nil, err
		}
		return []string{effects.CardsMessage(e.CardType, -len(discarded))}, nil

	case effects.CardReplace:
		discarded, err := m.ForcePlayerDiscard(playerID, e.Count, e.CardType)
		if err != nil {
			return nil, err
		}
		msgs, err := m.AddCardsToPlayer(playerID, e.CardType, StubCards(e.CardType, len(discarded)))
		if err != nil {
			return nil, err
		}
		return append([]string{effects.CardsMessage(e.CardType, -len(discarded))}, msgs...), nil
	}
	return m.AddCardsToPlayer(playerID, e.CardType, StubCards(e.CardType, e.Count))
}

// ResolveDiceSpaceEffects applies the dice-deferred effects of the player's
// current space for roll. Card effects whose row has no roll column are
// left to the dice effect table.
func (m *Manager) ResolveDiceSpaceEffects(playerID string, roll int) ([]string, error) {
	p, err := m.player(playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve dice effects: %w", err)
	}
	spaceEffects, err := m.spaceEffects(p.Position, p.VisitType)
	if err != nil {
		return nil, fmt.Errorf("resolve dice effects: %w", err)
	}

	var messages []string
	for _, effect := range spaceEffects {
		deferred, ok := effect.(effects.DiceDeferredEffect)
		if !ok {
			continue
		}
		gs := m.GetState()
		current, _ := gs.Player(playerID)
		met, err := m.engine.MeetsCondition(deferred.Condition(), gs, current)
		if err != nil {
			return messages, err
		}
		if !met {
			continue
		}
		amount, err := m.engine.DiceValue(deferred, roll)
		if err != nil {
			return messages, err
		}
		if amount == 0 {
			continue
		}

		reason := fmt.Sprintf("dice roll %d at %s", roll, p.Position)
		var msgs []string
		switch deferred.Kind {
		case "time":
			var msg string
			msg, err = m.UpdatePlayerTime(playerID, amount, reason)
			msgs = []string{msg}
		case "money":
			var msg string
			msg, err = m.UpdatePlayerMoney(playerID, amount, reason)
			msgs = []string{msg}
		case "cards":
			action := effects.CardDraw
			if amount < 0 {
				action, amount = effects.CardRemove, -amount
			}
			msgs, err = m.applyCardEffect(playerID, effects.CardEffect{CardType: deferred.CardType, Action: action, Count: amount})
		default:
			err = fmt.Errorf("%w: dice %s", effects.ErrUnsupportedEffect, deferred.Kind)
		}
		if err != nil {
			if errors.Is(err, effects.ErrUnsupportedEffect) {
				m.HandleError(err, "dice effect at "+p.Position)
				continue
			}
			return messages, err
		}
		messages = append(messages, msgs...)
	}
	return messages, nil
}
