package effects

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

var cardActionPattern = regexp.MustCompile(`(?i)^\s*(draw|remove|replace|discard)\s+(\d+)`)

// DiceCardAction is a parsed dice_effects cell such as "Draw 2".
type DiceCardAction struct {
	Action CardAction
	Count  int
}

// Amount is the signed change in hand size the action names: draws and
// replacements are positive, removals negative.
func (a DiceCardAction) Amount() int {
	if a.Action == CardRemove {
		return -a.Count
	}
	return a.Count
}

// ParseCardAction parses "Draw 2", "Remove 1", "Replace 1" and "No change".
// ok is false for text that matches none of these.
func ParseCardAction(text string) (DiceCardAction, bool) {
	t := strings.TrimSpace(text)
	if t == "" || strings.EqualFold(t, "no change") || strings.EqualFold(t, "none") {
		return DiceCardAction{}, true
	}
	m := cardActionPattern.FindStringSubmatch(t)
	if m == nil {
		return DiceCardAction{}, false
	}
	count, err := strconv.Atoi(m[2])
	if err != nil {
		return DiceCardAction{}, false
	}
	action := CardAction(strings.ToLower(m[1]))
	if action == "discard" {
		action = CardRemove
	}
	return DiceCardAction{Action: action, Count: count}, true
}

// ResolveDiceEffect reads the roll_N column of the dice effect row for the
// space, visit type and card type. Missing rows and unparseable text give
// the zero action; the latter is logged as a warning.
func (e *Engine) ResolveDiceEffect(space string, visit state.VisitType, cardType state.CardType, roll int) DiceCardAction {
	row, ok := e.source.DiceEffect(space, string(visit), string(cardType))
	if !ok {
		e.logger.Debug("no dice effect",
			zap.String("space", space),
			zap.String("visit_type", string(visit)),
			zap.String("card_type", string(cardType)),
		)
		return DiceCardAction{}
	}
	text := row.Get(rollColumn(roll))
	action, ok := ParseCardAction(text)
	if !ok {
		e.logger.Warn("unparseable dice effect",
			zap.String("space", space),
			zap.String("card_type", string(cardType)),
			zap.Int("roll", roll),
			zap.String("text", text),
		)
		return DiceCardAction{}
	}
	return action
}

// DiceEffects lists the card types with a dice effect row for the space.
func (e *Engine) DiceEffects(space string, visit state.VisitType) []state.CardType {
	var types []state.CardType
	seen := make(map[state.CardType]bool)
	for _, row := range e.source.DiceEffects(space, string(visit)) {
		ct, err := state.ParseCardType(row.Get("card_type"))
		if err != nil {
			e.logger.Warn("dice effect row with bad card type",
				zap.String("space", space),
				zap.String("card_type", row.Get("card_type")),
			)
			continue
		}
		if !seen[ct] {
			seen[ct] = true
			types = append(types, ct)
		}
	}
	return types
}

// DiceDestination returns the destination listed for roll, if any.
func (e *Engine) DiceDestination(space string, visit state.VisitType, roll int) (string, bool) {
	row, ok := e.source.DiceOutcome(space, string(visit))
	if !ok {
		return "", false
	}
	dest := row.Get(rollColumn(roll))
	return dest, dest != ""
}

// DiceValue resolves a deferred effect from the roll_N column of its own
// row. An empty column means the roll has no effect.
func (e *Engine) DiceValue(effect DiceDeferredEffect, roll int) (int, error) {
	raw := effect.Row.Get(rollColumn(roll))
	if raw == "" {
		return 0, nil
	}
	if effect.Kind == "time" {
		return parseDays(raw)
	}
	if effect.Kind == "cards" {
		action, ok := ParseCardAction(raw)
		if ok {
			return action.Amount(), nil
		}
	}
	v, err := parseDays(raw)
	if err != nil {
		return 0, fmt.Errorf("dice %s effect: %w", effect.Kind, err)
	}
	return v, nil
}

func rollColumn(roll int) string {
	return "roll_" + strconv.Itoa(roll)
}
