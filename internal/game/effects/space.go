package effects

import (
	"fmt"
	"strings"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// DiceSentinel in effect_value defers the effect to the dice roll.
const DiceSentinel = "dice"

// SpaceEffect is one parsed space_effects row. The concrete types are
// TimeEffect, MoneyEffect, CardEffect, DiceDeferredEffect and
// UnsupportedEffect.
type SpaceEffect interface {
	Condition() string
	Description() string
	isSpaceEffect()
}

type effectMeta struct {
	condition   string
	description string
}

func (m effectMeta) Condition() string   { return m.condition }
func (m effectMeta) Description() string { return m.description }
func (effectMeta) isSpaceEffect()        {}

// TimeEffect adds Amount days to the player's time.
type TimeEffect struct {
	effectMeta
	Amount int
}

// MoneyEffect adds Amount to the player's money.
type MoneyEffect struct {
	effectMeta
	Amount int
}

// CardAction is what a card effect does to a hand.
type CardAction string

const (
	CardDraw    CardAction = "draw"
	CardRemove  CardAction = "remove"
	CardReplace CardAction = "replace"
)

// CardEffect draws, removes or replaces Count cards of CardType.
type CardEffect struct {
	effectMeta
	CardType state.CardType
	Action   CardAction
	Count    int
}

// DiceDeferredEffect is resolved once the player rolls. Kind is the
// effect_type of the row and CardType is set for card effects.
type DiceDeferredEffect struct {
	effectMeta
	Kind     string
	CardType state.CardType
	Row      data.Row
}

// UnsupportedEffect is a row with an effect_type no variant covers.
type UnsupportedEffect struct {
	effectMeta
	EffectType string
	Row        data.Row
}

// Err returns ErrUnsupportedEffect naming the effect type.
func (u UnsupportedEffect) Err() error {
	return fmt.Errorf("%w: %q", ErrUnsupportedEffect, u.EffectType)
}

// ParseSpaceEffect converts a space_effects row into its typed variant.
// Malformed values on a known effect type are returned as errors.
func ParseSpaceEffect(row data.Row) (SpaceEffect, error) {
	meta := effectMeta{
		condition:   row.Get("condition"),
		description: row.Get("description"),
	}
	kind := strings.ToLower(row.Get("effect_type"))
	value := row.Get("effect_value")
	action := strings.ToLower(row.Get("effect_action"))

	switch kind {
	case "time", "e_time":
		if isDice(row, value) {
			return DiceDeferredEffect{effectMeta: meta, Kind: "time", Row: row}, nil
		}
		amount, err := parseDays(value)
		if err != nil {
			return nil, fmt.Errorf("time effect: %w", err)
		}
		return TimeEffect{effectMeta: meta, Amount: signed(action, amount)}, nil

	case "money", "e_money", "fee", "fees":
		if isDice(row, value) {
			return DiceDeferredEffect{effectMeta: meta, Kind: "money", Row: row}, nil
		}
		amount, err := data.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("money effect: %w", err)
		}
		return MoneyEffect{effectMeta: meta, Amount: signed(action, amount)}, nil

	case "cards", "e_cards", "w_cards", "b_cards", "i_cards", "l_cards":
		ct, err := effectCardType(kind, row)
		if err != nil {
			return nil, err
		}
		if isDice(row, value) {
			return DiceDeferredEffect{effectMeta: meta, Kind: "cards", CardType: ct, Row: row}, nil
		}
		count, err := data.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("card effect: %w", err)
		}
		cardAction := cardActionFor(action)
		if count < 0 {
			cardAction = CardRemove
			count = -count
		}
		return CardEffect{effectMeta: meta, CardType: ct, Action: cardAction, Count: count}, nil
	}

	return UnsupportedEffect{effectMeta: meta, EffectType: row.Get("effect_type"), Row: row}, nil
}

func isDice(row data.Row, value string) bool {
	return strings.EqualFold(value, DiceSentinel) || (value == "" && row.Bool("use_dice"))
}

// signed applies a subtracting effect_action to a positive amount.
func signed(action string, amount int) int {
	switch action {
	case "subtract", "remove", "lose", "pay", "spend", "decrease":
		if amount > 0 {
			return -amount
		}
	}
	return amount
}

func cardActionFor(action string) CardAction {
	switch action {
	case "remove", "discard", "subtract", "lose":
		return CardRemove
	case "replace":
		return CardReplace
	}
	return CardDraw
}

// effectCardType reads the card type from a w_cards style effect type, or
// from the card_type column for generic card effects.
func effectCardType(kind string, row data.Row) (state.CardType, error) {
	if kind != "cards" && kind != "e_cards" {
		return state.ParseCardType(kind)
	}
	if row.Has("card_type") {
		return state.ParseCardType(row.Get("card_type"))
	}
	if kind == "e_cards" {
		return state.CardTypeExpeditor, nil
	}
	return "", fmt.Errorf("card effect for %s has no card_type", row.Get("space_name"))
}

// parseDays accepts "5", "-2" and "5 days".
func parseDays(raw string) (int, error) {
	if v, err := data.ParseAmount(raw); err == nil {
		return v, nil
	}
	if v, ok := data.LeadingInt(raw); ok {
		return v, nil
	}
	return 0, fmt.Errorf("invalid days %q", raw)
}
