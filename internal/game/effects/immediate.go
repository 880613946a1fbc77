package effects

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// ImmediateEffect names the handler that runs when a card is used from hand.
type ImmediateEffect string

const (
	EffectWork        ImmediateEffect = "Work"
	EffectLoan        ImmediateEffect = "Loan"
	EffectInvestment  ImmediateEffect = "Investment"
	EffectLifeBalance ImmediateEffect = "Life Balance"
	EffectEfficiency  ImmediateEffect = "Efficiency"
	EffectCard        ImmediateEffect = "Card"
	EffectUnknown     ImmediateEffect = "Unknown"
)

// ParseImmediateEffect reads the card's immediate_effect field. An empty
// field falls back to the handler for the card's type.
func ParseImmediateEffect(card state.Card) ImmediateEffect {
	raw := strings.ToLower(card.String("immediate_effect"))
	raw = strings.NewReplacer("_", " ", "-", " ").Replace(raw)
	switch raw {
	case "":
		return defaultEffect(card.Type)
	case "work", "add work", "work cost", "scope":
		return EffectWork
	case "loan", "bank loan":
		return EffectLoan
	case "investment", "invest":
		return EffectInvestment
	case "life balance", "life", "lifebalance":
		return EffectLifeBalance
	case "efficiency":
		return EffectEfficiency
	case "card", "card effect", "apply card", "expeditor":
		return EffectCard
	}
	return EffectUnknown
}

func defaultEffect(ct state.CardType) ImmediateEffect {
	switch ct {
	case state.CardTypeWork:
		return EffectWork
	case state.CardTypeBank:
		return EffectLoan
	case state.CardTypeInvestor:
		return EffectInvestment
	case state.CardTypeLife:
		return EffectLifeBalance
	case state.CardTypeExpeditor:
		return EffectCard
	}
	return EffectUnknown
}

// Result is the outcome of a successful immediate effect.
type Result struct {
	Effect    ImmediateEffect `json:"effect"`
	Money     int             `json:"money,omitempty"`
	Time      int             `json:"time,omitempty"`
	Work      int             `json:"work,omitempty"`
	Discarded []state.Card    `json:"discarded,omitempty"`
	SkipTurn  bool            `json:"skipTurn,omitempty"`
	Messages  []string        `json:"messages"`
}

// ApplyImmediateEffect dispatches the card to its handler.
func (e *Engine) ApplyImmediateEffect(card state.Card, playerID string) (Result, error) {
	effect := ParseImmediateEffect(card)
	e.logger.Debug("applying immediate effect",
		zap.String("player_id", playerID),
		zap.String("card_id", card.ID),
		zap.String("effect", string(effect)),
	)
	switch effect {
	case EffectWork:
		return e.ApplyWorkEffect(card, playerID)
	case EffectLoan:
		return e.ApplyLoanEffect(card, playerID)
	case EffectInvestment:
		return e.ApplyInvestmentEffect(card, playerID)
	case EffectLifeBalance:
		return e.ApplyLifeBalanceEffect(card, playerID)
	case EffectEfficiency:
		return e.ApplyEfficiencyEffect(card, playerID)
	case EffectCard:
		return e.ApplyCardEffect(card, playerID)
	}
	return Result{}, failure(EffectUnknown, card.ID, "unsupported immediate_effect "+card.String("immediate_effect"))
}

func (e *Engine) validate(effect ImmediateEffect, card state.Card, playerID string) error {
	if playerID == "" {
		return failure(effect, card.ID, "missing player id")
	}
	if card.ID == "" {
		return failure(effect, "", "missing card")
	}
	if e.mutator == nil {
		return failure(effect, card.ID, "no state container")
	}
	return nil
}

// ApplyWorkEffect adds the card's work_cost to the player's scope.
func (e *Engine) ApplyWorkEffect(card state.Card, playerID string) (Result, error) {
	if err := e.validate(EffectWork, card, playerID); err != nil {
		return Result{}, err
	}
	cost := card.Int("work_cost")
	if cost == 0 {
		return Result{}, failure(EffectWork, card.ID, "card has no work_cost")
	}
	msg, err := e.mutator.AddWorkToPlayerScope(playerID, card.String("work_type_restriction"), cost)
	if err != nil {
		return Result{}, err
	}
	return Result{Effect: EffectWork, Work: cost, Messages: []string{msg}}, nil
}

// ApplyLoanEffect credits the card's loan_amount.
func (e *Engine) ApplyLoanEffect(card state.Card, playerID string) (Result, error) {
	return e.applyCredit(EffectLoan, "loan_amount", card, playerID)
}

// ApplyInvestmentEffect credits the card's investment_amount.
func (e *Engine) ApplyInvestmentEffect(card state.Card, playerID string) (Result, error) {
	return e.applyCredit(EffectInvestment, "investment_amount", card, playerID)
}

func (e *Engine) applyCredit(effect ImmediateEffect, field string, card state.Card, playerID string) (Result, error) {
	if err := e.validate(effect, card, playerID); err != nil {
		return Result{}, err
	}
	amount := card.Int(field)
	if amount == 0 {
		return Result{}, failure(effect, card.ID, "card has no "+field)
	}
	msg, err := e.mutator.UpdatePlayerMoney(playerID, amount, reason(effect, card))
	if err != nil {
		return Result{}, err
	}
	return Result{Effect: effect, Money: amount, Messages: []string{msg}}, nil
}

// ApplyLifeBalanceEffect applies time_effect and money_effect.
func (e *Engine) ApplyLifeBalanceEffect(card state.Card, playerID string) (Result, error) {
	return e.applyTimeMoney(EffectLifeBalance, card, playerID)
}

// ApplyEfficiencyEffect applies time_effect and money_effect; both may be
// present on one card.
func (e *Engine) ApplyEfficiencyEffect(card state.Card, playerID string) (Result, error) {
	return e.applyTimeMoney(EffectEfficiency, card, playerID)
}

func (e *Engine) applyTimeMoney(effect ImmediateEffect, card state.Card, playerID string) (Result, error) {
	if err := e.validate(effect, card, playerID); err != nil {
		return Result{}, err
	}
	days := cardDays(card)
	money := card.Int("money_effect")
	if days == 0 && money == 0 {
		return Result{}, failure(effect, card.ID, "card has no time_effect or money_effect")
	}

	res := Result{Effect: effect}
	if days != 0 {
		msg, err := e.mutator.UpdatePlayerTime(playerID, days, reason(effect, card))
		if err != nil {
			return Result{}, err
		}
		res.Time = days
		res.Messages = append(res.Messages, msg)
	}
	if money != 0 {
		msg, err := e.mutator.UpdatePlayerMoney(playerID, money, reason(effect, card))
		if err != nil {
			return res, err
		}
		res.Money = money
		res.Messages = append(res.Messages, msg)
	}
	return res, nil
}

// ApplyCardEffect applies any combination of time_effect, a forced discard
// (discard_cards, optionally limited to target_card_type) and a turn skip
// (turn_effect). It fails only when the card carries none of them.
func (e *Engine) ApplyCardEffect(card state.Card, playerID string) (Result, error) {
	if err := e.validate(EffectCard, card, playerID); err != nil {
		return Result{}, err
	}
	days := cardDays(card)
	discard := card.Int("discard_cards")
	skip := isSkipTurn(card.String("turn_effect"))
	if days == 0 && discard <= 0 && !skip {
		return Result{}, failure(EffectCard, card.ID, "card has no time, discard or turn effect")
	}

	var target state.CardType
	if raw := card.String("target_card_type"); raw != "" {
		ct, err := state.ParseCardType(raw)
		if err != nil {
			return Result{}, failure(EffectCard, card.ID, err.Error())
		}
		target = ct
	}

	res := Result{Effect: EffectCard}
	if days != 0 {
		msg, err := e.mutator.UpdatePlayerTime(playerID, days, reason(EffectCard, card))
		if err != nil {
			return Result{}, err
		}
		res.Time = days
		res.Messages = append(res.Messages, msg)
	}
	if discard > 0 {
		discarded, err := e.mutator.ForcePlayerDiscard(playerID, discard, target)
		if err != nil {
			return res, err
		}
		res.Discarded = discarded
		res.Messages = append(res.Messages, discardMessage(target, len(discarded)))
	}
	if skip {
		if err := e.mutator.SetSkipNextTurn(playerID, true); err != nil {
			return res, err
		}
		res.SkipTurn = true
		res.Messages = append(res.Messages, "Next turn will be skipped")
	}
	return res, nil
}

func discardMessage(target state.CardType, n int) string {
	if target == "" {
		return printer.Sprintf("Discarded %d %s", n, plural(n, "card", "cards"))
	}
	return CardsMessage(target, -n)
}

func isSkipTurn(raw string) bool {
	s := strings.ToLower(raw)
	return strings.Contains(s, "skip") || strings.Contains(s, "lose turn") || strings.Contains(s, "lose next turn")
}

// cardDays reads time_effect, accepting "3" as well as "3 days".
func cardDays(card state.Card) int {
	raw := card.String("time_effect")
	if v, err := data.ParseAmount(raw); err == nil {
		return v
	}
	v, _ := data.LeadingInt(raw)
	return v
}

func reason(effect ImmediateEffect, card state.Card) string {
	name := card.Name
	if name == "" {
		name = card.ID
	}
	return string(effect) + ": " + name
}
