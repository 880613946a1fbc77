package effects

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// Condition is a predicate over the game and the acting player.
type Condition func(gs *state.GameState, p *state.Player) bool

const (
	loanBandLow  = 1_400_000
	loanBandHigh = 2_750_000
)

func namedConditions() map[string]Condition {
	conds := map[string]Condition{
		"scope_le_4m":        scopeAtMost(4_000_000),
		"scope_gt_4m":        scopeAbove(4_000_000),
		"loan_up_to_1_4m":    loanBetween(0, loanBandLow),
		"loan_1_5m_to_2_75m": loanBetween(loanBandLow, loanBandHigh),
		"loan_above_2_75m":   loanBetween(loanBandHigh, -1),
		"first_visit":        func(_ *state.GameState, p *state.Player) bool { return p.VisitType != state.VisitSubsequent },
		"subsequent_visit":   func(_ *state.GameState, p *state.Player) bool { return p.VisitType == state.VisitSubsequent },
	}
	for roll := 1; roll <= 6; roll++ {
		conds["dice_roll_"+strconv.Itoa(roll)] = diceRollIs(roll)
	}
	return conds
}

func scopeAtMost(limit int) Condition {
	return func(_ *state.GameState, p *state.Player) bool { return p.ScopeTotalCost <= limit }
}

func scopeAbove(limit int) Condition {
	return func(_ *state.GameState, p *state.Player) bool { return p.ScopeTotalCost > limit }
}

// loanBetween matches a B-card loan total in (low, high]; a negative high
// leaves the band open. A zero low includes players without loans.
func loanBetween(low, high int) Condition {
	return func(_ *state.GameState, p *state.Player) bool {
		total := p.LoanTotal()
		if low == 0 && total == 0 {
			return true
		}
		return total > low && (high < 0 || total <= high)
	}
}

func diceRollIs(roll int) Condition {
	return func(gs *state.GameState, _ *state.Player) bool {
		return gs != nil && gs.CurrentTurn != nil && gs.CurrentTurn.DiceRoll == roll
	}
}

// MeetsCondition evaluates a condition key. Empty and "always" are true.
// Named conditions are checked first, then the scope_le_, scope_gt_ and
// dice_roll_ patterns with K/M/B amounts. Any other key returns
// ErrUnknownCondition.
func (e *Engine) MeetsCondition(cond string, gs *state.GameState, p *state.Player) (bool, error) {
	c, err := e.Condition(cond)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, fmt.Errorf("condition %q: no player", cond)
	}
	return c(gs, p), nil
}

// Condition resolves a key to its predicate without evaluating it. Callers
// use it to reject unknown keys before any mutation.
func (e *Engine) Condition(cond string) (Condition, error) {
	key := strings.ToLower(strings.TrimSpace(cond))
	if key == "" || key == "always" {
		return func(*state.GameState, *state.Player) bool { return true }, nil
	}
	if c, ok := e.conditions[key]; ok {
		return c, nil
	}

	switch {
	case strings.HasPrefix(key, "scope_le_"):
		if limit, err := conditionAmount(key, "scope_le_"); err == nil {
			return scopeAtMost(limit), nil
		}
	case strings.HasPrefix(key, "scope_gt_"):
		if limit, err := conditionAmount(key, "scope_gt_"); err == nil {
			return scopeAbove(limit), nil
		}
	case strings.HasPrefix(key, "dice_roll_"):
		if roll, err := strconv.Atoi(strings.TrimPrefix(key, "dice_roll_")); err == nil {
			return diceRollIs(roll), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, cond)
}

// conditionAmount parses the amount after prefix; "1_5m" reads as 1.5M.
func conditionAmount(key, prefix string) (int, error) {
	raw := strings.ReplaceAll(strings.TrimPrefix(key, prefix), "_", ".")
	return data.ParseAmount(raw)
}
