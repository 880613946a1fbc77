package effects

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCondition is returned for condition keys outside the allowlist.
	ErrUnknownCondition = errors.New("unknown condition")
	// ErrUnsupportedEffect is returned for space effect rows no variant covers.
	ErrUnsupportedEffect = errors.New("unsupported effect")
	// ErrEffectFailed is wrapped by every EffectError.
	ErrEffectFailed = errors.New("effect failed")
)

// EffectError describes why an immediate effect could not be applied.
// Nothing has been mutated when a handler returns one.
type EffectError struct {
	Effect ImmediateEffect
	CardID string
	Reason string
}

func (e *EffectError) Error() string {
	if e.CardID == "" {
		return fmt.Sprintf("%s effect failed: %s", e.Effect, e.Reason)
	}
	return fmt.Sprintf("%s effect failed for card %s: %s", e.Effect, e.CardID, e.Reason)
}

func (e *EffectError) Unwrap() error {
	return ErrEffectFailed
}

func failure(effect ImmediateEffect, cardID, reason string) *EffectError {
	return &EffectError{Effect: effect, CardID: cardID, Reason: reason}
}
