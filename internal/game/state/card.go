package state

import (
	"fmt"
	"strings"

	"github.com/tomaszsb/code2026-sub000/internal/data"
)

// CardType is the deck a card belongs to.
type CardType string

const (
	CardTypeWork      CardType = "W"
	CardTypeBank      CardType = "B"
	CardTypeInvestor  CardType = "I"
	CardTypeLife      CardType = "L"
	CardTypeExpeditor CardType = "E"
)

// CardTypes lists every card type in hand display order.
var CardTypes = []CardType{CardTypeWork, CardTypeBank, CardTypeInvestor, CardTypeLife, CardTypeExpeditor}

// ParseCardType accepts "W", "w", "w_cards", "W cards" and similar spellings.
func ParseCardType(raw string) (CardType, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("empty card type")
	}
	ct := CardType(s[:1])
	for _, known := range CardTypes {
		if ct == known && (len(s) == 1 || !isLetter(s[1])) {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown card type %q", raw)
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// Card is a card in a player's hand. Fields is the catalog attribute bag and
// is shared, never mutated, between copies of the card.
type Card struct {
	ID     string   `json:"card_id"`
	Type   CardType `json:"card_type"`
	Name   string   `json:"card_name,omitempty"`
	Fields data.Row `json:"fields,omitempty"`
}

// NewCard builds a card from a catalog row.
func NewCard(row data.Row) (Card, error) {
	id := row.Get("card_id")
	if id == "" {
		return Card{}, fmt.Errorf("card row has no card_id")
	}
	ct, err := ParseCardType(row.Get("card_type"))
	if err != nil {
		return Card{}, fmt.Errorf("card %s: %w", id, err)
	}
	return Card{
		ID:     id,
		Type:   ct,
		Name:   row.Get("card_name"),
		Fields: row,
	}, nil
}

// Int reads a numeric attribute; absent or malformed values are 0.
func (c Card) Int(field string) int {
	return c.Fields.Int(field)
}

// String reads a text attribute.
func (c Card) String(field string) string {
	return c.Fields.Get(field)
}

// Hand holds a player's cards by type in draw order.
type Hand map[CardType][]Card

// NewHand returns a hand with an empty bucket for every card type.
func NewHand() Hand {
	h := make(Hand, len(CardTypes))
	for _, ct := range CardTypes {
		h[ct] = []Card{}
	}
	return h
}

// Clone copies the bucket slices. Cards are values, so the copy is independent.
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	for ct, cards := range h {
		out[ct] = append([]Card{}, cards...)
	}
	return out
}

// With returns a new hand where the given bucket is replaced.
func (h Hand) With(ct CardType, cards []Card) Hand {
	out := make(Hand, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	out[ct] = cards
	return out
}

// Find locates a card across all buckets.
func (h Hand) Find(cardID string) (Card, int, bool) {
	for _, ct := range CardTypes {
		for i, c := range h[ct] {
			if c.ID == cardID {
				return c, i, true
			}
		}
	}
	return Card{}, -1, false
}

// Without returns a new hand with the card at index i of bucket ct removed.
func (h Hand) Without(ct CardType, i int) Hand {
	bucket := h[ct]
	next := make([]Card, 0, len(bucket)-1)
	next = append(next, bucket[:i]...)
	next = append(next, bucket[i+1:]...)
	return h.With(ct, next)
}

// Count returns the total number of cards held.
func (h Hand) Count() int {
	n := 0
	for _, cards := range h {
		n += len(cards)
	}
	return n
}
