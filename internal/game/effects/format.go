package effects

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

var printer = message.NewPrinter(language.English)

// MoneyMessage renders a money delta as "Spent $500" or "Received $1,000".
func MoneyMessage(amount int) string {
	if amount < 0 {
		return printer.Sprintf("Spent $%d", -amount)
	}
	return printer.Sprintf("Received $%d", amount)
}

// TimeMessage renders a time delta as "Spent 5 days" or "Saved 2 days".
func TimeMessage(amount int) string {
	if amount < 0 {
		return printer.Sprintf("Saved %d %s", -amount, plural(-amount, "day", "days"))
	}
	return printer.Sprintf("Spent %d %s", amount, plural(amount, "day", "days"))
}

// CardsMessage renders a card delta as "Drew 3 W cards" or "Discarded 1 B card".
func CardsMessage(cardType state.CardType, amount int) string {
	if amount < 0 {
		return printer.Sprintf("Discarded %d %s %s", -amount, cardType, plural(-amount, "card", "cards"))
	}
	return printer.Sprintf("Drew %d %s %s", amount, cardType, plural(amount, "card", "cards"))
}

// WorkMessage renders work added to scope.
func WorkMessage(workType string, cost int) string {
	return printer.Sprintf("Added $%d of %s work to scope", cost, workType)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
