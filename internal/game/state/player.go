package state

import (
	"time"
)

// VisitType tells whether a player has been at a space before.
type VisitType string

const (
	VisitFirst      VisitType = "First"
	VisitSubsequent VisitType = "Subsequent"
)

// PlayerSnapshot is captured on arrival at a space and restored when the
// player negotiates.
type PlayerSnapshot struct {
	Space          string      `json:"space"`
	Cards          Hand        `json:"cards"`
	Money          int         `json:"money"`
	TimeSpent      int         `json:"timeSpent"`
	ScopeItems     []ScopeItem `json:"scopeItems"`
	ScopeTotalCost int         `json:"scopeTotalCost"`
	CapturedAt     time.Time   `json:"capturedAt"`
}

// Clone returns an independent copy of the snapshot.
func (s *PlayerSnapshot) Clone() *PlayerSnapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Cards = s.Cards.Clone()
	cp.ScopeItems = append([]ScopeItem{}, s.ScopeItems...)
	return &cp
}

// Player is one seat at the table. Committed Player values are never
// mutated; updates produce a new Player via With.
type Player struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Color              string          `json:"color"`
	Avatar             string          `json:"avatar"`
	Position           string          `json:"position"`
	VisitType          VisitType       `json:"visitType"`
	Money              int             `json:"money"`
	TimeSpent          int             `json:"timeSpent"`
	Cards              Hand            `json:"cards"`
	ScopeItems         []ScopeItem     `json:"scopeItems"`
	ScopeTotalCost     int             `json:"scopeTotalCost"`
	SkipNextTurn       bool            `json:"skipNextTurn"`
	SpaceEntrySnapshot *PlayerSnapshot `json:"spaceEntrySnapshot,omitempty"`
	VisitedSpaces      []string        `json:"visitedSpaces"`
}

// PlayerUpdate lists the fields to change on a player. Nil fields are left
// untouched; slices and hands replace the current value wholesale.
// Scope is not settable: it is recomputed whenever Cards changes the W bucket.
type PlayerUpdate struct {
	Position           *string
	VisitType          *VisitType
	Money              *int
	TimeSpent          *int
	Cards              Hand
	SkipNextTurn       *bool
	SpaceEntrySnapshot *PlayerSnapshot
	ClearSnapshot      bool
	VisitedSpaces      []string
}

// With returns a new player with the update applied.
func (p *Player) With(u PlayerUpdate) *Player {
	next := *p
	if u.Position != nil {
		next.Position = *u.Position
	}
	if u.VisitType != nil {
		next.VisitType = *u.VisitType
	}
	if u.Money != nil {
		next.Money = *u.Money
	}
	if u.TimeSpent != nil {
		next.TimeSpent = *u.TimeSpent
	}
	if u.Cards != nil {
		next.Cards = u.Cards
		next.ScopeItems, next.ScopeTotalCost = ComputeScope(u.Cards[CardTypeWork])
	}
	if u.SkipNextTurn != nil {
		next.SkipNextTurn = *u.SkipNextTurn
	}
	if u.SpaceEntrySnapshot != nil {
		next.SpaceEntrySnapshot = u.SpaceEntrySnapshot
	}
	if u.ClearSnapshot {
		next.SpaceEntrySnapshot = nil
	}
	if u.VisitedSpaces != nil {
		next.VisitedSpaces = u.VisitedSpaces
	}
	return &next
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Cards = p.Cards.Clone()
	cp.ScopeItems = append([]ScopeItem{}, p.ScopeItems...)
	cp.SpaceEntrySnapshot = p.SpaceEntrySnapshot.Clone()
	cp.VisitedSpaces = append([]string{}, p.VisitedSpaces...)
	return &cp
}

// HasVisited reports whether the player has been at the space before.
func (p *Player) HasVisited(space string) bool {
	for _, s := range p.VisitedSpaces {
		if s == space {
			return true
		}
	}
	return false
}

// LoanTotal sums loan_amount over the player's B cards.
func (p *Player) LoanTotal() int {
	total := 0
	for _, c := range p.Cards[CardTypeBank] {
		total += c.Int("loan_amount")
	}
	return total
}

// Snapshot captures the player's cards, money, time and scope.
func (p *Player) Snapshot(now time.Time) *PlayerSnapshot {
	return &PlayerSnapshot{
		Space:          p.Position,
		Cards:          p.Cards.Clone(),
		Money:          p.Money,
		TimeSpent:      p.TimeSpent,
		ScopeItems:     append([]ScopeItem{}, p.ScopeItems...),
		ScopeTotalCost: p.ScopeTotalCost,
		CapturedAt:     now,
	}
}

// PlayerSetup describes a seat when a game is initialised.
type PlayerSetup struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}
