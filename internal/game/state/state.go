// Package state defines the game state tree. A committed GameState is an
// immutable value: mutations build a new GameState that shares every
// untouched Player with the previous one.
package state

import (
	"time"
)

// GamePhase is the overall lifecycle of a game.
type GamePhase string

const (
	PhaseSetup     GamePhase = "SETUP"
	PhasePlaying   GamePhase = "PLAYING"
	PhaseCompleted GamePhase = "COMPLETED"
)

// Settings configures a game.
type Settings struct {
	MaxPlayers    int    `json:"maxPlayers"`
	WinCondition  string `json:"winCondition"`
	Debug         bool   `json:"debug"`
	StartingSpace string `json:"startingSpace,omitempty"`
}

// DefaultSettings returns the settings used when none are supplied.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:   4,
		WinCondition: "lowest_time",
	}
}

// UIState holds transient flags owned by the UI but stored centrally.
type UIState struct {
	ActiveModal     string `json:"activeModal"`
	Loading         bool   `json:"loading"`
	DiceModalActive bool   `json:"diceModalActive"`
}

// GameState is the root aggregate.
type GameState struct {
	GamePhase     GamePhase  `json:"gamePhase"`
	CurrentPlayer string     `json:"currentPlayer"`
	TurnCount     int        `json:"turnCount"`
	Players       []*Player  `json:"players"`
	CurrentTurn   *TurnState `json:"currentTurn"`
	Settings      Settings   `json:"gameSettings"`
	UI            UIState    `json:"ui"`
	Error         string     `json:"error,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// New returns the initial SETUP state.
func New() *GameState {
	return &GameState{
		GamePhase: PhaseSetup,
		Players:   []*Player{},
		Settings:  DefaultSettings(),
		UpdatedAt: time.Now(),
	}
}

// Player finds a player and its index in turn order.
func (s *GameState) Player(id string) (*Player, int) {
	for i, p := range s.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// CurrentPlayerIndex returns the turn-order index of the current player, or -1.
func (s *GameState) CurrentPlayerIndex() int {
	_, i := s.Player(s.CurrentPlayer)
	return i
}

// Clone returns a deep copy that shares nothing with s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.Clone()
	}
	cp.CurrentTurn = s.CurrentTurn.Clone()
	return &cp
}

// StateUpdate is a partial update merged into the current state by the
// manager. Nested Settings and UI updates merge field by field; Players and
// CurrentTurn replace the current value wholesale.
type StateUpdate struct {
	GamePhase     *GamePhase      `json:"gamePhase,omitempty"`
	CurrentPlayer *string         `json:"currentPlayer,omitempty"`
	TurnCount     *int            `json:"turnCount,omitempty"`
	Players       []*Player       `json:"players,omitempty"`
	CurrentTurn   *TurnState      `json:"currentTurn,omitempty"`
	Settings      *SettingsUpdate `json:"gameSettings,omitempty"`
	UI            *UIUpdate       `json:"ui,omitempty"`
	Error         *string         `json:"error,omitempty"`
}

// SettingsUpdate is the nested partial update for Settings.
type SettingsUpdate struct {
	MaxPlayers    *int    `json:"maxPlayers,omitempty"`
	WinCondition  *string `json:"winCondition,omitempty"`
	Debug         *bool   `json:"debug,omitempty"`
	StartingSpace *string `json:"startingSpace,omitempty"`
}

// UIUpdate is the nested partial update for UIState.
type UIUpdate struct {
	ActiveModal     *string `json:"activeModal,omitempty"`
	Loading         *bool   `json:"loading,omitempty"`
	DiceModalActive *bool   `json:"diceModalActive,omitempty"`
}

// Merge returns a new state with the update applied. s is not modified.
func (s *GameState) Merge(u StateUpdate, now time.Time) *GameState {
	next := *s
	if u.GamePhase != nil {
		next.GamePhase = *u.GamePhase
	}
	if u.CurrentPlayer != nil {
		next.CurrentPlayer = *u.CurrentPlayer
	}
	if u.TurnCount != nil {
		next.TurnCount = *u.TurnCount
	}
	if u.Players != nil {
		next.Players = u.Players
	}
	if u.CurrentTurn != nil {
		next.CurrentTurn = u.CurrentTurn
	}
	if u.Settings != nil {
		next.Settings = s.Settings.merge(*u.Settings)
	}
	if u.UI != nil {
		next.UI = s.UI.merge(*u.UI)
	}
	if u.Error != nil {
		next.Error = *u.Error
	}
	next.UpdatedAt = now
	return &next
}

func (s Settings) merge(u SettingsUpdate) Settings {
	if u.MaxPlayers != nil {
		s.MaxPlayers = *u.MaxPlayers
	}
	if u.WinCondition != nil {
		s.WinCondition = *u.WinCondition
	}
	if u.Debug != nil {
		s.Debug = *u.Debug
	}
	if u.StartingSpace != nil {
		s.StartingSpace = *u.StartingSpace
	}
	return s
}

func (ui UIState) merge(u UIUpdate) UIState {
	if u.ActiveModal != nil {
		ui.ActiveModal = *u.ActiveModal
	}
	if u.Loading != nil {
		ui.Loading = *u.Loading
	}
	if u.DiceModalActive != nil {
		ui.DiceModalActive = *u.DiceModalActive
	}
	return ui
}

// Ptr returns a pointer to v; handy for building updates.
func Ptr[T any](v T) *T {
	return &v
}
