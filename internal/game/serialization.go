package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// StateChecksum is a deterministic fingerprint of a game state.
type StateChecksum struct {
	Hash      string // SHA-256 of the canonical representation
	Timestamp string // when the checksum was computed
	Version   int
}

// ComputeChecksum hashes the parts of the state that define the game:
// phase, rotation, players with their hands, and the current turn's
// progress. Timestamps, UI flags and the last error are left out.
func ComputeChecksum(gs *state.GameState) (*StateChecksum, error) {
	if gs == nil {
		return nil, fmt.Errorf("compute checksum: nil state")
	}
	hash := sha256.New()
	if _, err := hash.Write([]byte(canonical(gs))); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &StateChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}, nil
}

// VerifyChecksum reports whether gs hashes to expected.
func VerifyChecksum(gs *state.GameState, expected *StateChecksum) (bool, error) {
	computed, err := ComputeChecksum(gs)
	if err != nil {
		return false, err
	}
	return computed.Hash == expected.Hash, nil
}

func canonical(gs *state.GameState) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%d|%d|%s\n",
		gs.GamePhase,
		gs.CurrentPlayer,
		gs.TurnCount,
		gs.Settings.MaxPlayers,
		gs.Settings.WinCondition,
	)

	// Player order matters, so players are not sorted.
	for _, p := range gs.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%s|%s|%d|%d|%d|%t\n",
			p.ID,
			p.Name,
			p.Position,
			p.VisitType,
			p.Money,
			p.TimeSpent,
			p.ScopeTotalCost,
			p.SkipNextTurn,
		)
		for _, ct := range state.CardTypes {
			ids := make([]string, len(p.Cards[ct]))
			for i, c := range p.Cards[ct] {
				ids[i] = c.ID
			}
			fmt.Fprintf(&buf, "  %s:%s\n", ct, strings.Join(ids, ","))
		}
		visited := append([]string{}, p.VisitedSpaces...)
		sort.Strings(visited)
		fmt.Fprintf(&buf, "  VISITED:%s\n", strings.Join(visited, ","))
		if snap := p.SpaceEntrySnapshot; snap != nil {
			fmt.Fprintf(&buf, "  SNAPSHOT:%s|%d|%d|%d|%d\n",
				snap.Space, snap.Money, snap.TimeSpent, snap.ScopeTotalCost, snap.Cards.Count())
		}
	}

	if t := gs.CurrentTurn; t != nil {
		fmt.Fprintf(&buf, "TURN:%s|%d|%s|%d/%d|%d|%s\n",
			t.PlayerID,
			t.TurnNumber,
			t.Phase,
			t.ActionCounts.Completed,
			t.ActionCounts.Required,
			t.DiceRoll,
			t.PendingDestination,
		)
	}
	return buf.String()
}

// EncodeState serializes a state with gob.
func EncodeState(gs *state.GameState) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gs); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState reverses EncodeState.
func DecodeState(raw []byte) (*state.GameState, error) {
	var gs state.GameState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&gs); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &gs, nil
}
