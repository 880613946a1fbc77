package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/game/effects"
	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// MovePlayer sets the player's position and visit type and records the
// space as visited. MovePlayerWithEffects is the entry point for game moves;
// this is the raw position change it builds on.
func (m *Manager) MovePlayer(playerID, space string, visit state.VisitType) (*state.Player, error) {
	if space == "" {
		return nil, fmt.Errorf("move player: %w: destination", ErrMissingArgument)
	}
	if visit == "" {
		visit = state.VisitFirst
	}
	before, after, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		u := state.PlayerUpdate{Position: &space, VisitType: &visit}
		if !p.HasVisited(space) {
			visited := make([]string, len(p.VisitedSpaces), len(p.VisitedSpaces)+1)
			copy(visited, p.VisitedSpaces)
			u.VisitedSpaces = append(visited, space)
		}
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("move player: %w", err)
	}

	m.logger.Debug("player moved",
		zap.String("player_id", playerID),
		zap.String("from", before.Position),
		zap.String("to", space),
		zap.String("visit_type", string(visit)),
	)
	m.bus.Publish(rules.PlayerMoved{PlayerID: playerID, From: before.Position, To: space, VisitType: visit})
	return after, nil
}

// UpdatePlayerMoney adds amount to the player's money. Money may go negative.
func (m *Manager) UpdatePlayerMoney(playerID string, amount int, reason string) (string, error) {
	before, after, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		return state.PlayerUpdate{Money: state.Ptr(p.Money + amount)}, nil
	})
	if err != nil {
		return "", fmt.Errorf("update money: %w", err)
	}
	m.bus.Publish(rules.PlayerMoneyChanged{
		PlayerID: playerID,
		Previous: before.Money,
		Current:  after.Money,
		Amount:   amount,
		Reason:   reason,
	})
	return effects.MoneyMessage(amount), nil
}

// UpdatePlayerTime adds amount days to the player's time spent.
func (m *Manager) UpdatePlayerTime(playerID string, amount int, reason string) (string, error) {
	before, after, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		return state.PlayerUpdate{TimeSpent: state.Ptr(p.TimeSpent + amount)}, nil
	})
	if err != nil {
		return "", fmt.Errorf("update time: %w", err)
	}
	m.bus.Publish(rules.PlayerTimeChanged{
		PlayerID: playerID,
		Previous: before.TimeSpent,
		Current:  after.TimeSpent,
		Amount:   amount,
		Reason:   reason,
	})
	return effects.TimeMessage(amount), nil
}

// SetSkipNextTurn flags the player to be passed over once in the rotation.
func (m *Manager) SetSkipNextTurn(playerID string, skip bool) error {
	_, _, err := m.updatePlayer(playerID, func(*state.Player) (state.PlayerUpdate, error) {
		return state.PlayerUpdate{SkipNextTurn: &skip}, nil
	})
	if err != nil {
		return fmt.Errorf("set skip turn: %w", err)
	}
	m.bus.Publish(rules.PlayerSkipTurnSet{PlayerID: playerID, Skip: skip})
	return nil
}

// SavePlayerSnapshot captures the player's cards, money, time and scope as
// the space entry snapshot.
func (m *Manager) SavePlayerSnapshot(playerID string) (*state.PlayerSnapshot, error) {
	var snap *state.PlayerSnapshot
	_, _, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		snap = p.Snapshot(m.now())
		return state.PlayerUpdate{SpaceEntrySnapshot: snap}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	m.bus.Publish(rules.PlayerSnapshotSaved{PlayerID: playerID, Snapshot: snap})
	return snap, nil
}

// RestorePlayerSnapshot rolls cards, money and scope back to the space
// entry snapshot and adds penalty days to the player's current time. The
// snapshot is kept so the player can negotiate again.
func (m *Manager) RestorePlayerSnapshot(playerID string, penalty int) (*state.Player, error) {
	_, after, err := m.updatePlayer(playerID, func(p *state.Player) (state.PlayerUpdate, error) {
		snap := p.SpaceEntrySnapshot
		if snap == nil {
			return state.PlayerUpdate{}, fmt.Errorf("%w for %s", ErrNoSnapshot, playerID)
		}
		return state.PlayerUpdate{
			Cards:     snap.Cards.Clone(),
			Money:     state.Ptr(snap.Money),
			TimeSpent: state.Ptr(p.TimeSpent + penalty),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	m.logger.Info("player snapshot restored",
		zap.String("player_id", playerID),
		zap.String("space", after.Position),
		zap.Int("penalty", penalty),
	)
	m.bus.Publish(rules.PlayerSnapshotRestored{
		PlayerID:  playerID,
		Space:     after.Position,
		Penalty:   penalty,
		TimeSpent: after.TimeSpent,
	})
	return after, nil
}
