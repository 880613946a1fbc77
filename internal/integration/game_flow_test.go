package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game"
	"github.com/tomaszsb/code2026-sub000/internal/game/effects"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
	"github.com/tomaszsb/code2026-sub000/internal/server"
)

const dataDir = "../../data"

type gameServerEnv struct {
	manager      *game.Manager
	orchestrator *game.Orchestrator
	conn         *websocket.Conn
	logger       *zap.Logger
}

func newGameServerEnv(t *testing.T) *gameServerEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	db, err := data.LoadDir(dataDir, logger)
	require.NoError(t, err)
	require.True(t, db.Loaded())

	manager := game.NewManager(db, logger, game.WithSeed(11))
	orchestrator := game.NewOrchestrator(manager, logger, game.OrchestratorConfig{
		NegotiationPenaltyDays: 1,
		Roller:                 game.NewRoller(11),
	})
	hub := server.NewHub(manager.Bus(), orchestrator, manager, logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{}, 2)
	go func() {
		_ = orchestrator.Run(ctx)
		stopped <- struct{}{}
	}()
	go func() {
		hub.Run(ctx)
		stopped <- struct{}{}
	}()

	srv := httptest.NewServer(hub)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-stopped
		<-stopped
		orchestrator.Close()
		srv.Close()
	})

	env := &gameServerEnv{manager: manager, orchestrator: orchestrator, conn: conn, logger: logger}
	env.waitFor(t, server.MessageStateSnapshot)
	return env
}

func (env *gameServerEnv) send(t *testing.T, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, env.conn.WriteJSON(server.Message{Type: msgType, Payload: raw}))
}

// waitFor reads messages until one of msgType arrives.
func (env *gameServerEnv) waitFor(t *testing.T, msgType string) server.Message {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, env.conn.SetReadDeadline(deadline))
		var msg server.Message
		require.NoError(t, env.conn.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func (env *gameServerEnv) player(t *testing.T, id string) *state.Player {
	t.Helper()
	p, _ := env.manager.GetState().Player(id)
	require.NotNil(t, p, id)
	return p
}

func TestGameFlowOverWebsocket(t *testing.T) {
	env := newGameServerEnv(t)

	env.send(t, "gameStartRequested", map[string]any{
		"players": []map[string]string{{"id": "A", "name": "Ann"}, {"id": "B", "name": "Ben"}},
	})
	env.waitFor(t, "turnActionsInitialized")

	gs := env.manager.GetState()
	assert.Equal(t, state.PhasePlaying, gs.GamePhase)
	assert.Equal(t, "A", gs.CurrentPlayer)
	assert.Equal(t, 1, gs.TurnCount)
	assert.Equal(t, "OWNER-SCOPE-INITIATION", env.player(t, "A").Position)
	require.NotNil(t, gs.CurrentTurn)
	assert.False(t, gs.CurrentTurn.CanEndTurn, "starting space offers W cards")

	// Ending the turn early is reported, not applied.
	env.send(t, "endTurnRequested", map[string]string{"playerId": "A"})
	errMsg := env.waitFor(t, "errorOccurred")
	assert.Contains(t, string(errMsg.Payload), "required actions")
	assert.Equal(t, "A", env.manager.GetState().CurrentPlayer)

	env.send(t, "cardActionRequested", map[string]string{"playerId": "A", "cardType": "W"})
	env.waitFor(t, "actionCompleted")
	a := env.player(t, "A")
	assert.Len(t, a.Cards[state.CardTypeWork], 3)
	assert.Positive(t, a.ScopeTotalCost)

	env.send(t, "moveRequested", map[string]string{"playerId": "A", "destination": "OWNER-FUND-INITIATION"})
	env.send(t, "endTurnRequested", map[string]string{"playerId": "A"})
	env.waitFor(t, "turnAdvanced")

	a = env.player(t, "A")
	assert.Equal(t, "OWNER-FUND-INITIATION", a.Position)
	assert.Equal(t, -500, a.Money, "application fee applied on arrival")
	assert.Equal(t, "B", env.manager.GetState().CurrentPlayer)
}

func TestNegotiateOverWebsocket(t *testing.T) {
	env := newGameServerEnv(t)

	env.send(t, "gameStartRequested", map[string]any{
		"players": []map[string]string{{"id": "A", "name": "Ann"}},
	})
	env.waitFor(t, "turnActionsInitialized")

	_, err := env.manager.MovePlayerWithEffects("A", "OWNER-FUND-INITIATION", state.VisitFirst)
	require.NoError(t, err)
	require.Equal(t, -500, env.player(t, "A").Money)

	env.send(t, "negotiateRequested", map[string]string{"playerId": "A"})
	env.waitFor(t, "playerSnapshotRestored")

	a := env.player(t, "A")
	assert.Equal(t, 0, a.Money)
	assert.Equal(t, 2, a.TimeSpent, "space time cost is the penalty")
}

// Every effect row shipped in the data directory parses and names a known
// condition.
func TestSampleSpaceEffectsAreValid(t *testing.T) {
	file, err := os.Open(filepath.Join(dataDir, data.TableSpaceEffects+".csv"))
	require.NoError(t, err)
	defer file.Close()

	rows, err := data.ReadCSV(file)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	engine := effects.NewEngine(data.EmptyDatabase(), nil, zaptest.NewLogger(t))
	for i, row := range rows {
		effect, err := effects.ParseSpaceEffect(row)
		require.NoError(t, err, "row %d", i+1)
		_, unsupported := effect.(effects.UnsupportedEffect)
		assert.False(t, unsupported, "row %d", i+1)
		_, err = engine.Condition(effect.Condition())
		assert.NoError(t, err, "row %d", i+1)
	}
}
