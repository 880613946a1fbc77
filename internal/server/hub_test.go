package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

type recordingSubmitter struct {
	requests chan rules.Payload
	err      error
}

func (s *recordingSubmitter) Submit(_ context.Context, request rules.Payload) error {
	if s.err != nil {
		return s.err
	}
	s.requests <- request
	return nil
}

type fixedState struct{ gs *state.GameState }

func (f fixedState) GetState() *state.GameState { return f.gs }

func startHub(t *testing.T, submitter Submitter) (*rules.EventBus, *websocket.Conn) {
	t.Helper()
	bus := rules.NewEventBus(zaptest.NewLogger(t))
	gs := state.New()
	gs.TurnCount = 3
	hub := NewHub(bus, submitter, fixedState{gs}, zaptest.NewLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
		srv.Close()
	})
	return bus, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubSendsSnapshotOnConnect(t *testing.T) {
	_, conn := startHub(t, &recordingSubmitter{requests: make(chan rules.Payload, 1)})

	msg := readMessage(t, conn)
	assert.Equal(t, MessageStateSnapshot, msg.Type)

	var gs state.GameState
	require.NoError(t, json.Unmarshal(msg.Payload, &gs))
	assert.Equal(t, 3, gs.TurnCount)
	assert.Equal(t, state.PhaseSetup, gs.GamePhase)
}

func TestHubRelaysBusEvents(t *testing.T) {
	bus, conn := startHub(t, &recordingSubmitter{requests: make(chan rules.Payload, 1)})
	readMessage(t, conn)

	bus.Publish(rules.EndTurnRequested{PlayerID: "P1"})
	bus.Publish(rules.DiceRolled{PlayerID: "P1", Roll: 4, Destination: "LEND-SCOPE-CHECK"})

	msg := readMessage(t, conn)
	assert.Equal(t, string(rules.EventDiceRolled), msg.Type, "requests are not echoed")

	var rolled rules.DiceRolled
	require.NoError(t, json.Unmarshal(msg.Payload, &rolled))
	assert.Equal(t, 4, rolled.Roll)
	assert.Equal(t, "LEND-SCOPE-CHECK", rolled.Destination)
}

func TestHubSubmitsClientRequests(t *testing.T) {
	sub := &recordingSubmitter{requests: make(chan rules.Payload, 1)}
	_, conn := startHub(t, sub)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "diceRollRequested",
		"payload": map[string]any{"playerId": "P2", "roll": 5},
	}))

	select {
	case got := <-sub.requests:
		assert.Equal(t, rules.DiceRollRequested{PlayerID: "P2", Roll: 5}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("request was not submitted")
	}
}

func TestHubRepliesWithErrors(t *testing.T) {
	sub := &recordingSubmitter{requests: make(chan rules.Payload, 1)}
	_, conn := startHub(t, sub)
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "turnAdvanced"}))
	msg = readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Contains(t, string(msg.Payload), "unsupported message type")
}

func TestHubReportsSubmitFailure(t *testing.T) {
	_, conn := startHub(t, &recordingSubmitter{err: errors.New("orchestrator stopped")})
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "endTurnRequested",
		"payload": map[string]any{"playerId": "P1"},
	}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Contains(t, string(msg.Payload), "orchestrator stopped")
}

func TestDecodeRequest(t *testing.T) {
	p, err := DecodeRequest(rules.EventGameStartRequested,
		json.RawMessage(`{"players":[{"id":"P1","name":"Ann"},{"name":"Ben"}]}`))
	require.NoError(t, err)
	start, ok := p.(rules.GameStartRequested)
	require.True(t, ok)
	require.Len(t, start.Players, 2)
	assert.Equal(t, "Ann", start.Players[0].Name)
	assert.Nil(t, start.Settings)

	p, err = DecodeRequest(rules.EventNegotiateRequested, nil)
	require.NoError(t, err)
	assert.Equal(t, rules.NegotiateRequested{}, p)

	_, err = DecodeRequest(rules.EventCardUseRequested, json.RawMessage(`{"cardId": 7}`))
	assert.Error(t, err)

	_, err = DecodeRequest(rules.EventStateChanged, nil)
	assert.Error(t, err)
}

func TestReplyToDisconnectedClientIsDropped(t *testing.T) {
	bus := rules.NewEventBus(zaptest.NewLogger(t))
	hub := NewHub(bus, &recordingSubmitter{}, nil, zaptest.NewLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	gone := &Client{send: make(chan []byte, 1)}
	close(gone.send)
	assert.NotPanics(t, func() { hub.reply(gone, errors.New("late reply")) })

	cancel()
	<-done
	assert.NotPanics(t, func() { hub.reply(gone, errors.New("after shutdown")) })
}
