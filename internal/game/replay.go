package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

const replayVersion = 1

// Replay is a journal of game states, one per turn boundary. Committed
// states are immutable, so they are stored without copying.
type Replay struct {
	GameID       string
	States       []*state.GameState
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		States: make([]*state.GameState, 0),
	}
}

// RecordState appends a state.
func (r *Replay) RecordState(gs *state.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.States = append(r.States, gs)
}

// Start rewinds playback.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the state at the cursor and advances it.
func (r *Replay) Next() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex < len(r.States) {
		gs := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return gs
	}
	return nil
}

// Previous moves the cursor back and returns that state.
func (r *Replay) Previous() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.States)
}

// StateAt returns the state at index, or nil.
func (r *Replay) StateAt(index int) *state.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

type replayMetadata struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	StateCount int
	Checksum   string // of the last state
}

func replayPath(directory, gameID string) string {
	return filepath.Join(directory, gameID+".replay")
}

// SaveToFile writes the replay as gzipped gob to <directory>/<id>.replay.
func (r *Replay) SaveToFile(directory string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	filename := replayPath(directory, r.GameID)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gz)

	meta := replayMetadata{
		GameID:     r.GameID,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		StateCount: len(r.States),
	}
	if n := len(r.States); n > 0 {
		sum, err := ComputeChecksum(r.States[n-1])
		if err != nil {
			return "", err
		}
		meta.Checksum = sum.Hash
	}
	if err := encoder.Encode(&meta); err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, gs := range r.States {
		if err := encoder.Encode(gs); err != nil {
			return "", fmt.Errorf("failed to encode state %d: %w", i, err)
		}
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("failed to flush replay: %w", err)
	}
	return filename, nil
}

// LoadReplayFromFile reads a replay and verifies the checksum of its last
// state.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()
	decoder := gob.NewDecoder(gz)

	var meta replayMetadata
	if err := decoder.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", meta.Version)
	}

	replay := NewReplay(meta.GameID)
	for i := 0; i < meta.StateCount; i++ {
		var gs state.GameState
		if err := decoder.Decode(&gs); err != nil {
			return nil, fmt.Errorf("failed to decode state %d: %w", i, err)
		}
		replay.States = append(replay.States, &gs)
	}

	if n := len(replay.States); n > 0 {
		ok, err := VerifyChecksum(replay.States[n-1], &StateChecksum{Hash: meta.Checksum})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("replay %s: checksum mismatch", gameID)
		}
	}
	return replay, nil
}

// ReplayRecorder journals the manager's state at game start and after
// every turn advance.
type ReplayRecorder struct {
	logger  *zap.Logger
	saveDir string
	manager *Manager

	mu     sync.Mutex
	replay *Replay
	unsubs []func()
}

// NewReplayRecorder attaches a recorder to the manager's bus.
func NewReplayRecorder(manager *Manager, logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	rr := &ReplayRecorder{logger: logger, saveDir: saveDir, manager: manager}
	bus := manager.Bus()
	rr.unsubs = []func(){
		rules.On(bus, func(rules.GameInitialized) { rr.start() }),
		rules.On(bus, func(rules.TurnAdvanced) { rr.record() }),
	}
	return rr
}

func (rr *ReplayRecorder) start() {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.replay = NewReplay(time.Now().UTC().Format("20060102-150405"))
	rr.replay.RecordState(rr.manager.GetState())
	rr.logger.Info("started replay recording", zap.String("game_id", rr.replay.GameID))
}

func (rr *ReplayRecorder) record() {
	rr.mu.Lock()
	replay := rr.replay
	rr.mu.Unlock()
	if replay == nil {
		return
	}
	replay.RecordState(rr.manager.GetState())
	rr.logger.Debug("recorded replay state",
		zap.String("game_id", replay.GameID),
		zap.Int("state_count", replay.Size()),
	)
}

// Replay returns the replay being recorded, if a game has started.
func (rr *ReplayRecorder) Replay() *Replay {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.replay
}

// Save writes the current replay to the save directory.
func (rr *ReplayRecorder) Save() (string, error) {
	replay := rr.Replay()
	if replay == nil {
		return "", fmt.Errorf("no replay recorded")
	}
	filename, err := replay.SaveToFile(rr.saveDir)
	if err != nil {
		return "", fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("game_id", replay.GameID),
		zap.Int("state_count", replay.Size()),
		zap.String("file", filename),
	)
	return filename, nil
}

// Close detaches the recorder from the bus.
func (rr *ReplayRecorder) Close() {
	for _, off := range rr.unsubs {
		off()
	}
	rr.unsubs = nil
}
