package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game/effects"
	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

// ErrOrchestratorStopped is returned by Submit after Run has returned.
var ErrOrchestratorStopped = errors.New("orchestrator stopped")

// Roller produces six-sided dice rolls.
type Roller interface {
	Roll() int
}

type randRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller returns a Roller; a zero seed picks a random one.
func NewRoller(seed uint64) Roller {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &randRoller{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (r *randRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(6) + 1
}

// OrchestratorConfig holds the rules the orchestrator applies on top of the
// manager.
type OrchestratorConfig struct {
	// NegotiationPenaltyDays is charged when the current space has no time cost.
	NegotiationPenaltyDays int
	Roller                 Roller
}

// Orchestrator turns UI request events into manager calls. It keeps no
// game state of its own. Requests from concurrent transports are queued
// with Submit and published one at a time by Run.
type Orchestrator struct {
	manager *Manager
	logger  *zap.Logger
	cfg     OrchestratorConfig

	commands chan rules.Payload
	done     chan struct{}
	stopOnce sync.Once
	unsubs   []func()
}

// NewOrchestrator subscribes to the request events on the manager's bus.
func NewOrchestrator(manager *Manager, logger *zap.Logger, cfg OrchestratorConfig) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Roller == nil {
		cfg.Roller = NewRoller(0)
	}
	o := &Orchestrator{
		manager:  manager,
		logger:   logger,
		cfg:      cfg,
		commands: make(chan rules.Payload, 64),
		done:     make(chan struct{}),
	}

	bus := manager.Bus()
	o.unsubs = []func(){
		rules.On(bus, func(p rules.GameStartRequested) {
			_, err := manager.InitializeGame(p.Players, p.Settings)
			o.report(err, "start game")
		}),
		rules.On(bus, func(p rules.DiceRollRequested) {
			_, err := o.RollDice(p.PlayerID, p.Roll)
			o.report(err, "roll dice")
		}),
		rules.On(bus, func(p rules.CardActionRequested) {
			_, err := o.ResolveCardAction(p.PlayerID, p.CardType)
			o.report(err, "card action")
		}),
		rules.On(bus, func(p rules.CardUseRequested) {
			_, err := manager.UsePlayerCard(p.PlayerID, p.CardID)
			o.report(err, "use card")
		}),
		rules.On(bus, func(p rules.MoveRequested) {
			o.report(o.ChooseDestination(p.PlayerID, p.Destination), "choose destination")
		}),
		rules.On(bus, func(p rules.NegotiateRequested) {
			_, err := o.Negotiate(p.PlayerID)
			o.report(err, "negotiate")
		}),
		rules.On(bus, func(p rules.EndTurnRequested) {
			_, err := o.EndTurn(p.PlayerID)
			o.report(err, "end turn")
		}),
	}
	return o
}

func (o *Orchestrator) report(err error, context string) {
	if err != nil {
		o.manager.HandleError(err, context)
	}
}

// Close removes the orchestrator's subscriptions.
func (o *Orchestrator) Close() {
	for _, off := range o.unsubs {
		off()
	}
	o.unsubs = nil
}

// Submit queues a request for Run. It blocks while the queue is full.
func (o *Orchestrator) Submit(ctx context.Context, request rules.Payload) error {
	if !request.EventType().IsRequest() {
		return fmt.Errorf("submit: %s is not a request event", request.EventType())
	}
	select {
	case <-o.done:
		return ErrOrchestratorStopped
	default:
	}
	select {
	case o.commands <- request:
		return nil
	case <-o.done:
		return ErrOrchestratorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run publishes queued requests on the bus until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.stopOnce.Do(func() { close(o.done) })
	o.logger.Info("orchestrator running")
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator stopped")
			return ctx.Err()
		case request := <-o.commands:
			o.manager.Bus().Publish(request)
		}
	}
}

// RollDice rolls for the current player, or uses roll when it is 1-6. It
// applies the space's dice card effects and dice-deferred space effects,
// stores the dice outcome destination and completes the dice action. A roll
// is refused once the turn's dice action is done or when the space has none.
func (o *Orchestrator) RollDice(playerID string, roll int) (int, error) {
	p, err := o.currentPlayer(playerID)
	if err != nil {
		return 0, fmt.Errorf("roll dice: %w", err)
	}
	if err := o.requirePending(playerID, state.ActionDice, ""); err != nil {
		return 0, fmt.Errorf("roll dice: %w", err)
	}
	if roll == 0 {
		roll = o.cfg.Roller.Roll()
	}
	if err := o.manager.RecordDiceRoll(playerID, roll); err != nil {
		return 0, err
	}

	engine := o.manager.Engine()
	messages := []string{fmt.Sprintf("Rolled %d", roll)}
	for _, ct := range engine.DiceEffects(p.Position, p.VisitType) {
		action := engine.ResolveDiceEffect(p.Position, p.VisitType, ct, roll)
		msgs, err := o.applyDiceCardAction(playerID, ct, action)
		if err != nil {
			return roll, fmt.Errorf("roll dice: %w", err)
		}
		messages = append(messages, msgs...)
	}

	msgs, err := o.manager.ResolveDiceSpaceEffects(playerID, roll)
	if err != nil {
		return roll, fmt.Errorf("roll dice: %w", err)
	}
	messages = append(messages, msgs...)

	destination, ok := engine.DiceDestination(p.Position, p.VisitType, roll)
	if ok {
		if err := o.manager.SetPendingDestination(playerID, destination); err != nil {
			return roll, err
		}
	}

	o.manager.ProcessPlayerAction(playerID, state.ActionDice, state.ActionDetails{
		Description: fmt.Sprintf("Rolled %d", roll),
	})
	o.manager.Bus().Publish(rules.DiceRolled{
		PlayerID:    playerID,
		Roll:        roll,
		Destination: destination,
		Messages:    messages,
	})
	return roll, nil
}

func (o *Orchestrator) applyDiceCardAction(playerID string, ct state.CardType, action effects.DiceCardAction) ([]string, error) {
	if action.Count == 0 {
		return nil, nil
	}
	switch action.Action {
	case effects.CardDraw:
		_, msgs, err := o.manager.DrawCards(playerID, ct, action.Count)
		return msgs, err
	case effects.CardRemove:
		discarded, err := o.manager.ForcePlayerDiscard(playerID, action.Count, ct)
		if err != nil {
			return nil, err
		}
		return []string{effects.CardsMessage(ct, -len(discarded))}, nil
	case effects.CardReplace:
		return o.manager.ReplaceCards(playerID, ct, action.Count)
	}
	return nil, nil
}

// ResolveCardAction resolves the card offer of the player's space for
// cardType and completes the matching card action. The space column reads
// like a dice cell ("Draw 2") or a plain count; anything else draws one.
// The turn must have a pending card action for cardType.
func (o *Orchestrator) ResolveCardAction(playerID string, cardType state.CardType) ([]string, error) {
	p, err := o.currentPlayer(playerID)
	if err != nil {
		return nil, fmt.Errorf("card action: %w", err)
	}
	if cardType == "" {
		return nil, fmt.Errorf("card action: %w: card type", ErrMissingArgument)
	}
	if err := o.requirePending(playerID, state.ActionCard, cardType); err != nil {
		return nil, fmt.Errorf("card action: %w", err)
	}

	action := effects.DiceCardAction{Action: effects.CardDraw, Count: 1}
	if row, ok := o.manager.Source().Space(p.Position, string(p.VisitType)); ok {
		raw := row.Get(cardColumns[cardType])
		if parsed, ok := effects.ParseCardAction(raw); ok && parsed.Count > 0 {
			action = parsed
		} else if n, err := data.ParseAmount(raw); err == nil && n > 0 {
			action.Count = n
		}
	}

	msgs, err := o.applyDiceCardAction(playerID, cardType, action)
	if err != nil {
		return nil, fmt.Errorf("card action: %w", err)
	}
	o.manager.ProcessPlayerAction(playerID, state.ActionCard, state.ActionDetails{
		CardType:    cardType,
		Description: fmt.Sprintf("%s %d %s", action.Action, action.Count, cardType),
	})
	return msgs, nil
}

// ChooseDestination records the player's chosen next space; the move
// happens at end of turn.
func (o *Orchestrator) ChooseDestination(playerID, destination string) error {
	if destination == "" {
		return fmt.Errorf("choose destination: %w: destination", ErrMissingArgument)
	}
	return o.manager.SetPendingDestination(playerID, destination)
}

// Negotiate rolls the player back to their space entry snapshot. The
// penalty is the space's time cost, or the configured default when the
// space has none. The turn's actions start over.
func (o *Orchestrator) Negotiate(playerID string) (*state.Player, error) {
	p, err := o.currentPlayer(playerID)
	if err != nil {
		return nil, fmt.Errorf("negotiate: %w", err)
	}
	penalty := o.negotiationPenalty(p)
	restored, err := o.manager.RestorePlayerSnapshot(playerID, penalty)
	if err != nil {
		return nil, err
	}
	if err := o.manager.SetPendingDestination(playerID, ""); err != nil {
		return nil, err
	}
	if _, err := o.manager.InitializeTurnActions(playerID); err != nil {
		return nil, err
	}
	o.manager.Bus().Publish(rules.PlayerActionTaken{
		PlayerID:    playerID,
		Action:      "negotiate",
		Description: fmt.Sprintf("Negotiated at %s: %s", p.Position, effects.TimeMessage(penalty)),
		Timestamp:   o.manager.now(),
	})
	return restored, nil
}

func (o *Orchestrator) negotiationPenalty(p *state.Player) int {
	if row, ok := o.manager.Source().Space(p.Position, string(p.VisitType)); ok && row.Has("time") {
		if days, err := data.ParseAmount(row.Get("time")); err == nil {
			return days
		}
		if days, ok := data.LeadingInt(row.Get("time")); ok {
			return days
		}
	}
	return o.cfg.NegotiationPenaltyDays
}

// EndTurn moves the player to their pending destination, if any, and then
// passes the turn.
func (o *Orchestrator) EndTurn(playerID string) (*state.GameState, error) {
	if _, err := o.currentPlayer(playerID); err != nil {
		return nil, fmt.Errorf("end turn: %w", err)
	}
	gs := o.manager.GetState()
	turn := gs.CurrentTurn
	if turn != nil && !turn.CanEndTurn {
		return nil, fmt.Errorf("end turn: %w", ErrActionsPending)
	}

	if turn != nil && turn.PendingDestination != "" {
		p, _ := gs.Player(playerID)
		visit := state.VisitFirst
		if p.HasVisited(turn.PendingDestination) {
			visit = state.VisitSubsequent
		}
		if _, err := o.manager.MovePlayerWithEffects(playerID, turn.PendingDestination, visit); err != nil {
			return nil, err
		}
	}
	return o.manager.EndTurn(playerID)
}

func (o *Orchestrator) requirePending(playerID string, actionType state.ActionType, cardType state.CardType) error {
	turn := o.manager.GetState().CurrentTurn
	if turn == nil || turn.PlayerID != playerID || !rules.HasPending(turn, actionType, cardType) {
		if cardType != "" {
			return fmt.Errorf("%w: %s %s", ErrActionNotPending, actionType, cardType)
		}
		return fmt.Errorf("%w: %s", ErrActionNotPending, actionType)
	}
	return nil
}

func (o *Orchestrator) currentPlayer(playerID string) (*state.Player, error) {
	gs := o.manager.GetState()
	if gs.GamePhase != state.PhasePlaying {
		return nil, ErrGameNotStarted
	}
	p, _ := gs.Player(playerID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if gs.CurrentPlayer != playerID {
		return nil, fmt.Errorf("%w: %s", ErrNotCurrentPlayer, playerID)
	}
	return p, nil
}
