package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/storyboard/internal/compiler"
	"github.com/aretw0/storyboard/internal/logging"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/google/uuid"
)

// Engine drives one play session of a (scenario, act) pair over a compiled
// graph. Mutating calls are expected to arrive sequentially from the host;
// the internal lock only protects readers such as Snapshot.
type Engine struct {
	graph      *domain.Graph
	scenarioID string
	actID      string

	progress   ports.ProgressStore
	memoryOnly bool
	tracker    ports.Tracker
	logger     *slog.Logger
	runID      string

	mu          sync.Mutex
	state       *domain.State
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(domain.Snapshot)
}

// New creates an engine for actID of the given graph. An unknown act id falls
// back to the entry act; a nil graph is replaced by the empty terminal graph.
func New(graph *domain.Graph, scenarioID, actID string, opts ...Option) *Engine {
	if graph == nil {
		graph, _ = compiler.New().Compile(nil)
	}
	if _, ok := graph.Act(actID); !ok && len(graph.Acts) > 0 {
		actID = graph.Acts[0].ID
	}

	e := &Engine{
		graph:      graph,
		scenarioID: scenarioID,
		actID:      actID,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	if e.progress == nil {
		e.memoryOnly = true
	}
	return e
}

// Graph returns the compiled graph the engine traverses.
func (e *Engine) Graph() *domain.Graph { return e.graph }

// RunID identifies this engine in telemetry.
func (e *Engine) RunID() string { return e.runID }

// Persistent reports whether progress is still being written to storage.
// It turns false after the first storage failure.
func (e *Engine) Persistent() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.memoryOnly
}

// Start seeds the session: stored progress when it points at a node that
// still exists, else the act's start node with the graph's meter starts.
func (e *Engine) Start(ctx context.Context) domain.Snapshot {
	e.mu.Lock()
	state := e.restore(ctx)
	e.state = state
	e.mu.Unlock()

	e.track(ctx, domain.EventActEnter, state, map[string]any{"resumed": state.CurrentNodeID != e.graph.ActStart(e.actID)})
	e.track(ctx, domain.EventNodeEnter, state, nil)
	return e.publish(state)
}

func (e *Engine) restore(ctx context.Context) *domain.State {
	fresh := domain.NewState(e.scenarioID, e.actID, e.graph.ActStart(e.actID), e.graph.MeterStarts())
	if e.memoryOnly {
		return fresh
	}

	p, err := e.progress.Load(ctx, e.scenarioID, e.actID)
	switch {
	case errors.Is(err, domain.ErrProgressNotFound):
		return fresh
	case err != nil:
		e.degradeLocked("load", err)
		return fresh
	}

	if p.NodeID != domain.TerminalNodeID && !e.graph.Has(p.NodeID) {
		e.logger.Info("stored progress points at a missing node; starting fresh",
			"scenario", e.scenarioID, "act", e.actID, "node", p.NodeID)
		return fresh
	}

	state := fresh.Clone()
	state.CurrentNodeID = p.NodeID
	state.Meters = e.mergeMeters(p.Meters)
	if p.Baseline != nil {
		state.Baseline = e.mergeMeters(p.Baseline)
	} else {
		state.Baseline = e.mergeMeters(p.Meters)
	}
	return state
}

// mergeMeters overlays stored values on the graph's starts, clamped to the
// current configuration. Stored keys the graph no longer defines are kept
// so a later revision of the document can pick them up again.
func (e *Engine) mergeMeters(stored map[string]float64) map[string]float64 {
	out := e.graph.MeterStarts()
	for k, v := range stored {
		if cfg, ok := e.graph.Meters[k]; ok {
			v = cfg.Clamp(v)
		}
		out[k] = v
	}
	return out
}

// State returns a copy of the current state, starting the session if needed.
func (e *Engine) State(ctx context.Context) *domain.State {
	return e.current(ctx).Clone()
}

// Snapshot renders the current state, starting the session if needed.
func (e *Engine) Snapshot(ctx context.Context) domain.Snapshot {
	return e.render(e.current(ctx))
}

func (e *Engine) current(ctx context.Context) *domain.State {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state == nil {
		e.Start(ctx)
		e.mu.Lock()
		state = e.state
		e.mu.Unlock()
	}
	return state
}

// Advance follows the current line or goto node to its successor.
func (e *Engine) Advance(ctx context.Context) (domain.Snapshot, error) {
	state := e.current(ctx)
	node, known := e.graph.Node(state.CurrentNodeID)

	switch {
	case !known || node.Type == domain.NodeTypeEnd:
		return e.reject(ctx, state, "advance", domain.ErrTerminal)
	case node.Type == domain.NodeTypeChoice:
		return e.reject(ctx, state, "advance", domain.ErrInvalidChoice)
	}

	target, ok := e.forward(node)
	if !ok {
		return e.reject(ctx, state, "advance", domain.ErrTerminal)
	}
	return e.transition(ctx, state.Clone(), target), nil
}

// Choose applies the effects of choice index of the current choice node and
// moves to its target.
func (e *Engine) Choose(ctx context.Context, index int) (domain.Snapshot, error) {
	state := e.current(ctx)
	node, _ := e.graph.Node(state.CurrentNodeID)
	if node.Type != domain.NodeTypeChoice || index < 0 || index >= len(node.Choices) {
		return e.reject(ctx, state, "choose", domain.ErrInvalidChoice)
	}

	choice := node.Choices[index]
	next := state.Clone()
	applied := e.applyEffects(next, choice.Effects)

	data := map[string]any{
		"index":   index,
		"label":   choice.Label,
		"to":      choice.To,
		"effects": applied,
	}
	// deltas are the changes left after clamping.
	if diff := domain.Diff(state, next); diff != nil && len(diff.Deltas) > 0 {
		data["deltas"] = diff.Deltas
	}
	e.track(ctx, domain.EventChoiceApply, state, data)
	return e.transition(ctx, next, choice.To), nil
}

// Goto jumps to any node of the graph.
func (e *Engine) Goto(ctx context.Context, nodeID string) (domain.Snapshot, error) {
	state := e.current(ctx)
	if !e.graph.Has(nodeID) {
		return e.reject(ctx, state, "goto", domain.ErrUnknownNode)
	}
	e.track(ctx, domain.EventGoto, state, map[string]any{"from": state.CurrentNodeID, "to": nodeID})
	return e.transition(ctx, state.Clone(), nodeID), nil
}

// ResetAct deletes the act's stored progress and restarts it at its start
// node with the meters restored to the act's baseline.
func (e *Engine) ResetAct(ctx context.Context) domain.Snapshot {
	state := e.current(ctx)

	baseline := state.Baseline
	if len(baseline) == 0 {
		baseline = e.graph.MeterStarts()
	}
	next := domain.NewState(e.scenarioID, state.ActID, e.graph.ActStart(state.ActID), baseline)

	e.mu.Lock()
	if !e.memoryOnly {
		if err := e.progress.Reset(ctx, e.scenarioID, next.ActID); err != nil {
			e.degradeLocked("reset", err)
		}
	}
	e.state = next
	e.persistLocked(ctx, next)
	e.mu.Unlock()

	e.track(ctx, domain.EventRestartAct, next, map[string]any{"from": state.CurrentNodeID})
	e.track(ctx, domain.EventNodeEnter, next, nil)
	return e.publish(next)
}

// transition moves next to target, switching acts when target belongs to a
// different one, then persists and notifies.
func (e *Engine) transition(ctx context.Context, next *domain.State, target string) domain.Snapshot {
	next.CurrentNodeID = target

	enteredAct := false
	if e.graph.Has(target) {
		if act := e.graph.ActOf(target); act != "" && act != next.ActID {
			next.ActID = act
			next.Baseline = copyMeters(next.Meters)
			enteredAct = true
		}
	}

	e.mu.Lock()
	e.state = next
	e.persistLocked(ctx, next)
	e.mu.Unlock()

	if enteredAct {
		e.track(ctx, domain.EventActEnter, next, nil)
	}
	e.track(ctx, domain.EventNodeEnter, next, nil)
	return e.publish(next)
}

// forward resolves where advance leads from a line or goto node.
func (e *Engine) forward(node domain.Node) (string, bool) {
	if node.To == domain.TerminalNodeID || e.graph.Has(node.To) {
		return node.To, true
	}
	if node.To == "" {
		if guess, ok := successorGuess(node.ID); ok && e.graph.Has(guess) {
			return guess, true
		}
	}
	return "", false
}

func (e *Engine) reject(ctx context.Context, state *domain.State, op string, err error) (domain.Snapshot, error) {
	opErr := &InvalidOperationError{Op: op, NodeID: state.CurrentNodeID, Err: err}
	e.logger.Warn("operation rejected", "op", op, "scenario", e.scenarioID, "act", state.ActID,
		"node", state.CurrentNodeID, "err", err)
	return e.render(state), opErr
}

func (e *Engine) persistLocked(ctx context.Context, state *domain.State) {
	if e.memoryOnly {
		return
	}
	if err := e.progress.Save(ctx, e.scenarioID, state.ActID, state.Progress()); err != nil {
		e.degradeLocked("save", err)
	}
}

// degradeLocked switches the session to in-memory mode. It logs once.
func (e *Engine) degradeLocked(op string, err error) {
	if e.memoryOnly {
		return
	}
	e.memoryOnly = true
	e.logger.Warn("progress storage failed; continuing without persistence",
		"op", op, "scenario", e.scenarioID, "err", err)
}
