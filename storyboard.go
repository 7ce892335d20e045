package storyboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/storyboard/internal/compiler"
	"github.com/aretw0/storyboard/internal/logging"
	"github.com/aretw0/storyboard/internal/runtime"
	"github.com/aretw0/storyboard/pkg/adapters/file"
	"github.com/aretw0/storyboard/pkg/adapters/memory"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/aretw0/storyboard/pkg/progress"
)

// Session is one play session of a scenario act.
type Session = runtime.Engine

// Warning is a compile diagnostic attached to a loaded scenario.
type Warning = compiler.Warning

// Scenario is a fetched and compiled scenario document.
type Scenario struct {
	ID       string
	Graph    *domain.Graph
	Warnings []Warning
}

// Title returns the compiled title, falling back to the id.
func (s *Scenario) Title() string {
	if s.Graph != nil && s.Graph.Title != "" {
		return s.Graph.Title
	}
	return s.ID
}

// Player is the high-level entry point of the library. It wires a scenario
// source, the compiler and a progress store into play sessions.
type Player struct {
	source       ports.ScenarioSource
	store        ports.KVStore
	prefix       string
	progress     *progress.Store
	logger       *slog.Logger
	tracker      ports.Tracker
	compilerOpts []compiler.Option
}

// Option defines a functional option for configuring the Player.
type Option func(*Player)

// WithSource sets where scenario documents are fetched from.
func WithSource(src ports.ScenarioSource) Option {
	return func(p *Player) {
		p.source = src
	}
}

// WithDir reads scenario documents from a directory.
func WithDir(dir string) Option {
	return func(p *Player) {
		p.source = file.NewSource(dir)
	}
}

// WithStore sets the key/value store backing progress.
// A nil store disables persistence.
func WithStore(kv ports.KVStore) Option {
	return func(p *Player) {
		p.store = kv
	}
}

// WithProgressPrefix overrides the progress key prefix.
func WithProgressPrefix(prefix string) Option {
	return func(p *Player) {
		p.prefix = prefix
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// WithTracker sets the telemetry sink handed to every session.
func WithTracker(t ports.Tracker) Option {
	return func(p *Player) {
		p.tracker = t
	}
}

// WithCompilerOptions passes options to the scenario compiler.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(p *Player) {
		p.compilerOpts = append(p.compilerOpts, opts...)
	}
}

// WithLocales sets the two locale fields consulted for localized text.
func WithLocales(primary, secondary string) Option {
	return WithCompilerOptions(compiler.WithLocales(primary, secondary))
}

// New creates a Player. Without options it reads scenarios from an empty
// in-memory source and keeps progress in memory.
func New(opts ...Option) *Player {
	p := &Player{
		source: memory.NewSource(nil),
		store:  memory.NewStore(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.store != nil {
		var popts []progress.Option
		if p.prefix != "" {
			popts = append(popts, progress.WithPrefix(p.prefix))
		}
		p.progress = progress.New(p.store, popts...)
	}
	return p
}

// Source returns the configured scenario source.
func (p *Player) Source() ports.ScenarioSource { return p.source }

// Progress returns the progress store, or nil when persistence is disabled.
func (p *Player) Progress() *progress.Store { return p.progress }

// Index lists the scenarios available from the source.
func (p *Player) Index(ctx context.Context) ([]domain.ScenarioRef, error) {
	refs, err := p.source.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("index scenarios: %w", err)
	}
	return refs, nil
}

// Load fetches and compiles a scenario. When the document cannot be fetched
// or parsed it still returns a scenario holding the empty terminal graph,
// with an error wrapping domain.ErrLoadFailed so a UI can offer a retry.
func (p *Player) Load(ctx context.Context, id string) (*Scenario, error) {
	c := compiler.New(append([]compiler.Option{compiler.WithLogger(p.logger)}, p.compilerOpts...)...)

	fail := func(err error) (*Scenario, error) {
		graph, _ := c.Compile(nil)
		p.logger.Warn("scenario load failed", "scenario", id, "err", err)
		return &Scenario{ID: id, Graph: graph}, fmt.Errorf("load %q: %w: %w", id, domain.ErrLoadFailed, err)
	}

	doc, err := p.source.Fetch(ctx, id)
	if err != nil {
		return fail(err)
	}
	raw, err := compiler.Decode(doc.Data, doc.Format)
	if err != nil {
		return fail(err)
	}

	graph, warnings := c.Compile(raw)
	for _, w := range warnings {
		p.logger.Debug("compile warning", "scenario", id, "code", w.Code, "node", w.NodeID, "msg", w.Message)
	}
	return &Scenario{ID: id, Graph: graph, Warnings: warnings}, nil
}

// Play opens a session on actID of the scenario. An empty or unknown act id
// plays the entry act. The session restores stored progress on first use.
func (p *Player) Play(ctx context.Context, sc *Scenario, actID string) (*Session, error) {
	if sc == nil {
		return nil, fmt.Errorf("play: nil scenario")
	}

	opts := []runtime.Option{runtime.WithLogger(p.logger)}
	if p.progress != nil {
		opts = append(opts, runtime.WithProgress(p.progress))
	}
	if p.tracker != nil {
		opts = append(opts, runtime.WithTracker(p.tracker))
	}

	session := runtime.New(sc.Graph, sc.ID, actID, opts...)
	session.Start(ctx)
	return session, nil
}

// Reset deletes the stored progress of one scenario act.
func (p *Player) Reset(ctx context.Context, scenarioID, actID string) error {
	if p.progress == nil {
		return nil
	}
	return p.progress.Reset(ctx, scenarioID, actID)
}
