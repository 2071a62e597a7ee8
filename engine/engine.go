// Package engine is the composition root of the proposal pipeline. It owns
// the shared substrate (registry, factory, bus, workflow machine, store,
// session cache), registers the worker constructors and exposes the
// request-processing entry points callers use.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/agent"
	"github.com/kingler/v0-jetvision-assistant-sub019/bus"
	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/handoff"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/model"
	"github.com/kingler/v0-jetvision-assistant-sub019/registry"
	"github.com/kingler/v0-jetvision-assistant-sub019/retry"
	"github.com/kingler/v0-jetvision-assistant-sub019/session"
	"github.com/kingler/v0-jetvision-assistant-sub019/store"
	"github.com/kingler/v0-jetvision-assistant-sub019/tool"
	"github.com/kingler/v0-jetvision-assistant-sub019/workflow"
)

// Options configures an Engine. The zero value wires stub collaborators and
// an in-memory store, which is the test and example setup.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger

	// Store persists requests and transitions. Defaults to the in-memory
	// store.
	Store store.Store

	// Retry wraps every pipeline step.
	Retry retry.Config

	// QuoteWait bounds quote collection. Defaults to agent.DefaultQuoteWait.
	QuoteWait time.Duration

	// FailOnZeroQuotes fails requests whose quote window closes empty.
	FailOnZeroQuotes bool

	// SessionTTL is the orchestrator cache inactivity threshold.
	SessionTTL time.Duration

	// SweepSchedule is the cron spec of the session sweep. Empty uses the
	// default; "off" disables the background sweep.
	SweepSchedule string

	// External collaborators. Each defaults to its stub.
	Directory tool.ClientDirectory
	Searcher  tool.FlightSearcher
	Collector tool.QuoteCollector
	Sender    tool.EmailSender

	// Breaker, when set, wraps the searcher and sender in circuit breakers.
	Breaker *tool.BreakerConfig
}

// Engine wires the pipeline substrate together and serves proposal requests.
type Engine struct {
	registry *registry.Registry
	factory  *registry.Factory
	bus      *bus.Bus
	machine  *workflow.Machine
	coord    *handoff.Coordinator
	store    store.Store
	sessions *session.Cache
	monitor  *agent.ErrorMonitorAgent
	svc      model.CompletionService
	logger   logging.Logger
	opts     Options
}

// New constructs an Engine around the given completion service.
func New(svc model.CompletionService, optFns ...func(o *Options)) (*Engine, error) {
	if svc == nil {
		return nil, fmt.Errorf("engine: completion service is required")
	}
	opts := Options{
		Logger:    logging.NoOpLogger{},
		Retry:     retry.DefaultConfig,
		QuoteWait: agent.DefaultQuoteWait,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = store.NewInMemoryStore()
	}
	if opts.Directory == nil {
		opts.Directory = tool.StubClientDirectory{}
	}
	if opts.Searcher == nil {
		opts.Searcher = tool.StubFlightSearcher{}
	}
	if opts.Collector == nil {
		opts.Collector = tool.StubQuoteCollector{}
	}
	if opts.Sender == nil {
		opts.Sender = tool.NewStubEmailSender()
	}
	if opts.Breaker != nil {
		opts.Searcher = tool.NewBreakerSearcher(opts.Searcher, *opts.Breaker, opts.Logger)
		opts.Sender = tool.NewBreakerSender(opts.Sender, *opts.Breaker, opts.Logger)
	}

	reg := registry.NewRegistry()
	b := bus.New(func(o *bus.Options) { o.Logger = opts.Logger })

	e := &Engine{
		registry: reg,
		factory:  registry.NewFactory(reg),
		bus:      b,
		machine: workflow.NewMachine(func(o *workflow.MachineOptions) {
			o.Store = opts.Store
			o.Logger = opts.Logger
		}),
		coord:  handoff.NewCoordinator(b, func(o *handoff.Options) { o.Logger = opts.Logger }),
		store:  opts.Store,
		svc:    svc,
		logger: opts.Logger,
		opts:   opts,
	}

	e.monitor = agent.NewErrorMonitorAgent(b, opts.Logger)
	if err := reg.Register(e.monitor); err != nil {
		return nil, err
	}

	e.registerConstructors()

	e.sessions = session.NewCache(e.newSessionOrchestrator, func(o *session.Options) {
		if opts.SessionTTL > 0 {
			o.TTL = opts.SessionTTL
		}
		if opts.SweepSchedule != "" {
			o.SweepSchedule = opts.SweepSchedule
		}
		o.Logger = opts.Logger
	})
	if opts.SweepSchedule != "off" {
		if err := e.sessions.StartSweep(opts.SweepSchedule); err != nil {
			return nil, fmt.Errorf("start session sweep: %w", err)
		}
	}
	return e, nil
}

// registerConstructors binds every worker type tag to its constructor so
// callers can also create workers through the factory directly.
func (e *Engine) registerConstructors() {
	e.factory.RegisterType(core.TypeAnalysis, func(core.AgentConfig) (core.Agent, error) {
		return agent.NewAnalysisAgent(e.svc, e.logger), nil
	})
	e.factory.RegisterType(core.TypeClientData, func(core.AgentConfig) (core.Agent, error) {
		return agent.NewClientDataAgent(e.opts.Directory, e.logger), nil
	})
	e.factory.RegisterType(core.TypeFlightSearch, func(core.AgentConfig) (core.Agent, error) {
		return agent.NewFlightSearchAgent(e.opts.Searcher, e.logger), nil
	})
	e.factory.RegisterType(core.TypeQuoteCollection, func(core.AgentConfig) (core.Agent, error) {
		return agent.NewQuoteCollectionAgent(e.opts.Collector, e.opts.QuoteWait, e.logger), nil
	})
	e.factory.RegisterType(core.TypeRanking, func(core.AgentConfig) (core.Agent, error) {
		return agent.NewRankingAgent(e.svc, e.logger), nil
	})
	e.factory.RegisterType(core.TypeEmailDraft, func(core.AgentConfig) (core.Agent, error) {
		return agent.NewEmailDraftAgent(e.svc, e.logger), nil
	})
	e.factory.RegisterType(core.TypeDelivery, func(core.AgentConfig) (core.Agent, error) {
		return agent.NewDeliveryAgent(e.opts.Sender, e.logger), nil
	})
	e.factory.RegisterType(core.TypeOrchestrator, func(cfg core.AgentConfig) (core.Agent, error) {
		return e.buildOrchestrator(cfg)
	})
}

// managedOrchestrator unregisters itself and its workers on shutdown so
// expired sessions do not leak registry entries.
type managedOrchestrator struct {
	*agent.Orchestrator
	registry *registry.Registry
	ids      []string
}

func (m *managedOrchestrator) Shutdown(ctx context.Context) error {
	err := m.Orchestrator.Shutdown(ctx)
	for _, id := range m.ids {
		m.registry.Unregister(id)
	}
	m.registry.Unregister(m.ID())
	return err
}

// buildOrchestrator assembles a full worker set and an orchestrator on top of
// the shared substrate. Workers are created through the factory so they are
// registered and initialized uniformly.
func (e *Engine) buildOrchestrator(cfg core.AgentConfig) (core.Agent, error) {
	ctx := context.Background()
	types := []core.AgentType{
		core.TypeAnalysis, core.TypeClientData, core.TypeFlightSearch,
		core.TypeQuoteCollection, core.TypeRanking, core.TypeEmailDraft,
		core.TypeDelivery,
	}

	created := make([]core.Agent, 0, len(types))
	ids := make([]string, 0, len(types))
	fail := func(err error) (core.Agent, error) {
		for _, id := range ids {
			e.registry.Unregister(id)
		}
		return nil, err
	}
	for _, t := range types {
		w, err := e.factory.CreateAndInitialize(ctx, core.AgentConfig{Type: t, SessionID: cfg.SessionID})
		if err != nil {
			return fail(fmt.Errorf("create %s worker: %w", t, err))
		}
		created = append(created, w)
		ids = append(ids, w.ID())
	}

	orch := agent.NewOrchestrator(agent.Deps{
		Machine:     e.machine,
		Store:       e.store,
		Coordinator: e.coord,
		Bus:         e.bus,
		Workers: agent.Workers{
			Analysis:        created[0],
			ClientData:      created[1],
			FlightSearch:    created[2],
			QuoteCollection: created[3],
			Ranking:         created[4],
			EmailDraft:      created[5],
			Delivery:        created[6],
		},
		ErrorMonitorID: e.monitor.ID(),
	}, func(o *agent.OrchestratorOptions) {
		o.Retry = e.opts.Retry
		o.FailOnZeroQuotes = e.opts.FailOnZeroQuotes
		o.Logger = e.logger
	})

	return &managedOrchestrator{Orchestrator: orch, registry: e.registry, ids: ids}, nil
}

// newSessionOrchestrator is the session cache's miss constructor.
func (e *Engine) newSessionOrchestrator(sessionID string) (core.Agent, error) {
	return e.factory.CreateAndInitialize(context.Background(), core.AgentConfig{
		Type:      core.TypeOrchestrator,
		Name:      "proposal-orchestrator",
		SessionID: sessionID,
	})
}

// ProcessRequest runs the full pipeline for one intake payload within
// sessionID's cached orchestrator. The input map carries at least "message";
// "client_email" supplies a fallback recipient when the message omits one.
func (e *Engine) ProcessRequest(ctx context.Context, sessionID string, input map[string]any) (*core.ExecutionResult, error) {
	orch, err := e.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	execCtx := core.NewExecutionContext("", sessionID, input)
	return orch.Execute(ctx, execCtx)
}

// Orchestrator returns the cached (or freshly constructed) orchestrator for
// sessionID.
func (e *Engine) Orchestrator(sessionID string) (core.Agent, error) {
	return e.sessions.GetOrCreate(sessionID)
}

// ClearSession shuts down and evicts sessionID's orchestrator.
func (e *Engine) ClearSession(ctx context.Context, sessionID string) {
	e.sessions.Clear(ctx, sessionID)
}

// ClearAllSessions shuts down and evicts every cached orchestrator.
func (e *Engine) ClearAllSessions(ctx context.Context) {
	e.sessions.ClearAll(ctx)
}

// SessionInfo returns the active session count and per-session details.
func (e *Engine) SessionInfo() (int, []session.Info) {
	return e.sessions.SessionInfo()
}

// Bus exposes the message bus for external subscribers.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// Store exposes the persistence layer for request lookups.
func (e *Engine) Store() store.Store { return e.store }

// Monitor returns the escalation sink.
func (e *Engine) Monitor() *agent.ErrorMonitorAgent { return e.monitor }

// Status summarizes the engine's live state.
type Status struct {
	ActiveWorkflows int                   `json:"active_workflows"`
	ActiveSessions  int                   `json:"active_sessions"`
	Subscribers     int                   `json:"subscribers"`
	AgentTypes      []registry.TypeStatus `json:"agent_types"`
	Provider        model.Info            `json:"provider"`
}

// Status reports a point-in-time snapshot for operators.
func (e *Engine) Status() Status {
	count, _ := e.sessions.SessionInfo()
	return Status{
		ActiveWorkflows: e.machine.ActiveCount(),
		ActiveSessions:  count,
		Subscribers:     e.bus.SubscriberCount(),
		AgentTypes:      e.factory.Status(),
		Provider:        e.svc.Info(),
	}
}

// Shutdown stops the background sweep, releases every cached session and the
// error monitor, and closes the store when it holds external resources.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.sessions.StopSweep()
	e.sessions.ClearAll(ctx)
	err := e.monitor.Shutdown(ctx)
	e.registry.Unregister(e.monitor.ID())
	if closer, ok := e.store.(io.Closer); ok {
		if closeErr := closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
