package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/bus"
	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/handoff"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/retry"
	"github.com/kingler/v0-jetvision-assistant-sub019/store"
	"github.com/kingler/v0-jetvision-assistant-sub019/workflow"
)

// Workers bundles the specialist agents the orchestrator delegates to, in
// pipeline order.
type Workers struct {
	Analysis        core.Agent
	ClientData      core.Agent
	FlightSearch    core.Agent
	QuoteCollection core.Agent
	Ranking         core.Agent
	EmailDraft      core.Agent
	Delivery        core.Agent
}

// Deps are the substrate services an Orchestrator operates on.
type Deps struct {
	Machine     *workflow.Machine
	Store       store.Store
	Coordinator *handoff.Coordinator
	Bus         *bus.Bus
	Workers     Workers

	// ErrorMonitorID is the escalation target for unrecoverable failures.
	ErrorMonitorID string
}

// OrchestratorOptions tunes orchestrator behavior.
type OrchestratorOptions struct {
	// Retry wraps every pipeline step. Defaults to retry.DefaultConfig.
	Retry retry.Config

	// FailOnZeroQuotes fails the request when the quote window closes with
	// nothing collected. Default is to proceed and let the proposal explain.
	FailOnZeroQuotes bool

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Orchestrator drives one session's proposal requests through the workflow.
// Each Execute call runs the full pipeline for a single request: transition,
// handoff, delegate with retry, store the step artifact, repeat. Any step
// error fails the request exactly once and escalates to the error monitor.
type Orchestrator struct {
	BaseAgent

	machine     *workflow.Machine
	store       store.Store
	coordinator *handoff.Coordinator
	bus         *bus.Bus
	workers     Workers
	monitorID   string

	retry            retry.Config
	failOnZeroQuotes bool
}

// NewOrchestrator constructs an orchestrator bound to the given substrate.
func NewOrchestrator(deps Deps, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{Retry: retry.DefaultConfig, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		BaseAgent:        NewBaseAgent(core.TypeOrchestrator, "proposal-orchestrator", opts.Logger),
		machine:          deps.Machine,
		store:            deps.Store,
		coordinator:      deps.Coordinator,
		bus:              deps.Bus,
		workers:          deps.Workers,
		monitorID:        deps.ErrorMonitorID,
		retry:            opts.Retry,
		failOnZeroQuotes: opts.FailOnZeroQuotes,
	}
}

// step binds one workflow state to the worker that services it and the
// context field its output lands in.
type step struct {
	state  workflow.State
	worker core.Agent
	apply  func(execCtx *core.ExecutionContext, data any) error
}

func (o *Orchestrator) steps() []step {
	return []step{
		{workflow.StateAnalyzing, o.workers.Analysis, func(c *core.ExecutionContext, d any) error {
			trip, ok := d.(*core.TripRequest)
			if !ok {
				return fmt.Errorf("analysis step returned %T, want *core.TripRequest", d)
			}
			c.Trip = trip
			return nil
		}},
		{workflow.StateFetchingClientData, o.workers.ClientData, func(c *core.ExecutionContext, d any) error {
			profile, ok := d.(*core.ClientProfile)
			if !ok {
				return fmt.Errorf("client data step returned %T, want *core.ClientProfile", d)
			}
			c.Client = profile
			return nil
		}},
		{workflow.StateSearchingFlights, o.workers.FlightSearch, func(c *core.ExecutionContext, d any) error {
			flights, ok := d.([]core.FlightOption)
			if !ok {
				return fmt.Errorf("flight search step returned %T, want []core.FlightOption", d)
			}
			c.Flights = flights
			return nil
		}},
		{workflow.StateAwaitingQuotes, o.workers.QuoteCollection, func(c *core.ExecutionContext, d any) error {
			quotes, _ := d.([]core.Quote)
			if len(quotes) == 0 && o.failOnZeroQuotes {
				return fmt.Errorf("quote window closed with no quotes for request %s", c.RequestID)
			}
			c.Quotes = quotes
			return nil
		}},
		{workflow.StateAnalyzingProposals, o.workers.Ranking, func(c *core.ExecutionContext, d any) error {
			ranked, _ := d.([]core.RankedQuote)
			c.Ranked = ranked
			return nil
		}},
		{workflow.StateGeneratingEmail, o.workers.EmailDraft, func(c *core.ExecutionContext, d any) error {
			email, ok := d.(*core.ProposalEmail)
			if !ok {
				return fmt.Errorf("draft step returned %T, want *core.ProposalEmail", d)
			}
			c.Proposal = email
			return nil
		}},
		{workflow.StateSendingProposal, o.workers.Delivery, nil},
	}
}

// Execute implements core.Agent and runs the full pipeline for one request.
// The request id is allocated (and the request persisted) on first use; the
// active workflow entry is always released when the call returns, success or
// not.
func (o *Orchestrator) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	o.beginExecution()

	if execCtx.RequestID == "" {
		id, err := o.store.InsertRequest(ctx, execCtx.SessionID, execCtx.Input)
		if err != nil {
			o.endExecution(nil, 0, err)
			return nil, fmt.Errorf("persist request: %w", err)
		}
		execCtx.RequestID = id
	}

	inst := o.machine.Create(execCtx.RequestID)
	defer o.machine.Release(execCtx.RequestID)

	usage, err := o.run(ctx, inst, execCtx)
	if err != nil {
		o.fail(ctx, inst, execCtx, err)
		o.endExecution(usage, 0, err)
		return nil, err
	}

	if err := o.store.UpdateRequestStatus(ctx, execCtx.RequestID, "completed", ""); err != nil {
		o.logger.Warn("request status update failed", "request_id", execCtx.RequestID, "error", err)
	}

	msg := core.NewMessage(core.MessageTaskCompleted, o.ID())
	msg.Payload = map[string]any{
		"request_id": execCtx.RequestID,
		"session_id": execCtx.SessionID,
		"quotes":     len(execCtx.Quotes),
	}
	o.bus.Publish(msg)

	o.endExecution(usage, 0, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     execCtx.Proposal,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), TokenUsage: usage},
	}, nil
}

// run walks the pipeline steps and finishes with the COMPLETED transition.
// The returned usage aggregates LLM tokens across all steps, including any
// consumed before a failure.
func (o *Orchestrator) run(ctx context.Context, inst *workflow.Instance, execCtx *core.ExecutionContext) (*core.TokenUsage, error) {
	var usage core.TokenUsage

	for _, s := range o.steps() {
		if err := o.machine.Transition(ctx, inst, s.state, s.worker.ID()); err != nil {
			return &usage, err
		}

		task := core.NewTask(fmt.Sprintf("%s for request %s", s.worker.Name(), execCtx.RequestID), map[string]any{
			"request_id": execCtx.RequestID,
		})
		o.coordinator.Handoff(o.ID(), s.worker.ID(), task, map[string]any{
			"request_id": execCtx.RequestID,
			"session_id": execCtx.SessionID,
		}, "pipeline step "+string(s.state))

		result, err := retry.Do(ctx, o.retry, func(ctx context.Context) (*core.ExecutionResult, error) {
			res, err := s.worker.Execute(ctx, execCtx)
			if err != nil {
				if core.IsValidation(err) {
					return nil, retry.Permanent(err)
				}
				return nil, err
			}
			return res, nil
		})
		if err != nil {
			task.SetStatus(core.TaskFailed)
			return &usage, fmt.Errorf("step %s: %w", s.state, err)
		}
		task.SetStatus(core.TaskCompleted)

		if tu := result.Metadata.TokenUsage; tu != nil {
			usage.PromptTokens += tu.PromptTokens
			usage.CompletionTokens += tu.CompletionTokens
			usage.TotalTokens += tu.TotalTokens
		}
		if s.apply != nil {
			if err := s.apply(execCtx, result.Data); err != nil {
				return &usage, err
			}
		}
		o.logger.Info("pipeline step completed",
			"request_id", execCtx.RequestID,
			"state", string(s.state),
			"agent", s.worker.Name(),
			"duration", result.Metadata.ExecutionTime.String())
	}

	return &usage, o.machine.Transition(ctx, inst, workflow.StateCompleted, o.ID())
}

// fail finalizes a broken request: move to FAILED from wherever the pipeline
// actually stopped, persist the failure and escalate to the error monitor.
func (o *Orchestrator) fail(ctx context.Context, inst *workflow.Instance, execCtx *core.ExecutionContext, cause error) {
	if current := inst.Current(); !current.Terminal() {
		if err := o.machine.Transition(ctx, inst, workflow.StateFailed, o.ID()); err != nil {
			o.logger.Error("failed-state transition rejected", "request_id", execCtx.RequestID, "error", err)
		}
	}
	if err := o.store.UpdateRequestStatus(ctx, execCtx.RequestID, "failed", cause.Error()); err != nil {
		o.logger.Warn("request status update failed", "request_id", execCtx.RequestID, "error", err)
	}
	o.coordinator.Escalate(o.ID(), o.monitorID, execCtx.RequestID, cause, map[string]any{
		"session_id": execCtx.SessionID,
	})
}

// Shutdown shuts down the orchestrator and all its workers.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, w := range []core.Agent{
		o.workers.Analysis, o.workers.ClientData, o.workers.FlightSearch,
		o.workers.QuoteCollection, o.workers.Ranking, o.workers.EmailDraft,
		o.workers.Delivery,
	} {
		if w == nil {
			continue
		}
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := o.BaseAgent.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
