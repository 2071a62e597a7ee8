package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/tool"
)

// ClientDataAgent fetches the requesting client's CRM profile.
type ClientDataAgent struct {
	BaseAgent
	directory tool.ClientDirectory
}

// NewClientDataAgent constructs the client lookup worker.
func NewClientDataAgent(directory tool.ClientDirectory, logger logging.Logger) *ClientDataAgent {
	return &ClientDataAgent{
		BaseAgent: NewBaseAgent(core.TypeClientData, "client-lookup", logger),
		directory: directory,
	}
}

// Execute implements core.Agent. Data carries the *core.ClientProfile.
func (a *ClientDataAgent) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()

	if execCtx.Trip == nil {
		err := fmt.Errorf("client lookup: no trip request in context")
		a.endExecution(nil, 0, err)
		return nil, err
	}
	profile, err := a.directory.Fetch(ctx, execCtx.Trip.ClientEmail)
	if err != nil {
		a.endExecution(nil, 1, err)
		return nil, fmt.Errorf("fetch client profile: %w", err)
	}

	a.endExecution(nil, 1, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     profile,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), ToolCalls: 1},
	}, nil
}

// FlightSearchAgent queries the charter marketplace for candidate flights.
type FlightSearchAgent struct {
	BaseAgent
	searcher tool.FlightSearcher
}

// NewFlightSearchAgent constructs the marketplace search worker.
func NewFlightSearchAgent(searcher tool.FlightSearcher, logger logging.Logger) *FlightSearchAgent {
	return &FlightSearchAgent{
		BaseAgent: NewBaseAgent(core.TypeFlightSearch, "flight-search", logger),
		searcher:  searcher,
	}
}

// Execute implements core.Agent. Data carries []core.FlightOption.
func (a *FlightSearchAgent) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()

	options, err := a.searcher.Search(ctx, execCtx.Trip)
	if err != nil {
		a.endExecution(nil, 1, err)
		return nil, fmt.Errorf("search flights: %w", err)
	}
	if len(options) == 0 {
		err := fmt.Errorf("search flights: no aircraft available for %d passengers", execCtx.Trip.Passengers)
		a.endExecution(nil, 1, err)
		return nil, err
	}

	a.endExecution(nil, 1, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     options,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), ToolCalls: 1},
	}, nil
}

// QuoteCollectionAgent requests operator quotes and waits a bounded time for
// them to arrive. Hitting the deadline is not a failure: whatever was
// collected by then is returned.
type QuoteCollectionAgent struct {
	BaseAgent
	collector tool.QuoteCollector
	wait      time.Duration
}

// DefaultQuoteWait bounds how long the pipeline waits for operator quotes.
const DefaultQuoteWait = 30 * time.Minute

// NewQuoteCollectionAgent constructs the quote collection worker. A
// non-positive wait falls back to DefaultQuoteWait.
func NewQuoteCollectionAgent(collector tool.QuoteCollector, wait time.Duration, logger logging.Logger) *QuoteCollectionAgent {
	if wait <= 0 {
		wait = DefaultQuoteWait
	}
	return &QuoteCollectionAgent{
		BaseAgent: NewBaseAgent(core.TypeQuoteCollection, "quote-collection", logger),
		collector: collector,
		wait:      wait,
	}
}

// Execute implements core.Agent. Data carries []core.Quote (possibly empty).
func (a *QuoteCollectionAgent) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()

	waitCtx, cancel := context.WithTimeout(ctx, a.wait)
	defer cancel()

	ch, err := a.collector.Collect(waitCtx, execCtx.Flights)
	if err != nil {
		a.endExecution(nil, 1, err)
		return nil, fmt.Errorf("collect quotes: %w", err)
	}

	a.setStatus(core.StatusWaiting)
	var quotes []core.Quote
collect:
	for {
		select {
		case q, ok := <-ch:
			if !ok {
				break collect
			}
			quotes = append(quotes, q)
		case <-waitCtx.Done():
			// Deadline reached: proceed with the quotes gathered so far.
			break collect
		}
	}

	a.endExecution(nil, 1, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     quotes,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), ToolCalls: 1},
	}, nil
}

// DeliveryAgent sends the drafted proposal to the client.
type DeliveryAgent struct {
	BaseAgent
	sender tool.EmailSender
}

// NewDeliveryAgent constructs the proposal delivery worker.
func NewDeliveryAgent(sender tool.EmailSender, logger logging.Logger) *DeliveryAgent {
	return &DeliveryAgent{
		BaseAgent: NewBaseAgent(core.TypeDelivery, "proposal-delivery", logger),
		sender:    sender,
	}
}

// Execute implements core.Agent. Data carries the delivered
// *core.ProposalEmail.
func (a *DeliveryAgent) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()

	if execCtx.Proposal == nil {
		err := fmt.Errorf("deliver proposal: no drafted email in context")
		a.endExecution(nil, 0, err)
		return nil, err
	}
	if err := a.sender.Send(ctx, execCtx.Proposal); err != nil {
		a.endExecution(nil, 1, err)
		return nil, fmt.Errorf("deliver proposal: %w", err)
	}

	a.endExecution(nil, 1, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     execCtx.Proposal,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), ToolCalls: 1},
	}, nil
}
