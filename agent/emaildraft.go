package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/model"
)

const emailDraftSystemPrompt = `You write concise, professional charter-flight proposal emails.
Given the trip details and the shortlisted quotes, produce only the email body:
greet the client by name, summarize the trip, present each option with operator,
aircraft and price, and close with a call to action. No subject line, no signature
placeholders beyond "Best regards" and the sender name "JetVision Charter Desk".`

// proposalShortlist caps how many ranked quotes make it into the email.
const proposalShortlist = 3

// EmailDraftAgent turns the ranked quotes into a client-ready proposal
// email. The subject and recipient are derived deterministically; only the
// body comes from the LLM.
type EmailDraftAgent struct {
	BaseAgent
	svc model.CompletionService
}

// NewEmailDraftAgent constructs the proposal drafting worker.
func NewEmailDraftAgent(svc model.CompletionService, logger logging.Logger) *EmailDraftAgent {
	return &EmailDraftAgent{
		BaseAgent: NewBaseAgent(core.TypeEmailDraft, "proposal-draft", logger),
		svc:       svc,
	}
}

// Execute implements core.Agent. Data carries the drafted
// *core.ProposalEmail.
func (a *EmailDraftAgent) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()

	to := recipient(execCtx)
	if to == "" {
		err := core.NewValidationError("client_email")
		a.endExecution(nil, 0, err)
		return nil, err
	}

	shortlist := execCtx.Ranked
	if len(shortlist) > proposalShortlist {
		shortlist = shortlist[:proposalShortlist]
	}

	resp, err := a.svc.Complete(ctx, model.Request{
		System:   emailDraftSystemPrompt,
		Messages: []model.Message{{Role: "user", Content: draftBrief(execCtx, shortlist)}},
	})
	if err != nil {
		a.endExecution(nil, 0, err)
		return nil, fmt.Errorf("draft proposal: %w", err)
	}

	quoteIDs := make([]string, 0, len(shortlist))
	for _, r := range shortlist {
		quoteIDs = append(quoteIDs, r.Quote.ID)
	}
	email := &core.ProposalEmail{
		To:       to,
		Subject:  subjectLine(execCtx.Trip),
		Body:     strings.TrimSpace(resp.Content),
		QuoteIDs: quoteIDs,
	}

	a.endExecution(&resp.Usage, 0, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     email,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), TokenUsage: &resp.Usage},
	}, nil
}

// recipient prefers the CRM profile's address over the one parsed from the
// intake message.
func recipient(execCtx *core.ExecutionContext) string {
	if execCtx.Client != nil && execCtx.Client.Email != "" {
		return execCtx.Client.Email
	}
	if execCtx.Trip != nil {
		return execCtx.Trip.ClientEmail
	}
	return ""
}

func subjectLine(trip *core.TripRequest) string {
	if trip == nil {
		return "Your Charter Flight Proposal"
	}
	return fmt.Sprintf("Charter Proposal: %s to %s on %s",
		trip.DepartureAirport, trip.ArrivalAirport, trip.DepartureDate)
}

func draftBrief(execCtx *core.ExecutionContext, shortlist []core.RankedQuote) string {
	var b strings.Builder
	if execCtx.Client != nil {
		fmt.Fprintf(&b, "Client: %s (%s)\n", execCtx.Client.Name, execCtx.Client.Company)
	}
	if trip := execCtx.Trip; trip != nil {
		fmt.Fprintf(&b, "Trip: %s to %s, departing %s, %d passengers\n",
			trip.DepartureAirport, trip.ArrivalAirport, trip.DepartureDate, trip.Passengers)
		if trip.ReturnDate != "" {
			fmt.Fprintf(&b, "Return: %s\n", trip.ReturnDate)
		}
		if trip.Notes != "" {
			fmt.Fprintf(&b, "Notes: %s\n", trip.Notes)
		}
	}
	if len(shortlist) == 0 {
		b.WriteString("No operator quotes arrived in time. Apologize briefly and promise a follow-up within one business day.\n")
		return b.String()
	}
	b.WriteString("Options:\n")
	for _, r := range shortlist {
		fmt.Fprintf(&b, "%d. %s, %s, $%.0f USD. %s\n",
			r.Rank, r.Quote.Operator, r.Quote.Aircraft, r.Quote.PriceUSD, r.Rationale)
	}
	return b.String()
}
