package tool

import (
	"context"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

// ClientDirectory looks up the CRM profile for a requesting client.
type ClientDirectory interface {
	Fetch(ctx context.Context, identifier string) (*core.ClientProfile, error)
}

// FlightSearcher queries the charter marketplace for candidate flights.
type FlightSearcher interface {
	Search(ctx context.Context, trip *core.TripRequest) ([]core.FlightOption, error)
}

// QuoteCollector requests operator quotes for the given flight options and
// streams them back as they arrive. The returned channel is closed when the
// collector has no more quotes to deliver; callers bound their own wait and
// keep whatever arrived by the deadline.
type QuoteCollector interface {
	Collect(ctx context.Context, options []core.FlightOption) (<-chan core.Quote, error)
}

// EmailSender delivers the drafted proposal to the client.
type EmailSender interface {
	Send(ctx context.Context, email *core.ProposalEmail) error
}
