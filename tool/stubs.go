package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

// SampleDataVersion tags the canned payloads returned by the stub
// collaborators. Concrete marketplace/CRM/email contracts replace these
// stubs in production wiring; the shapes below are the versioned reference
// payloads integrations must produce.
const SampleDataVersion = "v1"

// StubClientDirectory returns a fixed profile for any identifier.
type StubClientDirectory struct{}

// Fetch implements ClientDirectory.
func (StubClientDirectory) Fetch(_ context.Context, identifier string) (*core.ClientProfile, error) {
	return &core.ClientProfile{
		ID:      "client-" + identifier,
		Name:    "Sample Client",
		Email:   identifier,
		Company: "Sample Holdings LLC",
		Preferences: map[string]string{
			"cabin":    "executive",
			"catering": "standard",
		},
	}, nil
}

// StubFlightSearcher derives a small set of candidate flights from the trip.
type StubFlightSearcher struct{}

// Search implements FlightSearcher.
func (StubFlightSearcher) Search(_ context.Context, trip *core.TripRequest) ([]core.FlightOption, error) {
	dep, err := time.Parse("2006-01-02", trip.DepartureDate)
	if err != nil {
		dep = time.Now().UTC().AddDate(0, 0, 7)
	}
	dep = dep.Add(14 * time.Hour)

	aircraft := []struct {
		operator, model string
		seats           int
		block           time.Duration
	}{
		{"Skyline Aviation", "Citation XLS+", 8, 2*time.Hour + 30*time.Minute},
		{"Meridian Jets", "Challenger 350", 9, 2*time.Hour + 10*time.Minute},
		{"Apex Charter", "Phenom 300E", 7, 2*time.Hour + 45*time.Minute},
	}

	out := make([]core.FlightOption, 0, len(aircraft))
	for i, a := range aircraft {
		if a.seats < trip.Passengers {
			continue
		}
		out = append(out, core.FlightOption{
			ID:               fmt.Sprintf("opt-%s-%d", SampleDataVersion, i+1),
			Operator:         a.operator,
			Aircraft:         a.model,
			DepartureAirport: trip.DepartureAirport,
			ArrivalAirport:   trip.ArrivalAirport,
			Departure:        dep,
			Arrival:          dep.Add(a.block),
			Seats:            a.seats,
		})
	}
	return out, nil
}

// StubQuoteCollector emits one quote per flight option, optionally delayed to
// exercise the bounded-wait path.
type StubQuoteCollector struct {
	// Delay between successive quotes; zero emits immediately.
	Delay time.Duration
}

// Collect implements QuoteCollector.
func (s StubQuoteCollector) Collect(ctx context.Context, options []core.FlightOption) (<-chan core.Quote, error) {
	ch := make(chan core.Quote)
	go func() {
		defer close(ch)
		base := 14500.0
		for i, opt := range options {
			if s.Delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.Delay):
				}
			}
			q := core.Quote{
				ID:             fmt.Sprintf("quote-%s-%d", SampleDataVersion, i+1),
				FlightOptionID: opt.ID,
				Operator:       opt.Operator,
				Aircraft:       opt.Aircraft,
				PriceUSD:       base + float64(i)*2250,
				ValidUntil:     time.Now().UTC().Add(72 * time.Hour),
				ReceivedAt:     time.Now().UTC(),
			}
			select {
			case <-ctx.Done():
				return
			case ch <- q:
			}
		}
	}()
	return ch, nil
}

// StubEmailSender records sent proposals in memory.
type StubEmailSender struct {
	mu   sync.Mutex
	sent []core.ProposalEmail
}

// NewStubEmailSender constructs an empty recorder.
func NewStubEmailSender() *StubEmailSender { return &StubEmailSender{} }

// Send implements EmailSender.
func (s *StubEmailSender) Send(_ context.Context, email *core.ProposalEmail) error {
	if email.To == "" {
		return NewToolError("email_sender", "recipient address is empty", "invalid_recipient")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, *email)
	return nil
}

// Sent returns a copy of the delivered proposals.
func (s *StubEmailSender) Sent() []core.ProposalEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ProposalEmail, len(s.sent))
	copy(out, s.sent)
	return out
}
