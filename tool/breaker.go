package tool

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker behavior.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit
	// opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before transitioning to
	// half-open.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the cyclic period of the closed state for clearing failure
	// counts. If 0, failures never reset until the circuit opens.
	Interval time.Duration `yaml:"interval"`
}

func newBreaker[T any](name string, cfg BreakerConfig, logger logging.Logger) *gobreaker.CircuitBreaker[T] {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// BreakerSearcher wraps a FlightSearcher with circuit breaker protection so
// a failing marketplace backend fails fast instead of feeding retry storms.
type BreakerSearcher struct {
	inner   FlightSearcher
	breaker *gobreaker.CircuitBreaker[[]core.FlightOption]
}

// NewBreakerSearcher wraps inner with a circuit breaker.
func NewBreakerSearcher(inner FlightSearcher, cfg BreakerConfig, logger logging.Logger) *BreakerSearcher {
	return &BreakerSearcher{
		inner:   inner,
		breaker: newBreaker[[]core.FlightOption]("flight_search", cfg, logger),
	}
}

// Search implements FlightSearcher.
func (b *BreakerSearcher) Search(ctx context.Context, trip *core.TripRequest) ([]core.FlightOption, error) {
	return b.breaker.Execute(func() ([]core.FlightOption, error) {
		return b.inner.Search(ctx, trip)
	})
}

// BreakerSender wraps an EmailSender with circuit breaker protection.
type BreakerSender struct {
	inner   EmailSender
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps inner with a circuit breaker.
func NewBreakerSender(inner EmailSender, cfg BreakerConfig, logger logging.Logger) *BreakerSender {
	return &BreakerSender{
		inner:   inner,
		breaker: newBreaker[struct{}]("email_delivery", cfg, logger),
	}
}

// Send implements EmailSender.
func (b *BreakerSender) Send(ctx context.Context, email *core.ProposalEmail) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Send(ctx, email)
	})
	return err
}
