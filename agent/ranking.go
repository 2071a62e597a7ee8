package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/model"
)

const rankingSystemPrompt = `You are a charter-flight analyst. Given a ranked list of operator
quotes for a trip, write one short sentence per quote explaining its position.
Return one sentence per line, in the same order as the quotes, nothing else.`

// RankingAgent orders collected quotes for proposal. Scoring is
// deterministic (price-driven, with a small premium for larger cabins); the
// LLM only supplies the human-readable rationale and its failure degrades to
// a generic rationale rather than failing the step.
type RankingAgent struct {
	BaseAgent
	svc model.CompletionService
}

// NewRankingAgent constructs the quote ranking worker.
func NewRankingAgent(svc model.CompletionService, logger logging.Logger) *RankingAgent {
	return &RankingAgent{
		BaseAgent: NewBaseAgent(core.TypeRanking, "quote-ranking", logger),
		svc:       svc,
	}
}

// Execute implements core.Agent. Data carries []core.RankedQuote ordered best
// first. An empty quote set ranks to an empty slice.
func (a *RankingAgent) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()

	ranked := scoreQuotes(execCtx.Quotes, execCtx.Flights)

	var usage *core.TokenUsage
	if len(ranked) > 0 && a.svc != nil {
		if resp, err := a.svc.Complete(ctx, model.Request{
			System:   rankingSystemPrompt,
			Messages: []model.Message{{Role: "user", Content: describeRanking(ranked)}},
		}); err == nil {
			applyRationales(ranked, resp.Content)
			usage = &resp.Usage
		} else {
			a.logger.Warn("ranking rationale unavailable", "error", err)
		}
	}

	a.endExecution(usage, 0, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     ranked,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), TokenUsage: usage},
	}, nil
}

// scoreQuotes assigns each quote a score in [0,1] where cheaper is better,
// nudged upward when the quoted aircraft seats more passengers. Ties break on
// quote id for stable output.
func scoreQuotes(quotes []core.Quote, flights []core.FlightOption) []core.RankedQuote {
	seats := make(map[string]int, len(flights))
	maxSeats := 1
	for _, f := range flights {
		seats[f.ID] = f.Seats
		if f.Seats > maxSeats {
			maxSeats = f.Seats
		}
	}

	var lo, hi float64
	for i, q := range quotes {
		if i == 0 || q.PriceUSD < lo {
			lo = q.PriceUSD
		}
		if i == 0 || q.PriceUSD > hi {
			hi = q.PriceUSD
		}
	}

	ranked := make([]core.RankedQuote, 0, len(quotes))
	for _, q := range quotes {
		price := 1.0
		if hi > lo {
			price = 1 - (q.PriceUSD-lo)/(hi-lo)
		}
		cabin := float64(seats[q.FlightOptionID]) / float64(maxSeats)
		ranked = append(ranked, core.RankedQuote{
			Quote:     q,
			Score:     0.8*price + 0.2*cabin,
			Rationale: fmt.Sprintf("%s on a %s at $%.0f", q.Operator, q.Aircraft, q.PriceUSD),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Quote.ID < ranked[j].Quote.ID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func describeRanking(ranked []core.RankedQuote) string {
	var b []byte
	for _, r := range ranked {
		b = fmt.Appendf(b, "%d. %s %s $%.0f (score %.2f)\n",
			r.Rank, r.Quote.Operator, r.Quote.Aircraft, r.Quote.PriceUSD, r.Score)
	}
	return string(b)
}

// applyRationales maps one rationale line per ranked quote; extra or missing
// lines leave the deterministic fallback in place.
func applyRationales(ranked []core.RankedQuote, content string) {
	lines := splitNonEmptyLines(content)
	for i := range ranked {
		if i < len(lines) {
			ranked[i].Rationale = lines[i]
		}
	}
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
