package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/reframebot/internal/store"
)

// DefaultTimeout bounds a single analysis, retries included.
const DefaultTimeout = 30 * time.Second

// Oracle tries the LLM analyzer first and falls back to the keyword
// classifier on any failure, so Analyze never returns an error for a
// well-formed attempt.
type Oracle struct {
	primary  Analyzer
	fallback Analyzer
	timeout  time.Duration
	log      *zap.Logger
}

// NewOracle builds the two-stage analyzer. A zero timeout means
// DefaultTimeout.
func NewOracle(primary, fallback Analyzer, timeout time.Duration, log *zap.Logger) *Oracle {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Oracle{primary: primary, fallback: fallback, timeout: timeout, log: log}
}

// Analyze grades the response. The result carries Fallback=true when the
// keyword classifier produced it.
func (o *Oracle) Analyze(ctx context.Context, response string, trick *store.Trick, statement string) (*ResponseAnalysis, error) {
	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	res, err := o.primary.Analyze(pctx, response, trick, statement)
	if err == nil {
		return res, nil
	}
	// Respect caller cancellation; only provider trouble triggers the
	// fallback path.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	o.log.Warn("llm analysis failed, using keyword fallback",
		zap.Int("trick_id", trick.ID),
		zap.Error(err))
	return o.fallback.Analyze(ctx, response, trick, statement)
}
