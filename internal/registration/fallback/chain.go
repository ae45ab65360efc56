// Package fallback implements the write fallback chain: an ordered list of
// persistence strategies, most-informative first, attempted until one
// succeeds. Which strategies exist and in what order is data, not nested
// error handling.
package fallback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
	"clubreg/pkg/platform/circuit"
	"clubreg/pkg/platform/sentinel"
)

// Gateway is the writer's view of the record store.
type Gateway interface {
	Update(ctx context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error)
	PrivilegedUpdate(ctx context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error)
	UpdateStatus(ctx context.Context, regID id.RegistrationID, status models.Status, processed bool) (*models.Registration, error)
}

// Strategy names, used for observability only, never for business logic.
const (
	StrategyDirect     = "direct"
	StrategyPrivileged = "privileged"
	StrategyMinimal    = "minimal"
)

// Strategy is one persistence attempt. Each strategy runs at most once per
// Apply call, under its own timeout.
type Strategy struct {
	Name  string
	Write func(ctx context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error)
}

// Attempt records the outcome of a single strategy for observability.
type Attempt struct {
	Strategy string
	Err      error
}

// Result is the outcome of a chain run. Strategy names the winning strategy
// when Err is nil; Attempts lists everything that was tried, in order.
type Result struct {
	Strategy     string
	Registration *models.Registration
	Err          error
	Attempts     []Attempt
}

// Succeeded reports whether some strategy persisted the transition.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.Registration != nil
}

// Exhausted reports whether every strategy was tried and none succeeded, as
// opposed to an early short-circuit on a non-recoverable error.
func (r Result) Exhausted(total int) bool {
	return r.Err != nil && len(r.Attempts) == total
}

// Chain runs strategies in order. Only an authorization-class error or a
// per-strategy timeout moves on to the next strategy; any other error stops
// the chain immediately, because falling through cannot fix a data-shape
// problem.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger

	// breaker guards the direct strategy. While open, Apply starts at the
	// privileged strategy so a persistent authorization outage does not
	// charge every write the direct attempt's timeout.
	breaker *circuit.Breaker
}

type Option func(*Chain)

func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithBreaker installs a circuit breaker on the direct strategy.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Chain) {
		c.breaker = b
	}
}

// WithStrategies replaces the default strategy list. Tests use this to
// simulate partial backends.
func WithStrategies(strategies []Strategy) Option {
	return func(c *Chain) {
		c.strategies = strategies
	}
}

// New builds the default chain over the gateway: direct update, privileged
// update, then the minimal status-only write.
func New(gw Gateway, opts ...Option) *Chain {
	c := &Chain{
		strategies: []Strategy{
			{Name: StrategyDirect, Write: gw.Update},
			{Name: StrategyPrivileged, Write: gw.PrivilegedUpdate},
			{Name: StrategyMinimal, Write: func(ctx context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error) {
				return gw.UpdateStatus(ctx, regID, t.Status, t.Processed)
			}},
		},
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of configured strategies.
func (c *Chain) Len() int {
	return len(c.strategies)
}

// Apply attempts the transition with each strategy in turn.
func (c *Chain) Apply(ctx context.Context, regID id.RegistrationID, t models.Transition) Result {
	var result Result
	skipDirect := c.breaker != nil && c.breaker.IsOpen()
	for _, strat := range c.strategies {
		if skipDirect && strat.Name == StrategyDirect {
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		rec, err := strat.Write(attemptCtx, regID, t)
		cancel()
		c.recordOutcome(ctx, strat.Name, err)

		result.Attempts = append(result.Attempts, Attempt{Strategy: strat.Name, Err: err})
		if err == nil {
			result.Strategy = strat.Name
			result.Registration = rec
			result.Err = nil
			return result
		}

		result.Err = err
		if !fallsThrough(err) {
			return result
		}
		if c.logger != nil {
			c.logger.WarnContext(ctx, "write strategy failed, falling through",
				"registration_id", regID,
				"strategy", strat.Name,
				"error", err,
			)
		}
	}
	return result
}

// recordOutcome feeds the breaker. Direct failures of the recoverable kind
// count toward opening; any strategy's success counts toward closing, so a
// healthy privileged path eventually re-admits the direct attempt.
func (c *Chain) recordOutcome(ctx context.Context, strategy string, err error) {
	if c.breaker == nil {
		return
	}
	switch {
	case err == nil:
		if _, change := c.breaker.RecordSuccess(); change.Closed && c.logger != nil {
			c.logger.InfoContext(ctx, "direct write breaker closed", "breaker", c.breaker.Name())
		}
	case strategy == StrategyDirect && fallsThrough(err):
		if _, change := c.breaker.RecordFailure(); change.Opened && c.logger != nil {
			c.logger.WarnContext(ctx, "direct write breaker opened", "breaker", c.breaker.Name())
		}
	}
}

// fallsThrough reports whether the next strategy should be tried. An
// authorization rejection means a more permissive path may still succeed; a
// timeout means this particular call never resolved. Everything else
// (validation, not-found, transient store outage) stops the chain.
func fallsThrough(err error) bool {
	return errors.Is(err, sentinel.ErrPermissionDenied) ||
		errors.Is(err, context.DeadlineExceeded)
}
