package service

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"venuematch/internal/metrics"
	"venuematch/internal/model"
)

// Catalog is the storage collaborator queried once per tier (or per branch)
type Catalog interface {
	LookupCatalog(ctx context.Context, p model.Predicate) ([]model.Venue, error)
}

// BreakerSettings configures the circuit breaker around catalog lookups
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Executor runs tier predicates against the catalog.
// It never filters, sorts, or deduplicates what the catalog returns.
type Executor struct {
	catalog Catalog
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]model.Venue]
	logger  *zap.Logger
}

// NewExecutor creates an executor with a per-lookup timeout (0 disables it)
func NewExecutor(catalog Catalog, timeout time.Duration, settings BreakerSettings, logger *zap.Logger) *Executor {
	if settings.Name == "" {
		settings.Name = "catalog"
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}

	e := &Executor{
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
	}

	e.breaker = gobreaker.NewCircuitBreaker[[]model.Venue](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		// cancellation by the caller does not count against the catalog
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logger.Warn("catalog circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(float64(gobreaker.StateClosed))

	return e
}

// Execute runs one tier. Branches of a split tier run concurrently and their
// rows are concatenated in branch order; a branch that starves pulls its fallback.
func (e *Executor) Execute(ctx context.Context, tier FilterTier) ([]model.Venue, error) {
	if !tier.Split() {
		rows, err := e.lookup(ctx, tier.Predicate)
		if err != nil {
			return nil, &CatalogUnavailableError{Tier: tier.Ordinal, Err: err}
		}
		return rows, nil
	}

	results := make([][]model.Venue, len(tier.Branches))
	g, gctx := errgroup.WithContext(ctx)
	for i, branch := range tier.Branches {
		g.Go(func() error {
			rows, err := e.lookup(gctx, branch.Predicate)
			if err != nil {
				return err
			}
			if len(rows) < branch.Quota && branch.Fallback != nil {
				e.logger.Debug("branch starved, backfilling from sibling",
					zap.Int("tier", tier.Ordinal),
					zap.String("token", branch.Token),
					zap.String("sibling", branch.FallbackToken),
					zap.Int("rows", len(rows)),
				)
				extra, err := e.lookup(gctx, *branch.Fallback)
				if err != nil {
					return err
				}
				rows = append(rows, extra...)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &CatalogUnavailableError{Tier: tier.Ordinal, Err: err}
	}

	var total int
	for _, rows := range results {
		total += len(rows)
	}
	out := make([]model.Venue, 0, total)
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

func (e *Executor) lookup(ctx context.Context, p model.Predicate) ([]model.Venue, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.breaker.Execute(func() ([]model.Venue, error) {
		rows, err := e.catalog.LookupCatalog(ctx, p)
		if err == nil && ctx.Err() != nil {
			// rows that arrive after the deadline are not trusted
			return nil, ctx.Err()
		}
		return rows, err
	})
	metrics.CatalogLookupDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogLookups.WithLabelValues("open").Inc()
	case errors.Is(err, context.DeadlineExceeded):
		metrics.CatalogLookups.WithLabelValues("timeout").Inc()
	case err != nil:
		metrics.CatalogLookups.WithLabelValues("error").Inc()
	case len(rows) == 0:
		metrics.CatalogLookups.WithLabelValues("empty").Inc()
	default:
		metrics.CatalogLookups.WithLabelValues("ok").Inc()
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}
