package service

import (
	"context"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"venuematch/internal/model"
)

// Match outcomes
const (
	OutcomeMatched  = "matched"
	OutcomeRelaxed  = "relaxed"
	OutcomeNoResult = "no_result"
)

// Selection is the accepted set of venues and the tier that produced them
type Selection struct {
	Venues      []model.Venue  `json:"venues"`
	TierOrdinal int            `json:"tier_ordinal"`
	Constraints *ConstraintSet `json:"constraints"`
}

// Selector drives the tier loop and applies the acceptance policy
type Selector struct {
	executor *Executor
	logger   *zap.Logger
}

// NewSelector creates a selector over an executor
func NewSelector(executor *Executor, logger *zap.Logger) *Selector {
	return &Selector{
		executor: executor,
		logger:   logger,
	}
}

// Select evaluates tiers in ascending order and accepts the first whose
// candidate pool reaches its target count. When none does, the terminal
// tier's pool comes back as best effort with a nil Selection.
func (s *Selector) Select(ctx context.Context, tiers []FilterTier, rng *rand.Rand) (*MatchResult, error) {
	if len(tiers) == 0 {
		return &MatchResult{Outcome: OutcomeNoResult}, nil
	}

	var pool []model.Venue
	for _, tier := range tiers {
		rows, err := s.executor.Execute(ctx, tier)
		if err != nil {
			s.logger.Warn("tier lookup failed, aborting relaxation",
				zap.Int("tier", tier.Ordinal),
				zap.String("label", tier.Label),
				zap.Error(err),
			)
			return nil, err
		}

		pool = candidatePool(rows, tier.Predicate)
		shuffle(pool, rng)

		s.logger.Debug("tier evaluated",
			zap.Int("tier", tier.Ordinal),
			zap.String("label", tier.Label),
			zap.Int("rows", len(rows)),
			zap.Int("candidates", len(pool)),
			zap.Int("target", tier.TargetCount),
		)

		if len(pool) >= tier.TargetCount {
			return &MatchResult{
				Selection: &Selection{
					Venues:      pool[:tier.TargetCount],
					TierOrdinal: tier.Ordinal,
					Constraints: tier.Constraints,
				},
				TierUsed:  tier.Ordinal,
				TierCount: len(tiers),
				Satisfied: tier.Constraints,
				Outcome:   outcomeFor(tier.Ordinal),
			}, nil
		}
	}

	terminal := tiers[len(tiers)-1]
	return &MatchResult{
		TierUsed:   terminal.Ordinal,
		TierCount:  len(tiers),
		Satisfied:  terminal.Constraints,
		Outcome:    OutcomeNoResult,
		BestEffort: pool,
	}, nil
}

// candidatePool dedupes rows by id, drops already-shown ids and excluded
// rows, and sorts by id so the shuffle only depends on the seed
func candidatePool(rows []model.Venue, p model.Predicate) []model.Venue {
	excluded := make(map[int64]bool, len(p.ExcludeIDs))
	for _, id := range p.ExcludeIDs {
		excluded[id] = true
	}

	seen := make(map[int64]bool, len(rows))
	pool := make([]model.Venue, 0, len(rows))
	for _, row := range rows {
		if seen[row.ID] || excluded[row.ID] {
			continue
		}
		// exclusions are enforced on every pool, whatever the catalog returned
		if model.MatchesExclusion(&row, p.Exclusions) {
			continue
		}
		seen[row.ID] = true
		pool = append(pool, row)
	}

	sort.Slice(pool, func(i, j int) bool {
		return pool[i].ID < pool[j].ID
	})
	return pool
}

func shuffle(pool []model.Venue, rng *rand.Rand) {
	if rng == nil {
		return
	}
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
}

func outcomeFor(ordinal int) string {
	if ordinal == 0 {
		return OutcomeMatched
	}
	return OutcomeRelaxed
}
