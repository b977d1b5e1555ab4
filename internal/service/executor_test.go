package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"venuematch/internal/model"
	"venuematch/internal/repository"
)

func TestExecutor_SplitTierConcatenatesInBranchOrder(t *testing.T) {
	repo := repository.NewMemoryRepository([]model.Venue{
		newVenue(1, "Gangnam", food("korean", "japanese")),
		newVenue(2, "Hongdae", food("asian")),
		newVenue(3, "Hongdae", food("korean")),
	})
	executor := NewExecutor(repo, 0, BreakerSettings{Name: "test-split"}, zap.NewNop())

	tiers := plan(t, map[string]string{"station": "999", "food_type": "korean,japanese", "count": "2"})
	require.Equal(t, "split_food_type", tiers[1].Label)

	rows, err := executor.Execute(context.Background(), tiers[1])
	require.NoError(t, err)

	// korean yields {1,3}; japanese yields {1}, which meets its quota
	assert.Equal(t, []int64{1, 3, 1}, venueIDs(rows), "the executor never dedupes")
}

func TestExecutor_StarvedBranchPullsSibling(t *testing.T) {
	repo := repository.NewMemoryRepository([]model.Venue{
		newVenue(1, "Gangnam", food("korean")),
		newVenue(2, "Hongdae", food("asian")),
		newVenue(3, "Hongdae", food("fusion")),
	})
	executor := NewExecutor(repo, 0, BreakerSettings{Name: "test-starve"}, zap.NewNop())

	tiers := plan(t, map[string]string{"station": "999", "food_type": "korean,japanese"})
	split := tiers[1]
	require.True(t, split.Split())

	rows, err := executor.Execute(context.Background(), split)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, venueIDs(rows))
}

func TestExecutor_WrapsFailuresWithTier(t *testing.T) {
	executor := NewExecutor(failingCatalog(), 0, BreakerSettings{Name: "test-wrap"}, zap.NewNop())

	tiers := plan(t, map[string]string{"station": "999", "food_type": "korean,japanese"})
	_, err := executor.Execute(context.Background(), tiers[1])
	require.Error(t, err)

	var unavailable *CatalogUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 1, unavailable.Tier)
	assert.ErrorIs(t, err, errBrokenCatalog)
}
