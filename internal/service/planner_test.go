package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuematch/internal/model"
)

func plan(t *testing.T, raw map[string]string) []FilterTier {
	t.Helper()
	cs, err := NormalizeConstraints(raw)
	require.NoError(t, err)
	return NewPlanner().Plan(cs)
}

func tierLabels(tiers []FilterTier) []string {
	labels := make([]string, 0, len(tiers))
	for _, t := range tiers {
		labels = append(labels, t.Label)
	}
	return labels
}

func TestPlanner_StationOnlyCollapsesIntoTerminal(t *testing.T) {
	tiers := plan(t, map[string]string{"station": "Gangnam"})

	require.Len(t, tiers, 2)
	assert.Equal(t, []string{TierStrict, TierWidenStation}, tierLabels(tiers))
	assert.Equal(t, "Gangnam", tiers[0].Predicate.Station)
	assert.Empty(t, tiers[1].Predicate.Station)
	assert.True(t, tiers[1].Terminal)
	assert.False(t, tiers[0].Terminal)
}

func TestPlanner_FullLadder(t *testing.T) {
	tiers := plan(t, map[string]string{
		"station":       "Gangnam",
		"exit_quadrant": "2",
		"food_type":     "korean,japanese",
		"price_dinner":  "2",
		"hate_food":     "shellfish",
	})

	require.Len(t, tiers, MaxTiers)
	assert.Equal(t, []string{TierStrict, TierWidenQuadrants, "split_food_type", TierTerminal}, tierLabels(tiers))
	for i, tier := range tiers {
		assert.Equal(t, i, tier.Ordinal)
		assert.Equal(t, 2, tier.TargetCount)
	}

	strict := tiers[0].Predicate
	assert.Equal(t, []int{2}, strict.Quadrants)
	assert.Empty(t, tiers[1].Predicate.Quadrants)
	assert.Equal(t, "Gangnam", tiers[1].Predicate.Station)

	split := tiers[2]
	require.True(t, split.Split())
	require.Len(t, split.Branches, 2)

	korean := split.Branches[0]
	assert.Equal(t, "korean", korean.Token)
	assert.Equal(t, 1, korean.Quota)
	assert.Nil(t, korean.Fallback)
	tag, ok := korean.Predicate.Tag(model.FacetFoodType)
	require.True(t, ok)
	assert.Equal(t, []string{"korean"}, tag.Tokens)

	japanese := split.Branches[1]
	assert.Equal(t, "japanese", japanese.Token)
	require.NotNil(t, japanese.Fallback)
	assert.Equal(t, "asian", japanese.FallbackToken)
	tag, ok = japanese.Fallback.Tag(model.FacetFoodType)
	require.True(t, ok)
	assert.Equal(t, []string{"asian"}, tag.Tokens)

	relaxed, ok := split.Constraints.tag(model.FacetFoodType)
	require.True(t, ok)
	assert.Equal(t, []string{"korean", "japanese", "asian"}, relaxed.Tokens)

	terminal := tiers[3]
	assert.True(t, terminal.Terminal)
	assert.Empty(t, terminal.Predicate.Station)
	assert.Empty(t, terminal.Predicate.Tags)
	assert.Nil(t, terminal.Predicate.Price)

	// exclusions survive every tier and every branch
	for _, tier := range tiers {
		assert.Equal(t, []string{"shellfish"}, tier.Predicate.Exclusions, tier.Label)
		for _, b := range tier.Branches {
			assert.Equal(t, []string{"shellfish"}, b.Predicate.Exclusions)
			if b.Fallback != nil {
				assert.Equal(t, []string{"shellfish"}, b.Fallback.Exclusions)
			}
		}
	}
}

func TestPlanner_SplitPrice(t *testing.T) {
	tiers := plan(t, map[string]string{"station": "999", "price_dinner": "2,3"})

	require.Len(t, tiers, 3)
	assert.Equal(t, []string{TierStrict, "split_price", TierTerminal}, tierLabels(tiers))

	split := tiers[1]
	require.Len(t, split.Branches, 2)
	assert.Equal(t, "dinner:2", split.Branches[0].Token)
	assert.Nil(t, split.Branches[0].Fallback, "band 3 is already requested")
	assert.Equal(t, []int{2}, split.Branches[0].Predicate.Price.Bands)

	assert.Equal(t, "dinner:3", split.Branches[1].Token)
	require.NotNil(t, split.Branches[1].Fallback)
	assert.Equal(t, "dinner:4", split.Branches[1].FallbackToken)
	assert.Equal(t, []int{4}, split.Branches[1].Fallback.Price.Bands)

	assert.Equal(t, []int{2, 3, 4}, split.Constraints.Price.Bands)
}

func TestPlanner_SplitOrderPrefersDrinks(t *testing.T) {
	tiers := plan(t, map[string]string{
		"kind":       "bar",
		"station":    "999",
		"food_type":  "korean,western",
		"drink_type": "soju,wine",
		"round":      "2",
	})

	var labels []string
	for _, tier := range tiers {
		if tier.Split() {
			labels = append(labels, tier.Label)
		}
	}
	assert.Equal(t, []string{"split_drink_type"}, labels)
}

func TestPlanner_NegatedTagHoldsAtEveryTier(t *testing.T) {
	tiers := plan(t, map[string]string{"station": "Gangnam", "taste": "!-heavy"})

	require.Len(t, tiers, 2)
	for _, tier := range tiers {
		tag, ok := tier.Predicate.Tag(model.FacetTaste)
		require.True(t, ok, tier.Label)
		assert.True(t, tag.Negated)
		assert.Equal(t, []string{"heavy"}, tag.Tokens)
	}
	assert.True(t, tiers[len(tiers)-1].Terminal)
}

func TestPlanner_NoSplitForSingleOrNegatedTokens(t *testing.T) {
	tiers := plan(t, map[string]string{
		"station":   "Gangnam",
		"food_type": "korean",
		"taste":     "!heavy,!spicy",
	})

	for _, tier := range tiers {
		assert.False(t, tier.Split(), tier.Label)
	}
	assert.Equal(t, []string{TierStrict, TierWidenStation, TierTerminal}, tierLabels(tiers))
}

func TestPlanner_TiersAreMonotonic(t *testing.T) {
	catalog := syntheticCatalog()

	requests := []map[string]string{
		{"station": "Gangnam"},
		{"station": "Gangnam", "exit_quadrant": "1,2", "food_type": "korean,japanese", "price_dinner": "2-3"},
		{"station": "Hongdae", "food_type": "korean && japanese", "taste": "!-heavy"},
		{"station": "999", "food_type": "chinese,asian", "hate_food": "고기"},
		{"station": "Gangnam", "price_dinner": "1,4", "exclude_ids": "5,17"},
		{"station": "Hongdae", "exit_quadrant": "3", "food_type": "이국적"},
	}

	for i, raw := range requests {
		t.Run(fmt.Sprintf("request %d", i), func(t *testing.T) {
			tiers := plan(t, raw)

			require.NotEmpty(t, tiers)
			require.LessOrEqual(t, len(tiers), MaxTiers)
			assert.True(t, tiers[len(tiers)-1].Terminal)

			for k := 1; k < len(tiers); k++ {
				for j := range catalog {
					v := &catalog[j]
					if tiers[k-1].Matches(v) {
						assert.True(t, tiers[k].Matches(v),
							"venue %d matches %s but not %s", v.ID, tiers[k-1].Label, tiers[k].Label)
					}
				}
			}
		})
	}
}

func TestPlanner_PlanIsPure(t *testing.T) {
	cs, err := NormalizeConstraints(map[string]string{
		"station":   "Gangnam",
		"food_type": "korean,japanese",
	})
	require.NoError(t, err)
	before := cs.Clone()

	planner := NewPlanner()
	first := planner.Plan(cs)
	second := planner.Plan(cs)

	assert.Equal(t, first, second)
	assert.Equal(t, before, cs)
}

// syntheticCatalog covers every combination of station, exit, food, price, and taste
func syntheticCatalog() []model.Venue {
	var (
		venues []model.Venue
		id     int64
	)
	foods := []string{"korean", "japanese", "asian", "chinese", "fusion"}
	for _, station := range []string{"Gangnam", "Hongdae"} {
		for q := 1; q <= 4; q++ {
			for fi, f := range foods {
				for band := 1; band <= 5; band++ {
					for _, taste := range []string{"heavy", "light"} {
						id++
						opts := []venueOption{exit(q), food(f), dinner(band), tastes(taste)}
						if fi%2 == 0 {
							opts = append(opts, food(f, foods[(fi+1)%len(foods)]))
						}
						if band == 3 {
							opts = append(opts, ingredients("meat"))
						}
						venues = append(venues, newVenue(id, station, opts...))
					}
				}
			}
		}
	}
	return venues
}
