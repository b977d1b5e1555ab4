package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuematch/internal/model"
)

func TestMatchedReasons(t *testing.T) {
	cs, err := NormalizeConstraints(map[string]string{
		"station":       "Gangnam",
		"exit_quadrant": "2",
		"food_type":     "korean,japanese",
		"taste":         "!heavy",
		"price_dinner":  "2",
		"hate_food":     "shellfish",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		venue   model.Venue
		reasons []string
	}{
		{
			name:  "everything lines up",
			venue: newVenue(1, "Gangnam", exit(2), food("korean"), dinner(2)),
			reasons: []string{
				ReasonStationMatch,
				ReasonExitMatch,
				ReasonFoodTypeMatch,
				ReasonPriceMatch,
				ReasonAvoidsDislikes,
			},
		},
		{
			name:    "another station, wrong band",
			venue:   newVenue(2, "Hongdae", food("japanese"), dinner(4)),
			reasons: []string{ReasonFoodTypeMatch, ReasonAvoidsDislikes},
		},
		{
			name:    "only the station",
			venue:   newVenue(3, "Gangnam", exit(4), food("western"), ingredients("shellfish")),
			reasons: []string{ReasonStationMatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reasons, MatchedReasons(&tt.venue, cs))
		})
	}
}

func TestMatchedReasons_GeneralFallback(t *testing.T) {
	v := newVenue(1, "Gangnam")
	assert.Equal(t, []string{ReasonGeneralMatch}, MatchedReasons(&v, nil))

	cs := &ConstraintSet{Kind: model.KindRestaurant, TargetCount: 2}
	assert.Equal(t, []string{ReasonGeneralMatch}, MatchedReasons(&v, cs))
}

func TestExplain(t *testing.T) {
	cs, err := NormalizeConstraints(map[string]string{"station": "Gangnam"})
	require.NoError(t, err)

	results := Explain([]model.Venue{newVenue(1, "Gangnam"), newVenue(2, "Hongdae")}, cs)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, []string{ReasonStationMatch}, results[0].MatchedReasons)
	assert.Equal(t, []string{ReasonGeneralMatch}, results[1].MatchedReasons)
}
