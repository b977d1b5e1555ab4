package service

import (
	"venuematch/internal/model"
)

// Match reason constants
const (
	ReasonStationMatch   = "Near requested station"
	ReasonExitMatch      = "Requested exit"
	ReasonFoodTypeMatch  = "Food type match"
	ReasonDishMatch      = "Dish match"
	ReasonTasteMatch     = "Taste match"
	ReasonMoodMatch      = "Mood match"
	ReasonAmbienceMatch  = "Ambience match"
	ReasonDrinkMatch     = "Drink match"
	ReasonRoundMatch     = "Fits this round"
	ReasonMenuMatch      = "Menu match"
	ReasonPriceMatch     = "Within price band"
	ReasonAvoidsDislikes = "Avoids disliked food"
	ReasonGeneralMatch   = "General match"
)

var facetReasons = map[model.Facet]string{
	model.FacetFoodType:   ReasonFoodTypeMatch,
	model.FacetDish:       ReasonDishMatch,
	model.FacetTaste:      ReasonTasteMatch,
	model.FacetMood:       ReasonMoodMatch,
	model.FacetAmbience:   ReasonAmbienceMatch,
	model.FacetDrinkType:  ReasonDrinkMatch,
	model.FacetDrinkRound: ReasonRoundMatch,
	model.FacetMenuType:   ReasonMenuMatch,
}

// MatchedReasons generates human-readable reasons for why a venue matched
// the constraints that were actually satisfied
func MatchedReasons(v *model.Venue, cs *ConstraintSet) []string {
	reasons := []string{}
	if cs == nil {
		return append(reasons, ReasonGeneralMatch)
	}

	if cs.Location != nil && v.Station == cs.Location.Station {
		reasons = append(reasons, ReasonStationMatch)
		if len(cs.Location.Quadrants) > 0 && containsInt(cs.Location.Quadrants, v.ExitQuadrant) {
			reasons = append(reasons, ReasonExitMatch)
		}
	}

	for _, tag := range cs.Tags {
		if tag.Negated || !tag.Matches(v.Tokens(tag.Facet)) {
			continue
		}
		if reason, ok := facetReasons[tag.Facet]; ok && !containsString(reasons, reason) {
			reasons = append(reasons, reason)
		}
	}

	if cs.Price != nil {
		if band := v.PriceBand(cs.Price.Meal); band != nil && containsInt(cs.Price.Bands, *band) {
			reasons = append(reasons, ReasonPriceMatch)
		}
	}

	if len(cs.Exclusions) > 0 && !model.MatchesExclusion(v, cs.Exclusions) {
		reasons = append(reasons, ReasonAvoidsDislikes)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	return reasons
}

// Explain pairs each venue with its matched reasons
func Explain(venues []model.Venue, cs *ConstraintSet) []model.VenueResult {
	results := make([]model.VenueResult, 0, len(venues))
	for i := range venues {
		results = append(results, model.VenueResult{
			Venue:          venues[i],
			MatchedReasons: MatchedReasons(&venues[i], cs),
		})
	}
	return results
}
