package service

import (
	"sort"
	"strconv"
	"strings"

	"venuematch/internal/model"
	"venuematch/internal/utils"
)

// Raw request keys understood by NormalizeConstraints
const (
	KeyKind         = "kind"
	KeyStation      = "station"
	KeyExitQuadrant = "exit_quadrant"
	KeyPriceLunch   = "price_lunch"
	KeyPriceDinner  = "price_dinner"
	KeyHateFood     = "hate_food"
	KeyFoodIngre    = "food_ingre"
	KeyExcludeIDs   = "exclude_ids"
	KeyRound        = "round"
	KeyCount        = "count"
	KeyUserID       = "user_id"
)

const (
	defaultTargetCount = 2
	maxTargetCount     = 2
	minPriceBand       = 1
	maxPriceBand       = 5
	minQuadrant        = 1
	maxQuadrant        = 4
)

var (
	stationWildcards = map[string]bool{"": true, "all": true, "anywhere": true, "null": true, "999": true, "서울 어디든 좋아": true}
	facetWildcards   = map[string]bool{"": true, "all": true, "null": true, "999": true, "998": true}
	priceWildcards   = map[string]bool{"": true, "x": true, "all": true, "null": true, "999": true}
	drinkAnything    = map[string]bool{"any": true, "상관없음": true}
	exoticFood       = map[string]bool{"exotic": true, "이국적": true}
	noExclusions     = map[string]bool{"": true, "none": true, "null": true, "없음": true}
)

var negationPrefixes = []string{"!-", "-", "!"}

// Location anchors a request to a station and optionally to exit quadrants
type Location struct {
	Station   string `json:"station"`
	Quadrants []int  `json:"quadrants,omitempty"`
}

// ConstraintSet is the normalized form of a user's request
type ConstraintSet struct {
	Kind        string             `json:"kind"`
	Location    *Location          `json:"location,omitempty"`
	Tags        []model.TagFilter  `json:"tags,omitempty"`
	Price       *model.PriceFilter `json:"price,omitempty"`
	Exclusions  []string           `json:"exclusions,omitempty"`
	ExcludeIDs  []int64            `json:"exclude_ids,omitempty"`
	RoundHint   *int               `json:"round_hint,omitempty"`
	TargetCount int                `json:"target_count"`
	UserID      string             `json:"-"`
	Wildcards   []string           `json:"wildcards,omitempty"`
}

// Predicate renders the constraint set as a catalog predicate
func (c *ConstraintSet) Predicate() model.Predicate {
	p := model.Predicate{
		Kind:       c.Kind,
		Tags:       c.Tags,
		Price:      c.Price,
		Exclusions: c.Exclusions,
		ExcludeIDs: c.ExcludeIDs,
	}
	if c.Location != nil {
		p.Station = c.Location.Station
		p.Quadrants = c.Location.Quadrants
	}
	return p.Clone()
}

// Clone deep-copies the constraint set
func (c *ConstraintSet) Clone() *ConstraintSet {
	out := *c
	p := c.Predicate()
	out.Tags = p.Tags
	out.Price = p.Price
	out.Exclusions = p.Exclusions
	out.ExcludeIDs = p.ExcludeIDs
	if c.Location != nil {
		loc := Location{Station: c.Location.Station, Quadrants: p.Quadrants}
		out.Location = &loc
	}
	if c.RoundHint != nil {
		round := *c.RoundHint
		out.RoundHint = &round
	}
	out.Wildcards = append([]string(nil), c.Wildcards...)
	return &out
}

// NormalizeConstraints turns raw request fields into a ConstraintSet.
// Only the station key is required; its value may still be a wildcard.
func NormalizeConstraints(raw map[string]string) (*ConstraintSet, error) {
	if raw == nil {
		return nil, invalid(KeyStation, "required")
	}
	stationRaw, ok := raw[KeyStation]
	if !ok {
		return nil, invalid(KeyStation, "required")
	}

	cs := &ConstraintSet{TargetCount: defaultTargetCount}
	wildcards := map[string]bool{}

	kind, err := parseKind(raw[KeyKind])
	if err != nil {
		return nil, err
	}
	cs.Kind = kind

	if v := strings.TrimSpace(raw[KeyCount]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTargetCount {
			return nil, invalid(KeyCount, "must be 1 or 2, got %q", v)
		}
		cs.TargetCount = n
	}

	if v := strings.TrimSpace(raw[KeyRound]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, invalid(KeyRound, "must be a positive integer, got %q", v)
		}
		cs.RoundHint = &n
	}

	// Location
	station := strings.TrimSpace(stationRaw)
	if stationWildcards[strings.ToLower(station)] {
		wildcards[KeyStation] = true
	} else {
		quadrants, all, err := parseQuadrants(raw[KeyExitQuadrant])
		if err != nil {
			return nil, err
		}
		if all {
			wildcards[KeyExitQuadrant] = true
		}
		cs.Location = &Location{Station: station, Quadrants: quadrants}
	}

	// Category facets
	for _, facet := range model.Facets {
		value, present := raw[string(facet)]
		if !present {
			continue
		}
		tags, wildcard := parseFacet(facet, value, cs.round())
		if wildcard {
			wildcards[string(facet)] = true
			continue
		}
		cs.Tags = append(cs.Tags, tags...)
	}
	if cs.Kind == model.KindBar {
		if _, ok := cs.tag(model.FacetDrinkRound); !ok {
			cs.Tags = append(cs.Tags, model.TagFilter{Facet: model.FacetDrinkRound, Tokens: barRounds(cs.RoundHint)})
		}
	}

	// Price
	lunch, err := parsePrice(KeyPriceLunch, raw[KeyPriceLunch])
	if err != nil {
		return nil, err
	}
	dinner, err := parsePrice(KeyPriceDinner, raw[KeyPriceDinner])
	if err != nil {
		return nil, err
	}
	switch {
	case lunch != nil && dinner != nil:
		return nil, invalid("price", "lunch and dinner prices are mutually exclusive")
	case lunch != nil:
		cs.Price = &model.PriceFilter{Meal: model.MealLunch, Bands: lunch}
	case dinner != nil:
		cs.Price = &model.PriceFilter{Meal: model.MealDinner, Bands: dinner}
	default:
		for _, key := range []string{KeyPriceLunch, KeyPriceDinner} {
			if _, ok := raw[key]; ok {
				wildcards[key] = true
			}
		}
	}

	// Exclusions
	for _, key := range []string{KeyHateFood, KeyFoodIngre} {
		for _, term := range utils.SplitList(raw[key]) {
			if noExclusions[strings.ToLower(term)] {
				continue
			}
			cs.Exclusions = append(cs.Exclusions, utils.ExclusionTerms(term)...)
		}
	}
	cs.Exclusions = utils.Dedupe(cs.Exclusions)

	for _, v := range utils.SplitList(raw[KeyExcludeIDs]) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, invalid(KeyExcludeIDs, "%q is not a venue id", v)
		}
		if !containsID(cs.ExcludeIDs, id) {
			cs.ExcludeIDs = append(cs.ExcludeIDs, id)
		}
	}

	cs.UserID = strings.TrimSpace(raw[KeyUserID])

	for k := range wildcards {
		cs.Wildcards = append(cs.Wildcards, k)
	}
	sort.Strings(cs.Wildcards)

	return cs, nil
}

func (c *ConstraintSet) round() int {
	if c.RoundHint == nil {
		return 0
	}
	return *c.RoundHint
}

func (c *ConstraintSet) tag(f model.Facet) (model.TagFilter, bool) {
	for _, t := range c.Tags {
		if t.Facet == f {
			return t, true
		}
	}
	return model.TagFilter{}, false
}

func parseKind(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "":
		return model.KindRestaurant, nil
	case model.KindRestaurant, model.KindCafe, model.KindBar:
		return v, nil
	}
	return "", invalid(KeyKind, "unknown venue kind %q", v)
}

// parseQuadrants returns nil quadrants plus all=true when the value names every exit
func parseQuadrants(v string) ([]int, bool, error) {
	parts := utils.SplitList(v)
	if len(parts) == 0 {
		return nil, false, nil
	}
	var quadrants []int
	for _, p := range parts {
		switch strings.ToLower(p) {
		case "999", "all", "null":
			return nil, true, nil
		}
		q, err := strconv.Atoi(p)
		if err != nil || q < minQuadrant || q > maxQuadrant {
			return nil, false, invalid(KeyExitQuadrant, "%q is not an exit quadrant", p)
		}
		if !containsInt(quadrants, q) {
			quadrants = append(quadrants, q)
		}
	}
	sort.Ints(quadrants)
	return quadrants, false, nil
}

// parseFacet splits one facet value into its positive and negated tag groups
func parseFacet(facet model.Facet, value string, round int) ([]model.TagFilter, bool) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	if facetWildcards[lower] {
		return nil, true
	}
	if facet == model.FacetDrinkType && drinkAnything[lower] {
		return []model.TagFilter{{Facet: facet, Tokens: append([]string(nil), utils.DrinkTokens...)}}, false
	}
	if facet == model.FacetFoodType && exoticFood[lower] {
		return []model.TagFilter{{Facet: facet, Tokens: append([]string(nil), utils.ExoticFoodTypes...), Negated: true}}, false
	}

	requireAll := strings.Contains(trimmed, "&&")
	var parts []string
	if requireAll {
		for _, p := range strings.Split(trimmed, "&&") {
			parts = append(parts, utils.SplitList(p)...)
		}
	} else {
		parts = utils.SplitList(trimmed)
	}

	var positive, negated []string
	var operands [][]string
	for _, part := range parts {
		token, neg := stripNegation(part)
		if facetWildcards[strings.ToLower(token)] {
			continue
		}
		token = utils.NormalizeToken(token)
		if token == "" {
			continue
		}
		expanded := utils.ExpandToken(facet, token, round)
		if neg {
			negated = append(negated, expanded...)
			continue
		}
		positive = append(positive, expanded...)
		if requireAll {
			operands = appendOperand(operands, expanded)
		}
	}

	var tags []model.TagFilter
	if positive = utils.Dedupe(positive); len(positive) > 0 {
		tag := model.TagFilter{Facet: facet, Tokens: positive}
		if len(operands) > 1 {
			tag.RequireAll = true
			if expandedOperands(operands) {
				tag.Groups = operands
			}
		}
		tags = append(tags, tag)
	}
	if negated = utils.Dedupe(negated); len(negated) > 0 {
		tags = append(tags, model.TagFilter{Facet: facet, Tokens: negated, Negated: true})
	}
	if len(tags) == 0 {
		return nil, true
	}
	return tags, false
}

// appendOperand adds an all-of operand unless an identical one is already present
func appendOperand(operands [][]string, operand []string) [][]string {
	operand = utils.Dedupe(operand)
	key := strings.Join(operand, "|")
	for _, existing := range operands {
		if strings.Join(existing, "|") == key {
			return operands
		}
	}
	return append(operands, operand)
}

func expandedOperands(operands [][]string) bool {
	for _, operand := range operands {
		if len(operand) > 1 {
			return true
		}
	}
	return false
}

func stripNegation(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, prefix := range negationPrefixes {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(s, prefix)), true
		}
	}
	return s, false
}

// parsePrice accepts bands ("2"), lists ("1,2"), and ranges ("2-4")
func parsePrice(key, v string) ([]int, error) {
	v = strings.TrimSpace(v)
	if priceWildcards[strings.ToLower(v)] {
		return nil, nil
	}
	var bands []int
	for _, part := range utils.SplitList(v) {
		lo, hi := part, part
		if i := strings.Index(part, "-"); i > 0 {
			lo, hi = part[:i], part[i+1:]
		}
		from, err1 := strconv.Atoi(strings.TrimSpace(lo))
		to, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil || from > to || from < minPriceBand || to > maxPriceBand {
			return nil, invalid(key, "%q is not a price band between %d and %d", part, minPriceBand, maxPriceBand)
		}
		for b := from; b <= to; b++ {
			if !containsInt(bands, b) {
				bands = append(bands, b)
			}
		}
	}
	sort.Ints(bands)
	return bands, nil
}

func barRounds(round *int) []string {
	if round == nil {
		return append([]string(nil), utils.DefaultDrinkRounds...)
	}
	return []string{strconv.Itoa(*round)}
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsID(set []int64, v int64) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
