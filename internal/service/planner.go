package service

import (
	"fmt"
	"sort"
	"strings"

	"venuematch/internal/model"
	"venuematch/internal/utils"
)

// Tier labels
const (
	TierStrict         = "strict"
	TierWidenQuadrants = "widen_quadrants"
	TierWidenStation   = "widen_station"
	TierSplitPrefix    = "split_"
	TierTerminal       = "terminal"
)

// MaxTiers bounds the relaxation ladder: strict, widened, split, terminal
const MaxTiers = 4

// Branch is one independent sub-query of a split tier.
// Fallback runs only when Predicate yields fewer than Quota rows.
type Branch struct {
	Token         string           `json:"token"`
	Predicate     model.Predicate  `json:"predicate"`
	Fallback      *model.Predicate `json:"fallback,omitempty"`
	FallbackToken string           `json:"fallback_token,omitempty"`
	Quota         int              `json:"quota"`
}

// FilterTier is one step of the relaxation ladder
type FilterTier struct {
	Ordinal     int             `json:"ordinal"`
	Label       string          `json:"label"`
	Predicate   model.Predicate `json:"predicate"`
	Branches    []Branch        `json:"branches,omitempty"`
	TargetCount int             `json:"target_count"`
	Constraints *ConstraintSet  `json:"constraints"`
	Terminal    bool            `json:"terminal,omitempty"`
}

// Split reports whether the tier runs as a union of branch lookups
func (t FilterTier) Split() bool {
	return len(t.Branches) > 0
}

// Matches reports whether a venue falls inside the tier's declared match set
func (t FilterTier) Matches(v *model.Venue) bool {
	if !t.Split() {
		return t.Predicate.Matches(v)
	}
	for _, b := range t.Branches {
		if b.Predicate.Matches(v) {
			return true
		}
		if b.Fallback != nil && b.Fallback.Matches(v) {
			return true
		}
	}
	return false
}

func (t FilterTier) key() string {
	if !t.Split() {
		return t.Predicate.Key()
	}
	var b strings.Builder
	for _, br := range t.Branches {
		fmt.Fprintf(&b, "[%s|%d", br.Predicate.Key(), br.Quota)
		if br.Fallback != nil {
			fmt.Fprintf(&b, "|%s", br.Fallback.Key())
		}
		b.WriteString("]")
	}
	return b.String()
}

// Planner builds the relaxation ladder for a constraint set
type Planner struct {
	splitOrder []model.Facet
}

// NewPlanner creates a planner with the default split priority
func NewPlanner() *Planner {
	return &Planner{
		splitOrder: []model.Facet{
			model.FacetDrinkType,
			model.FacetFoodType,
			model.FacetMenuType,
			model.FacetAmbience,
			model.FacetMood,
			model.FacetTaste,
			model.FacetDish,
		},
	}
}

// Plan returns the ordered tiers for cs. The last tier is always terminal, and
// every tier's match set contains the previous tier's.
func (p *Planner) Plan(cs *ConstraintSet) []FilterTier {
	current := cs.Clone()
	candidates := []FilterTier{newTier(TierStrict, current)}

	if widened, label, ok := widenLocation(current); ok {
		current = widened
		candidates = append(candidates, newTier(label, current))
	}

	if split, ok := p.split(current); ok {
		candidates = append(candidates, split)
	}

	candidates = append(candidates, terminalTier(cs))

	tiers := make([]FilterTier, 0, len(candidates))
	for _, t := range candidates {
		if n := len(tiers); n > 0 && tiers[n-1].key() == t.key() {
			if t.Terminal {
				tiers[n-1].Terminal = true
			}
			continue
		}
		tiers = append(tiers, t)
	}
	for i := range tiers {
		tiers[i].Ordinal = i
	}
	return tiers
}

func newTier(label string, cs *ConstraintSet) FilterTier {
	return FilterTier{
		Label:       label,
		Predicate:   cs.Predicate(),
		TargetCount: cs.TargetCount,
		Constraints: cs,
	}
}

// widenLocation drops exit quadrants when present, otherwise the station
func widenLocation(cs *ConstraintSet) (*ConstraintSet, string, bool) {
	if cs.Location == nil {
		return nil, "", false
	}
	out := cs.Clone()
	if len(cs.Location.Quadrants) > 0 {
		out.Location.Quadrants = nil
		return out, TierWidenQuadrants, true
	}
	out.Location = nil
	return out, TierWidenStation, true
}

// split turns the first splittable constraint into per-token branches
func (p *Planner) split(cs *ConstraintSet) (FilterTier, bool) {
	base := cs.Predicate()

	for _, facet := range p.splitOrder {
		for i, tag := range base.Tags {
			if tag.Facet != facet || tag.Negated || len(tag.Tokens) < 2 {
				continue
			}
			return p.splitTag(cs, base, i), true
		}
	}

	if base.Price != nil && len(base.Price.Bands) > 0 {
		return p.splitPrice(cs, base), true
	}
	return FilterTier{}, false
}

func (p *Planner) splitTag(cs *ConstraintSet, base model.Predicate, idx int) FilterTier {
	tag := base.Tags[idx]
	quota := branchQuota(cs.TargetCount, len(tag.Tokens))
	relaxed := cs.Clone()
	covered := append([]string(nil), tag.Tokens...)

	branches := make([]Branch, 0, len(tag.Tokens))
	for _, token := range tag.Tokens {
		bp := base.Clone()
		bp.Tags[idx] = model.TagFilter{Facet: tag.Facet, Tokens: []string{token}}
		branch := Branch{Token: token, Predicate: bp, Quota: quota}

		if sibling, ok := utils.SiblingToken(tag.Facet, token); ok && !containsString(tag.Tokens, sibling) {
			fp := base.Clone()
			fp.Tags[idx] = model.TagFilter{Facet: tag.Facet, Tokens: []string{sibling}}
			branch.Fallback = &fp
			branch.FallbackToken = sibling
			covered = append(covered, sibling)
		}
		branches = append(branches, branch)
	}

	relaxed.Tags[idx] = model.TagFilter{Facet: tag.Facet, Tokens: utils.Dedupe(covered)}

	return FilterTier{
		Label:       TierSplitPrefix + string(tag.Facet),
		Predicate:   base,
		Branches:    branches,
		TargetCount: cs.TargetCount,
		Constraints: relaxed,
	}
}

// splitPrice gives each band its own branch, backfilled from the next band up
func (p *Planner) splitPrice(cs *ConstraintSet, base model.Predicate) FilterTier {
	bands := base.Price.Bands
	quota := branchQuota(cs.TargetCount, len(bands))
	relaxed := cs.Clone()
	covered := append([]int(nil), bands...)

	branches := make([]Branch, 0, len(bands))
	for _, band := range bands {
		bp := base.Clone()
		bp.Price.Bands = []int{band}
		branch := Branch{Token: fmt.Sprintf("%s:%d", base.Price.Meal, band), Predicate: bp, Quota: quota}

		if next := band + 1; next <= maxPriceBand && !containsInt(bands, next) {
			fp := base.Clone()
			fp.Price.Bands = []int{next}
			branch.Fallback = &fp
			branch.FallbackToken = fmt.Sprintf("%s:%d", base.Price.Meal, next)
			if !containsInt(covered, next) {
				covered = append(covered, next)
			}
		}
		branches = append(branches, branch)
	}

	relaxed.Price.Bands = sortedCopy(covered)

	return FilterTier{
		Label:       TierSplitPrefix + "price",
		Predicate:   base,
		Branches:    branches,
		TargetCount: cs.TargetCount,
		Constraints: relaxed,
	}
}

// terminalTier keeps only the catalog scope and the hard exclusions.
// Negated tags count as exclusions and survive.
func terminalTier(cs *ConstraintSet) FilterTier {
	relaxed := &ConstraintSet{
		Kind:        cs.Kind,
		Exclusions:  append([]string(nil), cs.Exclusions...),
		ExcludeIDs:  append([]int64(nil), cs.ExcludeIDs...),
		TargetCount: cs.TargetCount,
		UserID:      cs.UserID,
	}
	for _, tag := range cs.Tags {
		if tag.Negated {
			tag.Tokens = append([]string(nil), tag.Tokens...)
			relaxed.Tags = append(relaxed.Tags, tag)
		}
	}
	tier := newTier(TierTerminal, relaxed)
	tier.Terminal = true
	return tier
}

func branchQuota(target, branches int) int {
	if branches <= 0 {
		return target
	}
	return (target + branches - 1) / branches
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func sortedCopy(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}
